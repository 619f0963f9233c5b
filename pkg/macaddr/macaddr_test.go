package macaddr

import "testing"

func TestNormalizeFormats(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"AA:BB:CC:11:22:33", "aa:bb:cc:11:22:33"},
		{"aa-bb-cc-11-22-33", "aa:bb:cc:11:22:33"},
		{"aabb.cc11.2233", "aa:bb:cc:11:22:33"},
		{"aabbcc112233", "aa:bb:cc:11:22:33"},
		{"  AABB.CC11.2233  ", "aa:bb:cc:11:22:33"},
	}
	for _, c := range cases {
		got, err := Normalize(c.in)
		if err != nil {
			t.Fatalf("Normalize(%q) error: %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
		if !Valid(got) {
			t.Errorf("Valid(%q) = false, want true", got)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n1, err := Normalize("AA-BB-CC-11-22-33")
	if err != nil {
		t.Fatal(err)
	}
	n2, err := Normalize(n1)
	if err != nil {
		t.Fatal(err)
	}
	if n1 != n2 {
		t.Errorf("Normalize not idempotent: %q != %q", n1, n2)
	}
}

func TestNormalizeRejectsWrongLength(t *testing.T) {
	for _, in := range []string{"aabbcc1122", "aabbcc11223344", "", "zzbbcc112233"} {
		if _, err := Normalize(in); err == nil {
			t.Errorf("Normalize(%q) expected error, got nil", in)
		}
	}
}
