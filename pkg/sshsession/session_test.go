package sshsession

import (
	"bufio"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/netdiscover/netdiscover/pkg/config"
	"github.com/netdiscover/netdiscover/pkg/errs"
)

// pipeSession wires a Session's stdin/stdout to in-memory pipes so Run
// and Enable can be exercised without a real SSH transport. Writes to
// stdin are discarded; deviceOut lets the test play back bytes as if
// the remote device sent them.
type pipeSession struct {
	*Session
	deviceOut *io.PipeWriter
}

func newPipeSession() *pipeSession {
	stdinR, stdinW := io.Pipe()
	go io.Copy(io.Discard, stdinR)

	outR, outW := io.Pipe()

	return &pipeSession{
		Session: &Session{
			device: "sw1",
			stdin:  stdinW,
			stdout: bufio.NewReader(outR),
		},
		deviceOut: outW,
	}
}

// writeDeviceOutput writes raw bytes as if the remote device sent them.
func (p *pipeSession) writeDeviceOutput(s string) {
	go io.WriteString(p.deviceOut, s)
}

func TestClassifyDialError(t *testing.T) {
	cases := []struct {
		msg  string
		want errs.Kind
	}{
		{"ssh: handshake failed: ssh: unable to authenticate", errs.KindAuth},
		{"Permission denied (publickey,password)", errs.KindAuth},
		{"dial tcp 10.0.0.1:22: i/o timeout", errs.KindTimeout},
		{"dial tcp 10.0.0.1:22: connect: connection refused", errs.KindTransport},
	}
	for _, c := range cases {
		got := classifyDialError(errors.New(c.msg))
		if got != c.want {
			t.Errorf("classifyDialError(%q) = %q, want %q", c.msg, got, c.want)
		}
	}
}

func TestStripEcho(t *testing.T) {
	raw := "show version\r\nCisco IOS Software\r\nsw1#"
	got := stripEcho(raw, "show version")
	want := "Cisco IOS Software"
	if got != want {
		t.Errorf("stripEcho = %q, want %q", got, want)
	}
}

func TestLooksLikePromptLine(t *testing.T) {
	if !looksLikePromptLine("sw1#") {
		t.Errorf("expected sw1# to look like a prompt line")
	}
	if looksLikePromptLine("") {
		t.Errorf("expected empty string to not look like a prompt line")
	}
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'a'
	}
	if looksLikePromptLine(string(long) + "#") {
		t.Errorf("expected an overlong line to not look like a prompt line")
	}
}

func TestIsPromptEnd(t *testing.T) {
	if !isPromptEnd("sw1#", promptSuffixes) {
		t.Errorf("expected sw1# to end with a prompt char")
	}
	if isPromptEnd("sw1", promptSuffixes) {
		t.Errorf("expected sw1 (no trailing prompt char) to not match")
	}
	if isPromptEnd("", promptSuffixes) {
		t.Errorf("expected empty string to not match")
	}
}

func TestAuthMethodsRequiresKeyFileWhenUseKeys(t *testing.T) {
	_, err := authMethods(config.Credentials{UseKeys: true})
	if err == nil {
		t.Fatal("expected error when use_keys is set without key_file")
	}
}

func TestAuthMethodsPasswordDefault(t *testing.T) {
	methods, err := authMethods(config.Credentials{Username: "admin", Password: "secret"})
	if err != nil {
		t.Fatalf("authMethods: %v", err)
	}
	if len(methods) != 1 {
		t.Fatalf("got %d auth methods, want 1", len(methods))
	}
}

func TestRunReturnsOutputUpToPrompt(t *testing.T) {
	ps := newPipeSession()
	ps.writeDeviceOutput("show version\r\nCisco IOS Software\r\nsw1#")

	out, err := ps.Run(context.Background(), "show version")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "Cisco IOS Software" {
		t.Errorf("Run output = %q, want %q", out, "Cisco IOS Software")
	}
}

func TestRunReturnsErrorOnClosedSession(t *testing.T) {
	ps := newPipeSession()
	ps.closed = true

	if _, err := ps.Run(context.Background(), "show version"); err == nil {
		t.Fatal("expected error running a command on a closed session")
	}
}

func TestRunAbortsPromptlyOnContextCancel(t *testing.T) {
	ps := newPipeSession()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if _, err := ps.Run(ctx, "show version"); err == nil {
		t.Fatal("expected error when ctx is already cancelled")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Run took %v to notice cancellation, want near-instant", elapsed)
	}
}

func TestEnableSendsSecretOnPasswordPrompt(t *testing.T) {
	ps := newPipeSession()
	// The first chunk ends exactly at the "Password:" delimiter so the
	// write completes once readUntilDelim matches it; the second chunk
	// (the post-secret prompt) follows in the same goroutine so the two
	// writes never race on the pipe.
	go func() {
		io.WriteString(ps.deviceOut, "enable\r\nPassword:")
		io.WriteString(ps.deviceOut, " \r\nsw1#")
	}()

	if err := ps.Enable(context.Background(), "letmein"); err != nil {
		t.Fatalf("Enable: %v", err)
	}
}

func TestEnableSkipsPasswordWhenNotPrompted(t *testing.T) {
	ps := newPipeSession()
	ps.writeDeviceOutput("enable\r\nsw1#")

	if err := ps.Enable(context.Background(), "letmein"); err != nil {
		t.Fatalf("Enable: %v", err)
	}
}
