package progresstui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestUpdateTracksDevicesAndErrors(t *testing.T) {
	events := make(chan Event, 4)
	m := New(events)

	next, _ := m.Update(eventMsg(Event{Kind: EventDeviceCollected, Hostname: "sw1"}))
	m = next.(Model)
	if m.devicesFound != 1 {
		t.Fatalf("devicesFound = %d, want 1", m.devicesFound)
	}

	next, _ = m.Update(eventMsg(Event{Kind: EventDeviceErrored, Hostname: "sw2", Err: errors.New("boom"), Message: "boom"}))
	m = next.(Model)
	if m.errorCount != 1 {
		t.Fatalf("errorCount = %d, want 1", m.errorCount)
	}

	if rate := m.successRate(); rate != 0.5 {
		t.Errorf("successRate = %v, want 0.5", rate)
	}
}

func TestUpdateQuitsOnDoneEvent(t *testing.T) {
	events := make(chan Event, 1)
	m := New(events)

	next, cmd := m.Update(eventMsg(Event{Kind: EventDone}))
	m = next.(Model)
	if !m.done {
		t.Fatal("expected done=true after EventDone")
	}
	if cmd == nil {
		t.Fatal("expected a tea.Quit command")
	}
}

func TestUpdateQuitsOnKeypress(t *testing.T) {
	events := make(chan Event, 1)
	m := New(events)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected a tea.Quit command on 'q'")
	}
}

func TestSuccessRateZeroBeforeAnyEvents(t *testing.T) {
	m := New(make(chan Event))
	if rate := m.successRate(); rate != 0 {
		t.Errorf("successRate = %v, want 0 before any events", rate)
	}
}
