package output

import (
	"errors"
	"testing"

	"github.com/tkjaer/hops/internal/shared"
)

// mockOutput is a mock implementation of Output for testing
type mockOutput struct {
	events      []shared.Event
	reports     []*shared.Report
	completeErr error
	closeErr    error
	closeCalls  int
}

func (m *mockOutput) Progress(e shared.Event) {
	m.events = append(m.events, e)
}

func (m *mockOutput) Complete(report *shared.Report) error {
	m.reports = append(m.reports, report)
	return m.completeErr
}

func (m *mockOutput) Close() error {
	m.closeCalls++
	return m.closeErr
}

func TestOutputManager_Register(t *testing.T) {
	om := &OutputManager{}
	mock1 := &mockOutput{}
	mock2 := &mockOutput{}

	om.Register(mock1)
	if len(om.outputs) != 1 {
		t.Errorf("Register() outputs count = %d, want 1", len(om.outputs))
	}

	om.Register(mock2)
	if len(om.outputs) != 2 {
		t.Errorf("Register() outputs count = %d, want 2", len(om.outputs))
	}
}

func TestOutputManager_Progress(t *testing.T) {
	om := &OutputManager{}
	mock1 := &mockOutput{}
	mock2 := &mockOutput{}
	om.Register(mock1)
	om.Register(mock2)

	e := shared.Event{Type: shared.EventSent, ID: 3, TTL: 4}
	om.Progress(e)

	for i, m := range []*mockOutput{mock1, mock2} {
		if len(m.events) != 1 {
			t.Fatalf("output %d got %d events, want 1", i, len(m.events))
		}
		if m.events[0] != e {
			t.Errorf("output %d event = %+v, want %+v", i, m.events[0], e)
		}
	}
}

func TestOutputManager_Complete(t *testing.T) {
	errBroken := errors.New("broken")
	om := &OutputManager{}
	failing := &mockOutput{completeErr: errBroken}
	working := &mockOutput{}
	om.Register(failing)
	om.Register(working)

	report := &shared.Report{Destination: "example.net"}
	err := om.Complete(report)

	if !errors.Is(err, errBroken) {
		t.Errorf("Complete() error = %v, want %v", err, errBroken)
	}
	if len(working.reports) != 1 || working.reports[0] != report {
		t.Errorf("Complete() did not reach every output after a failure")
	}
}

func TestOutputManager_Close(t *testing.T) {
	om := &OutputManager{}
	mock1 := &mockOutput{}
	mock2 := &mockOutput{}
	om.Register(mock1)
	om.Register(mock2)

	if err := om.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
	if mock1.closeCalls != 1 || mock2.closeCalls != 1 {
		t.Errorf("Close() calls = %d, %d, want 1, 1", mock1.closeCalls, mock2.closeCalls)
	}
}

func TestOutputManager_Empty(t *testing.T) {
	om := &OutputManager{}

	// Should not panic with no outputs
	om.Progress(shared.Event{})
	if err := om.Complete(&shared.Report{}); err != nil {
		t.Errorf("Complete() error = %v, want nil", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}
