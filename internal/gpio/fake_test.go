package gpio

import (
	"errors"
	"testing"
)

func TestFakeButtonRead(t *testing.T) {
	f := NewFakeButton(false, true, true)

	want := []bool{false, true, true, true}
	for i, w := range want {
		got, err := f.Read()
		if err != nil {
			t.Fatalf("read %d: unexpected error: %v", i, err)
		}
		if got != w {
			t.Errorf("read %d: got %v, want %v", i, got, w)
		}
	}
	if f.Reads != len(want) {
		t.Errorf("Reads: got %d, want %d", f.Reads, len(want))
	}
}

func TestFakeButtonNoLevels(t *testing.T) {
	f := NewFakeButton()

	got, err := f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got {
		t.Error("expected released level with no script")
	}
}

func TestFakeButtonError(t *testing.T) {
	f := NewFakeButton(true)
	f.ReadError = errors.New("simulated error")

	_, err := f.Read()
	if err == nil {
		t.Fatal("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeButtonClose(t *testing.T) {
	f := NewFakeButton(true)

	if f.Closed {
		t.Error("should not be closed initially")
	}
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFakeButtonReset(t *testing.T) {
	f := NewFakeButton(true, false)
	f.Read()
	f.Read()

	f.Reset()

	got, _ := f.Read()
	if !got {
		t.Error("after reset: expected first level (true)")
	}
	if f.Reads != 1 {
		t.Errorf("Reads after reset: got %d, want 1", f.Reads)
	}
}

func TestFakeButtonImplementsButton(t *testing.T) {
	var _ Button = NewFakeButton()
}
