package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a buffer shared with the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDrawsAndClears(t *testing.T) {
	var out syncBuffer
	s := newSpinner(context.Background(), &out, "Packing gallery...", true)
	s.Stop()

	got := out.String()
	if !strings.Contains(got, "Packing gallery...") {
		t.Errorf("output %q does not show the message", got)
	}
	if !strings.HasSuffix(got, "\r") {
		t.Errorf("output %q does not end by clearing the line", got)
	}
}

func TestSpinnerUpdate(t *testing.T) {
	var out syncBuffer
	s := newSpinner(context.Background(), &out, "Packing...", true)
	s.Update("Rendering...")
	time.Sleep(3 * spinnerInterval)
	s.Stop()

	if !strings.Contains(out.String(), "Rendering...") {
		t.Errorf("output %q does not show the updated message", out.String())
	}
}

func TestSpinnerStopsOnContext(t *testing.T) {
	var out syncBuffer
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinner(ctx, &out, "Waiting...", true)
	cancel()

	select {
	case <-s.stopped:
	case <-time.After(time.Second):
		t.Fatal("spinner did not stop after cancellation")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner(context.Background(), &syncBuffer{}, "Stopping...", true)
	s.Stop()
	s.Stop()
}

func TestSpinnerWithoutTerminal(t *testing.T) {
	var out syncBuffer
	s := newSpinner(context.Background(), &out, "Quiet...", false)
	s.Update("Still quiet...")
	s.Stop()
	if out.String() != "" {
		t.Errorf("output = %q, want nothing off a terminal", out.String())
	}
}
