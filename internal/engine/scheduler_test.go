package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_FiresImmediately(t *testing.T) {
	var processRuns, usageRuns atomic.Int32
	processDone := make(chan struct{})
	usageDone := make(chan struct{})

	s := NewScheduler(time.Hour, time.Hour,
		func(context.Context) {
			if processRuns.Add(1) == 1 {
				close(processDone)
			}
		},
		func(context.Context) {
			if usageRuns.Add(1) == 1 {
				close(usageDone)
			}
		},
	)
	s.Start()
	defer s.Stop()

	select {
	case <-processDone:
	case <-time.After(time.Second):
		t.Fatal("Process loop did not fire immediately")
	}
	select {
	case <-usageDone:
	case <-time.After(time.Second):
		t.Fatal("Usage loop did not fire immediately")
	}
}

func TestScheduler_Ticks(t *testing.T) {
	var runs atomic.Int32
	done := make(chan struct{})

	s := NewScheduler(5*time.Millisecond, time.Hour,
		func(context.Context) {
			if runs.Add(1) == 3 {
				close(done)
			}
		},
		func(context.Context) {},
	)
	s.Start()
	defer s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected at least 3 process runs")
	}
}

func TestScheduler_StartIdempotent(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(time.Hour, time.Hour,
		func(context.Context) { runs.Add(1) },
		func(context.Context) {},
	)
	s.Start()
	s.Start()
	s.Start()
	defer s.Stop()

	// Give the immediate fires time to land
	time.Sleep(50 * time.Millisecond)
	if got := runs.Load(); got != 1 {
		t.Errorf("Expected exactly one immediate run, got %d", got)
	}
}

func TestScheduler_StopTwice(t *testing.T) {
	s := NewScheduler(time.Hour, time.Hour,
		func(context.Context) {},
		func(context.Context) {},
	)
	s.Start()
	s.Stop()
	s.Stop()
}

func TestScheduler_StopEndsLoops(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(5*time.Millisecond, time.Hour,
		func(context.Context) { runs.Add(1) },
		func(context.Context) {},
	)
	s.Start()

	time.Sleep(30 * time.Millisecond)
	s.Stop()
	time.Sleep(20 * time.Millisecond)

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	if runs.Load() != after {
		t.Error("Expected no runs after Stop")
	}
}
