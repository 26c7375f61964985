package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestRunSurvivesCallerCancellation(t *testing.T) {
	s := New(zap.NewNop())

	got := make(chan error, 1)
	s.Register(Job{
		Name:     "job",
		Interval: time.Hour,
		Fn: func(ctx context.Context) error {
			got <- ctx.Err()
			return nil
		},
	})

	// The trigger's context is already cancelled when the job starts,
	// as happens when an HTTP handler returns before the goroutine runs.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx, "job"); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-got:
		if err != nil {
			t.Fatalf("job context already dead: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
}

func TestRunUnknownJob(t *testing.T) {
	s := New(zap.NewNop())
	if err := s.Run(context.Background(), "nope"); err == nil {
		t.Fatal("unknown job accepted")
	}
}

func TestExecuteRecordsFailure(t *testing.T) {
	s := New(zap.NewNop())
	s.Register(Job{
		Name:     "flaky",
		Interval: time.Hour,
		Fn: func(context.Context) error {
			return errors.New("boom")
		},
	})
	if err := s.Run(context.Background(), "flaky"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		res, err := s.GetTask("flaky")
		return err == nil && res.Status == StatusReject && res.Message == "boom"
	})
}
