package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/robfig/cron/v3"
)

func newTestScheduler() *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: slog.New(slog.DiscardHandler),
	}
}

func TestRunJobOnlyWhenLeader(t *testing.T) {
	s := newTestScheduler()
	runs := 0
	job := Job{
		Name: "tick",
		Run: func(context.Context) error {
			runs++
			return nil
		},
	}

	s.runJob(context.Background(), job)
	if runs != 0 {
		t.Fatalf("job ran %d times without leadership, want 0", runs)
	}

	s.isLeader.Store(true)
	s.runJob(context.Background(), job)
	if runs != 1 {
		t.Fatalf("job ran %d times as leader, want 1", runs)
	}

	s.isLeader.Store(false)
	s.runJob(context.Background(), job)
	if runs != 1 {
		t.Fatalf("job ran %d times after stepping down, want 1", runs)
	}
}

func TestRunJobSwallowsJobError(t *testing.T) {
	s := newTestScheduler()
	s.isLeader.Store(true)

	// Ошибка задания логируется и не должна ронять расписание.
	s.runJob(context.Background(), Job{
		Name: "broken",
		Run: func(context.Context) error {
			return errors.New("boom")
		},
	})
}

func TestAddJobInvalidSpec(t *testing.T) {
	s := newTestScheduler()

	err := s.AddJob(context.Background(), Job{
		Name: "bad",
		Spec: "not a cron spec",
		Run:  func(context.Context) error { return nil },
	})
	if err == nil {
		t.Fatal("AddJob() accepted invalid spec")
	}
}
