package worker

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Boostgram/internal/domain"
	"github.com/shaiso/Boostgram/internal/repo"
)

type fakeTaskFinalizer struct {
	delays    []time.Duration
	requeues  []time.Duration
	lastError string
}

func (f *fakeTaskFinalizer) DelayReclaim(_ context.Context, _ uuid.UUID, delay time.Duration) error {
	f.delays = append(f.delays, delay)
	return nil
}

func (f *fakeTaskFinalizer) Requeue(_ context.Context, _ uuid.UUID, lastError string, delay time.Duration) error {
	f.requeues = append(f.requeues, delay)
	f.lastError = lastError
	return nil
}

type fakeOrderAttacher struct {
	attached map[uuid.UUID]string
}

func (f *fakeOrderAttacher) AttachProviderOrder(_ context.Context, id uuid.UUID, providerOrderID string) error {
	if f.attached == nil {
		f.attached = map[uuid.UUID]string{}
	}
	f.attached[id] = providerOrderID
	return nil
}

// fakeResultFinalizer имитирует идемпотентность транзакции финализации:
// второй переход той же задачи получает ErrAlreadyFinalized.
type fakeResultFinalizer struct {
	finalized map[uuid.UUID]bool
	units     int
	lastError string
	failures  int
}

func (f *fakeResultFinalizer) finalize(id uuid.UUID) error {
	if f.finalized[id] {
		return repo.ErrAlreadyFinalized
	}
	if f.finalized == nil {
		f.finalized = map[uuid.UUID]bool{}
	}
	f.finalized[id] = true
	return nil
}

func (f *fakeResultFinalizer) FinalizeSuccess(_ context.Context, task *domain.Task, units int, _ *domain.ResultEvent) error {
	if err := f.finalize(task.ID); err != nil {
		return err
	}
	f.units += units
	return nil
}

func (f *fakeResultFinalizer) FinalizeFailure(_ context.Context, task *domain.Task, lastError string, _ *domain.ResultEvent) error {
	if err := f.finalize(task.ID); err != nil {
		return err
	}
	f.failures++
	f.lastError = lastError
	return nil
}

type reporterFakes struct {
	tasks   *fakeTaskFinalizer
	orders  *fakeOrderAttacher
	results *fakeResultFinalizer
}

func newTestReporter() (*Reporter, *reporterFakes) {
	f := &reporterFakes{
		tasks:   &fakeTaskFinalizer{},
		orders:  &fakeOrderAttacher{},
		results: &fakeResultFinalizer{},
	}
	r := NewReporter(ReporterConfig{
		TaskRepo:    f.tasks,
		OrderRepo:   f.orders,
		ResultRepo:  f.results,
		MaxAttempts: 3,
		Logger:      slog.New(slog.DiscardHandler),
	})
	return r, f
}

func quotaTask(attempts int) *domain.Task {
	task := domain.NewTask(domain.SubjectQuota, uuid.New(), domain.ActionSubscribe, domain.TaskPayload{Link: "@somechannel"})
	task.Attempts = attempts
	return task
}

func TestFinalizeSuccessReplayDecrementsOnce(t *testing.T) {
	r, f := newTestReporter()
	task := quotaTask(1)
	res := domain.OKResult()

	if err := r.Finalize(context.Background(), task, res); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	// Повтор после истёкшего lease: второй воркер выполнил ту же задачу.
	if err := r.Finalize(context.Background(), task, res); err != nil {
		t.Fatalf("Finalize() replay error = %v", err)
	}

	if f.results.units != 1 {
		t.Errorf("quota decremented by %d units, want 1", f.results.units)
	}
}

func TestFinalizeFailureWithBudgetRequeues(t *testing.T) {
	r, f := newTestReporter()
	task := quotaTask(1)
	res := domain.FailResult("flood wait")
	res.RetryAfter = 30

	if err := r.Finalize(context.Background(), task, res); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if len(f.tasks.requeues) != 1 {
		t.Fatalf("requeued %d times, want 1", len(f.tasks.requeues))
	}
	if f.tasks.requeues[0] != 30*time.Second {
		t.Errorf("requeue delay = %v, want 30s", f.tasks.requeues[0])
	}
	if f.tasks.lastError != "flood wait" {
		t.Errorf("last error = %q, want %q", f.tasks.lastError, "flood wait")
	}
	if f.results.failures != 0 {
		t.Error("task finalized as failed with retry budget left")
	}
}

func TestFinalizeFailureBudgetExhausted(t *testing.T) {
	r, f := newTestReporter()
	task := quotaTask(3) // попытки исчерпаны при MaxAttempts=3

	if err := r.Finalize(context.Background(), task, domain.FailResult("peer not found")); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if len(f.tasks.requeues) != 0 {
		t.Error("task requeued with exhausted budget")
	}
	if f.results.failures != 1 {
		t.Fatalf("finalized as failed %d times, want 1", f.results.failures)
	}
	if f.results.lastError != "peer not found" {
		t.Errorf("last error = %q, want %q", f.results.lastError, "peer not found")
	}
}

func TestFinalizePendingDelaysAndAttachesOrder(t *testing.T) {
	r, f := newTestReporter()
	orderID := uuid.New()
	task := domain.NewTask(domain.SubjectOrder, orderID, domain.ActionProviderSubmit, domain.TaskPayload{Link: "@somechannel"})

	if err := r.Finalize(context.Background(), task, domain.PendingResult("prov-42", 45)); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if len(f.tasks.delays) != 1 || f.tasks.delays[0] != 45*time.Second {
		t.Errorf("delays = %v, want [45s]", f.tasks.delays)
	}
	if f.orders.attached[orderID] != "prov-42" {
		t.Errorf("attached provider order = %q, want %q", f.orders.attached[orderID], "prov-42")
	}
	if len(f.results.finalized) != 0 {
		t.Error("pending result finalized the task")
	}
}

func TestFinalizePendingDefaultDelay(t *testing.T) {
	r, f := newTestReporter()
	task := quotaTask(0)

	if err := r.Finalize(context.Background(), task, domain.PendingResult("", 0)); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if len(f.tasks.delays) != 1 || f.tasks.delays[0] != defaultPendingDelay {
		t.Errorf("delays = %v, want [%v]", f.tasks.delays, defaultPendingDelay)
	}
	// Без provider_task_id привязывать нечего.
	if len(f.orders.attached) != 0 {
		t.Errorf("attached = %v, want empty", f.orders.attached)
	}
}
