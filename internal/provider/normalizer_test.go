package provider

import (
	"testing"

	"github.com/shaiso/Boostgram/internal/domain"
)

func TestNormalize_OKFalseNoState(t *testing.T) {
	n := Normalize(map[string]any{"ok": false}, "")

	if n.State != domain.StateFailed {
		t.Errorf("state = %s, want failed", n.State)
	}
	if n.OK {
		t.Error("ok should be false")
	}
	if n.Error != "Task failed" {
		t.Errorf("error = %q, want generic message", n.Error)
	}
}

func TestNormalize_TaskIDImpliesPending(t *testing.T) {
	n := Normalize(map[string]any{"task_id": "abc"}, "")

	if n.State != domain.StatePending {
		t.Errorf("state = %s, want pending", n.State)
	}
	if n.OK {
		t.Error("pending is never successful")
	}
	if n.TaskID != "abc" {
		t.Errorf("task_id = %q, want abc", n.TaskID)
	}
}

func TestNormalize_ExplicitDonePassthrough(t *testing.T) {
	n := Normalize(map[string]any{"state": "done", "ok": true}, "")

	if n.State != domain.StateDone {
		t.Errorf("state = %s, want done", n.State)
	}
	if !n.OK {
		t.Error("ok should pass through as true")
	}
	if n.Error != "" {
		t.Errorf("unexpected error %q", n.Error)
	}
}

func TestNormalize_ExplicitStateOverridesInference(t *testing.T) {
	// Явный state важнее наличия task_id.
	n := Normalize(map[string]any{"state": "failed", "task_id": "abc"}, "")

	if n.State != domain.StateFailed {
		t.Errorf("state = %s, want failed", n.State)
	}
	if n.OK {
		t.Error("ok should be forced false for failed")
	}
}

func TestNormalize_PendingForcesOKFalse(t *testing.T) {
	// Даже если провайдер прислал ok=true вместе с pending.
	n := Normalize(map[string]any{"state": "pending", "ok": true}, "")

	if n.State != domain.StatePending {
		t.Errorf("state = %s, want pending", n.State)
	}
	if n.OK {
		t.Error("pending must force ok=false")
	}
}

func TestNormalize_EmptyIsDone(t *testing.T) {
	n := Normalize(map[string]any{}, "")

	if n.State != domain.StateDone {
		t.Errorf("state = %s, want done", n.State)
	}
	if !n.OK {
		t.Error("empty response defaults to successful done")
	}
}

func TestNormalize_NestedKeys(t *testing.T) {
	raw := map[string]any{
		"ok": false,
		"data": map[string]any{
			"message":     "quota exceeded",
			"retry_after": float64(120),
		},
	}
	n := Normalize(raw, "")

	if n.State != domain.StateFailed {
		t.Errorf("state = %s, want failed", n.State)
	}
	if n.Error != "quota exceeded" {
		t.Errorf("error = %q, want nested message", n.Error)
	}
	if n.RetryAfter != 120 {
		t.Errorf("retry_after = %d, want 120", n.RetryAfter)
	}
}

func TestNormalize_RetryAfterVariants(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want int
	}{
		{"flat float", map[string]any{"retry_after": float64(30)}, 30},
		{"camelCase", map[string]any{"retryAfter": float64(45)}, 45},
		{"string", map[string]any{"retry_after": "60"}, 60},
		{"absent", map[string]any{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw, "").RetryAfter; got != tt.want {
				t.Errorf("retry_after = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNormalize_FallbackTaskID(t *testing.T) {
	n := Normalize(map[string]any{"state": "pending"}, "fallback-1")

	if n.TaskID != "fallback-1" {
		t.Errorf("task_id = %q, want fallback", n.TaskID)
	}
}

func TestNormalize_NumericTaskID(t *testing.T) {
	n := Normalize(map[string]any{"task_id": float64(12345)}, "")

	if n.State != domain.StatePending {
		t.Errorf("state = %s, want pending", n.State)
	}
	if n.TaskID != "12345" {
		t.Errorf("task_id = %q, want 12345", n.TaskID)
	}
}

func TestNormalized_OrderStatus(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want domain.OrderStatus
	}{
		{"explicit status", map[string]any{"status": "partial"}, domain.OrderStatusPartial},
		{"status with case", map[string]any{"status": " Completed "}, domain.OrderStatusCompleted},
		{"unknown status falls back to state", map[string]any{"status": "???", "ok": false}, domain.OrderStatusFail},
		{"pending state", map[string]any{"task_id": "x"}, domain.OrderStatusInProgress},
		{"done state", map[string]any{"ok": true}, domain.OrderStatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw, "").OrderStatus(); got != tt.want {
				t.Errorf("OrderStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExtractError_Priority(t *testing.T) {
	raw := map[string]any{
		"message": "top-level message",
		"error":   "secondary",
	}
	if got := ExtractError(raw); got != "top-level message" {
		t.Errorf("ExtractError = %q, want message field first", got)
	}

	if got := ExtractError(map[string]any{"error_message": "third"}); got != "third" {
		t.Errorf("ExtractError = %q, want error_message", got)
	}
}
