package domain

import "testing"

func TestMergeOrderStatus_Forward(t *testing.T) {
	tests := []struct {
		current  OrderStatus
		incoming OrderStatus
		want     OrderStatus
	}{
		{OrderStatusAwaiting, OrderStatusPending, OrderStatusPending},
		{OrderStatusPending, OrderStatusInProgress, OrderStatusInProgress},
		{OrderStatusProcessing, OrderStatusCompleted, OrderStatusCompleted},
		{OrderStatusInProgress, OrderStatusPartial, OrderStatusPartial},
		{OrderStatusAwaiting, OrderStatusFail, OrderStatusFail},
	}

	for _, tt := range tests {
		if got := MergeOrderStatus(tt.current, tt.incoming); got != tt.want {
			t.Errorf("MergeOrderStatus(%s, %s) = %s, want %s",
				tt.current, tt.incoming, got, tt.want)
		}
	}
}

func TestMergeOrderStatus_NoRegress(t *testing.T) {
	tests := []struct {
		current  OrderStatus
		incoming OrderStatus
	}{
		// Назад по решётке — игнорируется.
		{OrderStatusInProgress, OrderStatusPending},
		{OrderStatusProcessing, OrderStatusAwaiting},
		// Терминальный статус не меняется никогда.
		{OrderStatusCompleted, OrderStatusCanceled},
		{OrderStatusCanceled, OrderStatusCompleted},
		{OrderStatusPartial, OrderStatusFail},
		{OrderStatusFail, OrderStatusPending},
	}

	for _, tt := range tests {
		if got := MergeOrderStatus(tt.current, tt.incoming); got != tt.current {
			t.Errorf("MergeOrderStatus(%s, %s) = %s, want unchanged",
				tt.current, tt.incoming, got)
		}
	}
}

func TestMergeOrderStatus_UnknownIncoming(t *testing.T) {
	got := MergeOrderStatus(OrderStatusPending, OrderStatus("weird"))
	if got != OrderStatusPending {
		t.Errorf("unknown incoming status should be ignored, got %s", got)
	}
}

func TestTaskStatus_IsTerminal(t *testing.T) {
	if TaskStatusPending.IsTerminal() || TaskStatusLeased.IsTerminal() {
		t.Error("pending/leased should not be terminal")
	}
	if !TaskStatusDone.IsTerminal() || !TaskStatusFailed.IsTerminal() {
		t.Error("done/failed should be terminal")
	}
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	terminal := []OrderStatus{OrderStatusPartial, OrderStatusCompleted, OrderStatusCanceled, OrderStatusFail}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	live := []OrderStatus{OrderStatusAwaiting, OrderStatusPending, OrderStatusProcessing, OrderStatusInProgress}
	for _, s := range live {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
