package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shaiso/Boostgram/internal/domain"
)

func TestClientNotConfigured(t *testing.T) {
	c := New(Config{}, nil)

	_, err := c.SubmitOrder(context.Background(), SubmitRequest{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestSubmitOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v2/orders" {
			t.Errorf("%s %s, want POST /api/v2/orders", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "secret" {
			t.Errorf("X-Api-Key = %q, want %q", got, "secret")
		}

		var req SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.ServiceID != 7 || req.Quantity != 100 {
			t.Errorf("request = %+v", req)
		}

		json.NewEncoder(w).Encode(map[string]any{"task_id": "prov-1"})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "secret"}, nil)

	resp, err := c.SubmitOrder(context.Background(), SubmitRequest{
		OrderRef:  "order-1",
		ServiceID: 7,
		Link:      "https://t.me/somechannel",
		Quantity:  100,
	})
	if err != nil {
		t.Fatalf("SubmitOrder() error = %v", err)
	}

	if resp.State != domain.StatePending {
		t.Errorf("State = %q, want pending", resp.State)
	}
	if resp.TaskID != "prov-1" {
		t.Errorf("TaskID = %q, want %q", resp.TaskID, "prov-1")
	}
}

func TestOrderStatusHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error": "upstream exploded"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, nil)

	resp, err := c.OrderStatus(context.Background(), "prov-1")
	if err != nil {
		t.Fatalf("OrderStatus() error = %v, want normalized response", err)
	}

	if resp.OK {
		t.Error("OK = true, want false")
	}
	if resp.State != domain.StateFailed {
		t.Errorf("State = %q, want failed", resp.State)
	}
	if resp.Error != "upstream exploded" {
		t.Errorf("Error = %q, want %q", resp.Error, "upstream exploded")
	}
}

func TestOrderStatusNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>nope</html>"))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, nil)

	resp, err := c.OrderStatus(context.Background(), "prov-1")
	if err != nil {
		t.Fatalf("OrderStatus() error = %v", err)
	}
	if resp.Error != "HTTP 500" {
		t.Errorf("Error = %q, want %q", resp.Error, "HTTP 500")
	}
}

func TestOrderStatusGarbageBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, nil)

	// 200 с нечитаемым телом не должен превращаться в успех.
	_, err := c.OrderStatus(context.Background(), "prov-1")
	if !errors.Is(err, ErrRequest) {
		t.Errorf("err = %v, want ErrRequest", err)
	}
}

func TestOrderStatusEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, nil)

	resp, err := c.OrderStatus(context.Background(), "prov-1")
	if err != nil {
		t.Fatalf("OrderStatus() error = %v", err)
	}
	if resp.State != domain.StateDone || !resp.OK {
		t.Errorf("State = %q, OK = %v; want done/true", resp.State, resp.OK)
	}
}

func TestTransportErrorWrapped(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1"}, nil)

	_, err := c.OrderStatus(context.Background(), "prov-1")
	if !errors.Is(err, ErrRequest) {
		t.Errorf("err = %v, want ErrRequest", err)
	}
}
