package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/atendimento/crm-dashboard/internal/model"
	"github.com/atendimento/crm-dashboard/pkg/logger"
)

func newTestClient(t *testing.T, url string, retries int) *Client {
	t.Helper()
	c := New(Config{URL: url, Timeout: 5 * time.Second, MaxRetries: retries}, logger.Wrap(zaptest.NewLogger(t)))
	t.Cleanup(func() { c.Close(context.Background()) })
	return c
}

func testPayload() model.AutomationPayload {
	return model.AutomationPayload{
		MessageID: "msg-1",
		UserID:    "5511999990000",
		UserName:  "Ana",
		Message:   "Olá, tudo bem?",
		Type:      model.MessageTypeText,
		IsAgent:   true,
		Timestamp: "2024-05-01T12:00:00.000Z",
	}
}

func nextFailure(t *testing.T, c *Client) Failure {
	t.Helper()
	select {
	case f := <-c.Failures():
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("expected a delivery failure")
	}
	return Failure{}
}

func TestDispatch_Delivers(t *testing.T) {
	type request struct {
		payload model.AutomationPayload
		header  http.Header
	}
	received := make(chan request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p model.AutomationPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode: %v", err)
		}
		received <- request{payload: p, header: r.Header.Clone()}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	c.Dispatch(context.Background(), testPayload())
	c.Wait()

	var got request
	select {
	case got = <-received:
	default:
		t.Fatal("payload was not posted")
	}
	p := got.payload
	if p.MessageID != "msg-1" || p.UserName != "Ana" || !p.IsAgent {
		t.Errorf("unexpected payload: %+v", p)
	}
	if got.header.Get("Content-Type") != "application/json" || got.header.Get("X-Message-ID") != "msg-1" {
		t.Errorf("unexpected headers: %v", got.header)
	}
	select {
	case f := <-c.Failures():
		t.Errorf("unexpected failure: %+v", f)
	default:
	}
}

func TestDispatch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 2)
	c.Dispatch(context.Background(), testPayload())
	c.Wait()

	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
	select {
	case f := <-c.Failures():
		t.Errorf("unexpected failure: %+v", f)
	default:
	}
}

func TestDispatch_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	c.Dispatch(context.Background(), testPayload())
	c.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("expected a single attempt, got %d", got)
	}
	f := nextFailure(t, c)
	if f.MessageID != "msg-1" || f.Attempts != 1 || f.Err == nil {
		t.Errorf("unexpected failure: %+v", f)
	}
}

func TestDispatch_UnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url, 0)
	c.Dispatch(context.Background(), testPayload())
	c.Wait()

	f := nextFailure(t, c)
	if f.UserID != "5511999990000" || f.Err == nil {
		t.Errorf("unexpected failure: %+v", f)
	}
}

func TestDispatch_IgnoresCallerCancellation(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(t, srv.URL, 0)
	c.Dispatch(ctx, testPayload())
	c.Wait()

	if calls.Load() != 1 {
		t.Error("delivery must not depend on the request context")
	}
}

func TestDispatch_DisabledWithoutURL(t *testing.T) {
	c := newTestClient(t, "", 0)
	c.Dispatch(context.Background(), testPayload())
	c.Wait()

	select {
	case f := <-c.Failures():
		t.Errorf("unexpected failure: %+v", f)
	default:
	}
}

func TestClose_DrainsAndRejects(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		calls.Add(1)
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, Timeout: time.Second}, logger.Wrap(zaptest.NewLogger(t)))
	c.Dispatch(context.Background(), testPayload())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if calls.Load() != 1 {
		t.Error("in-flight delivery was not drained")
	}

	if _, ok := <-c.Failures(); ok {
		t.Error("failures channel should be closed after drain")
	}

	// Dispatch after close is dropped without panicking.
	c.Dispatch(context.Background(), testPayload())
	if calls.Load() != 1 {
		t.Error("payload dispatched after close was delivered")
	}
}

func TestClose_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	// The delivery outlives the test, so it must not log through t.
	c := New(Config{URL: srv.URL, Timeout: 5 * time.Second}, logger.Nop())
	c.Dispatch(context.Background(), testPayload())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := c.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
