package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	mu      sync.Mutex
	results map[string]int
}

func (r *countingRecorder) ObserveWebhook(event, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.results == nil {
		r.results = map[string]int{}
	}
	r.results[event+"/"+result]++
}

type stubQueue struct {
	got []Delivery
	err error
}

func (q *stubQueue) EnqueueWebhook(ctx context.Context, d Delivery) error {
	q.got = append(q.got, d)
	return q.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyPostsPayload(t *testing.T) {
	var (
		mu   sync.Mutex
		body map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	rec := &countingRecorder{}
	n := NewNotifier(NewSender(time.Second), quietLogger(), WithRecorder(rec))

	ctx, cancel := context.WithCancel(context.Background())
	n.Notify(ctx, srv.URL, NewStatusUpdated("o-1", "ready"))
	cancel()
	n.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "order.status_updated", body["event"])
	assert.Equal(t, "o-1", body["orderId"])
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, 1, rec.results["order.status_updated/ok"])
}

func TestNotifyFailureIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	rec := &countingRecorder{}
	n := NewNotifier(NewSender(time.Second), quietLogger(), WithRecorder(rec))
	n.Notify(context.Background(), srv.URL, NewStatusUpdated("o-1", "ready"))
	n.Wait()

	assert.Equal(t, 1, rec.results["order.status_updated/failed"])
}

func TestNotifySkipsEmptyURL(t *testing.T) {
	q := &stubQueue{}
	n := NewNotifier(NewSender(time.Second), quietLogger(), WithQueue(q))
	n.Notify(context.Background(), "  ", NewStatusUpdated("o-1", "ready"))
	assert.Empty(t, q.got)
}

func TestNotifyUsesQueueWhenConfigured(t *testing.T) {
	q := &stubQueue{}
	rec := &countingRecorder{}
	n := NewNotifier(NewSender(time.Second), quietLogger(), WithQueue(q), WithRecorder(rec))

	n.Notify(context.Background(), "http://hooks.local/x", NewOrderReceived("o-9",
		Customer{Name: "Ana", Phone: "+5491111"}, []Item{{Name: "Pizza", Quantity: 2, Price: 5000}}, 10000, "pending"))

	require.Len(t, q.got, 1)
	assert.Equal(t, "order_received", q.got[0].Event)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(q.got[0].Body, &payload))
	assert.Equal(t, ReceivedMessage, payload["message"])
	assert.Nil(t, payload["estimatedWaitTime"])
	assert.Equal(t, 1, rec.results["order_received/queued"])

	q.err = errors.New("redis down")
	n.Notify(context.Background(), "http://hooks.local/x", NewStatusUpdated("o-9", "ready"))
	assert.Equal(t, 1, rec.results["order.status_updated/enqueue_failed"])
}

func TestOrderConfirmedMessage(t *testing.T) {
	p := NewOrderConfirmed("o-1", Customer{Name: "Ana", Phone: "123", Address: "ignored"}, "preparation", 25)
	assert.Equal(t, "Tu pedido ha sido confirmado. Tiempo estimado de demora: 25 minutos.", p.Message)
	assert.Equal(t, "", p.Customer.Address)
	assert.Equal(t, 25, p.EstimatedWaitTime)

	one := NewOrderConfirmed("o-1", Customer{}, "preparation", 1)
	assert.Equal(t, "Tu pedido ha sido confirmado. Tiempo estimado de demora: 1 minuto.", one.Message)
}
