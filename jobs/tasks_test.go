package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/guruweb/resto/internal/jobs"
	"github.com/guruweb/resto/internal/webhook"
)

type stubDeliverer struct {
	got []webhook.Delivery
	err error
}

func (s *stubDeliverer) Deliver(ctx context.Context, d webhook.Delivery) error {
	s.got = append(s.got, d)
	return s.err
}

func TestWebhookTaskRoundTrip(t *testing.T) {
	d := webhook.Delivery{URL: "http://hooks.local/x", Event: "order_received", Body: []byte(`{"orderId":"o-1"}`)}
	task, err := NewWebhookTask(d)
	require.NoError(t, err)
	assert.Equal(t, TaskWebhookDeliver, task.Type())

	deliverer := &stubDeliverer{}
	job := NewWebhookJob(deliverer, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, deliverer.got, 1)
	assert.Equal(t, d.URL, deliverer.got[0].URL)
	assert.JSONEq(t, `{"orderId":"o-1"}`, string(deliverer.got[0].Body))
}

func TestWebhookJobFailures(t *testing.T) {
	deliverer := &stubDeliverer{err: errors.New("status 502")}
	job := NewWebhookJob(deliverer, nil, nil)

	task, err := NewWebhookTask(webhook.Delivery{URL: "http://hooks.local/x", Event: "order.created"})
	require.NoError(t, err)
	assert.EqualError(t, job.Handle(context.Background(), task), "status 502")

	bad := asynq.NewTask(TaskWebhookDeliver, []byte("{"))
	assert.ErrorIs(t, job.Handle(context.Background(), bad), asynq.SkipRetry)

	empty, err := json.Marshal(webhook.Delivery{Event: "order.created"})
	require.NoError(t, err)
	assert.ErrorIs(t, job.Handle(context.Background(), asynq.NewTask(TaskWebhookDeliver, empty)), asynq.SkipRetry)
	assert.Len(t, deliverer.got, 1)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestHealthHandler(t *testing.T) {
	serve := func(h *Handler) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		h.MountRoutes(r)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		return rec
	}

	rec := serve(NewHandler(nil, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"archived":0}`, rec.Body.String())

	rec = serve(NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 3, Archived: 1}}, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":3,"archived":1}`, rec.Body.String())

	rec = serve(NewHandler(stubInspector{err: errors.New("redis down")}, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
