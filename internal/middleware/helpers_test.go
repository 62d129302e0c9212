package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"saas-backoffice/internal/event"
	"saas-backoffice/internal/model"
	"saas-backoffice/internal/pipeline"
)

func serve(t *testing.T, dispatcher pipeline.DispatcherFunc, req *http.Request, units ...pipeline.Unit) *httptest.ResponseRecorder {
	t.Helper()

	p, err := pipeline.New(dispatcher, units...)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req)
	return rec
}

func okDispatcher(c *pipeline.Context) error {
	c.Writer.WriteHeader(http.StatusOK)
	return nil
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()

	var body model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *recordingPublisher) Publish(e event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) Events() []event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.Event(nil), p.events...)
}

type countingDispatcher struct {
	calls int
}

func (d *countingDispatcher) Dispatch(c *pipeline.Context) error {
	d.calls++
	return okDispatcher(c)
}
