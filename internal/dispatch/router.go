// Package dispatch is the terminal route dispatcher of the request pipeline.
// It wraps a chi router whose handlers return errors instead of writing
// failure bodies themselves; those errors flow back up the pipeline.
package dispatch

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"saas-backoffice/internal/pipeline"
	"saas-backoffice/pkg/apierror"
)

// HandlerFunc is a route handler. A returned error is handed to the
// pipeline's error translator; the handler must not have written a body.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

type slotKey struct{}

type errSlot struct {
	err error
}

type Router struct {
	mux chi.Router
}

func NewRouter() *Router {
	mux := chi.NewRouter()

	rt := &Router{mux: mux}
	mux.NotFound(rt.adapt(func(http.ResponseWriter, *http.Request) error {
		return apierror.NotFound("not found")
	}))
	mux.MethodNotAllowed(rt.adapt(func(http.ResponseWriter, *http.Request) error {
		return apierror.MethodNotAllowed("method not allowed")
	}))

	return rt
}

func (rt *Router) Get(pattern string, h HandlerFunc) {
	rt.mux.Get(pattern, rt.adapt(h))
}

func (rt *Router) Post(pattern string, h HandlerFunc) {
	rt.mux.Post(pattern, rt.adapt(h))
}

func (rt *Router) Put(pattern string, h HandlerFunc) {
	rt.mux.Put(pattern, rt.adapt(h))
}

func (rt *Router) Delete(pattern string, h HandlerFunc) {
	rt.mux.Delete(pattern, rt.adapt(h))
}

// Route mounts a sub-router under prefix.
func (rt *Router) Route(prefix string, fn func(r *Router)) {
	rt.mux.Route(prefix, func(sub chi.Router) {
		fn(&Router{mux: sub})
	})
}

// Dispatch runs the matching route and returns the error its handler
// returned, if any.
func (rt *Router) Dispatch(c *pipeline.Context) error {
	slot := &errSlot{}
	ctx := context.WithValue(c.Request.Context(), slotKey{}, slot)

	rt.mux.ServeHTTP(c.Writer, c.Request.WithContext(ctx))

	return slot.err
}

func (rt *Router) adapt(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}

		slot, ok := r.Context().Value(slotKey{}).(*errSlot)
		if !ok {
			slog.Error("dispatch: handler error outside the pipeline", "path", r.URL.Path, "error", err.Error())
			if !isWritten(w) {
				w.WriteHeader(apierror.StatusOf(err))
			}
			return
		}
		slot.err = err
	}
}

func isWritten(w http.ResponseWriter) bool {
	tracked, ok := w.(interface{ Written() bool })
	return ok && tracked.Written()
}
