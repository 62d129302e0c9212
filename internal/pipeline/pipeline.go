// Package pipeline composes middleware units and a terminal dispatcher into
// one http.Handler.
//
// Units run in registration order: the first registered unit is the
// outermost one, it sees the request first and the response last. Each unit
// decides whether to continue by calling Context.Next; returning without
// calling it short-circuits the chain. Failures travel back up as returned
// errors.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

var ErrNoDispatcher = errors.New("pipeline: terminal dispatcher is required")

type Unit interface {
	Name() string
	Handle(c *Context) error
}

// Dispatcher is the terminal element, invoked after the innermost unit.
type Dispatcher interface {
	Dispatch(c *Context) error
}

type DispatcherFunc func(c *Context) error

func (f DispatcherFunc) Dispatch(c *Context) error {
	return f(c)
}

type unitFunc struct {
	name string
	fn   func(c *Context) error
}

func (u unitFunc) Name() string            { return u.name }
func (u unitFunc) Handle(c *Context) error { return u.fn(c) }

// Func adapts a function into a named Unit.
func Func(name string, fn func(c *Context) error) Unit {
	return unitFunc{name: name, fn: fn}
}

type Pipeline struct {
	units      []Unit
	dispatcher Dispatcher
}

func New(dispatcher Dispatcher, units ...Unit) (*Pipeline, error) {
	if dispatcher == nil {
		return nil, ErrNoDispatcher
	}
	if fn, ok := dispatcher.(DispatcherFunc); ok && fn == nil {
		return nil, ErrNoDispatcher
	}

	registered := make([]Unit, 0, len(units))
	for i, unit := range units {
		if unit == nil {
			return nil, fmt.Errorf("pipeline: unit at position %d is nil", i)
		}
		registered = append(registered, unit)
	}

	return &Pipeline{units: registered, dispatcher: dispatcher}, nil
}

// Units lists unit names in execution order.
func (p *Pipeline) Units() []string {
	names := make([]string, 0, len(p.units))
	for _, unit := range p.units {
		names = append(names, unit.Name())
	}
	return names
}

func (p *Pipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c := newContext(p, w, r)

	if err := c.Next(); err != nil {
		// Only reachable when no unit translates failures.
		slog.Error("pipeline: untranslated failure", "error", err.Error(), "method", r.Method, "path", r.URL.Path)
		if !c.Writer.Written() {
			c.Writer.WriteHeader(http.StatusInternalServerError)
		}
	}
}
