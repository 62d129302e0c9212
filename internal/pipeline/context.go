package pipeline

import "net/http"

// Context is the per-request cursor through the pipeline. Units may replace
// Request (for example to attach values to its context); later units and
// the dispatcher see the replacement.
type Context struct {
	Writer  ResponseWriter
	Request *http.Request

	pipeline *Pipeline
	index    int
}

func newContext(p *Pipeline, w http.ResponseWriter, r *http.Request) *Context {
	return &Context{
		Writer:   newResponseWriter(w),
		Request:  r,
		pipeline: p,
		index:    -1,
	}
}

// Next runs the next unit, or the dispatcher after the last unit. Calls past
// the dispatcher do nothing.
func (c *Context) Next() error {
	c.index++

	switch {
	case c.index < len(c.pipeline.units):
		return c.pipeline.units[c.index].Handle(c)
	case c.index == len(c.pipeline.units):
		return c.pipeline.dispatcher.Dispatch(c)
	default:
		return nil
	}
}
