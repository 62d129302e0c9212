package pipeline

import (
	"context"
	"net/http"
)

func contextWith(r *http.Request, key any, value any) context.Context {
	return context.WithValue(r.Context(), key, value)
}
