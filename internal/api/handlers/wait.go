package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// WaitOption configures a handler whose routes block on a poll loop.
type WaitOption func(*waitConfig)

type waitConfig struct {
	hold time.Duration
}

// WithWriteHold keeps the connection writable for d after a waiting route
// is entered, overriding the server's write timeout for that response.
func WithWriteHold(d time.Duration) WaitOption {
	return func(c *waitConfig) {
		c.hold = d
	}
}

func newWaitConfig(opts []WaitOption) waitConfig {
	var c waitConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// holdResponse moves the write deadline of the underlying connection d into
// the future. Writers that cannot set deadlines are left alone.
func holdResponse(d time.Duration) huma.Middlewares {
	if d <= 0 {
		return nil
	}
	return huma.Middlewares{func(ctx huma.Context, next func(huma.Context)) {
		if w, ok := ctx.BodyWriter().(http.ResponseWriter); ok {
			_ = http.NewResponseController(w).SetWriteDeadline(time.Now().Add(d))
		}
		next(ctx)
	}}
}
