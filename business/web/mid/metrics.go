package mid

import (
	"context"
	"net/http"

	"github.com/ardanlabs/blocksim/foundation/metrics"
	"github.com/ardanlabs/blocksim/foundation/web"
)

// Metrics records the status code of every request.
func Metrics() web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)

			if v, verr := web.GetValues(ctx); verr == nil {
				metrics.ObserveRequest(v.StatusCode)
			}

			return err
		}

		return h
	}

	return m
}
