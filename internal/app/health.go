package app

import (
	"context"
	"net/http"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/commesse/internal/platform/httpx"
)

// Pinger is a dependency probed by the readiness endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// readyHandler probes every dependency concurrently. Any failure yields 503
// with the failing check named.
func readyHandler(checks map[string]Pinger, timeout time.Duration) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		results := make([]string, len(names))
		var g errgroup.Group
		for i, name := range names {
			i, name := i, name
			g.Go(func() error {
				if err := checks[name].Ping(ctx); err != nil {
					results[i] = err.Error()
					return err
				}
				results[i] = "ok"
				return nil
			})
		}
		err := g.Wait()

		out := readiness{Status: "ok", Checks: make(map[string]string, len(names))}
		for i, name := range names {
			out.Checks[name] = results[i]
		}
		status := http.StatusOK
		if err != nil {
			out.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
		httpx.JSON(w, status, out)
	}
}
