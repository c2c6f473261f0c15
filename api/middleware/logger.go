package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/irsalhamdi/e-commerce-food/api/web"
	"github.com/sirupsen/logrus"
	"github.com/zenazn/goji/web/mutil"
)

// Logger logs every request once it completes: server errors at warn, the paths
// in quiet (health checks) at debug, everything else at info.
func Logger(log logrus.FieldLogger, quiet ...string) web.Middleware {
	skip := make(map[string]bool, len(quiet))
	for _, p := range quiet {
		skip[p] = true
	}

	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			start := time.Now()
			lw := mutil.WrapWriter(w)

			err := handler(ctx, lw, r)

			status := lw.Status()
			if status == 0 {
				status = http.StatusOK
			}
			entry := log.WithFields(logrus.Fields{
				"req_id":     ContextRequestID(ctx),
				"method":     r.Method,
				"path":       r.URL.Path,
				"remoteaddr": r.RemoteAddr,
				"status":     status,
				"bytes":      lw.BytesWritten(),
				"since":      time.Since(start).String(),
			})

			switch {
			case status >= http.StatusInternalServerError:
				entry.Warn("request failed")
			case skip[r.URL.Path]:
				entry.Debug("request completed")
			default:
				entry.Info("request completed")
			}
			return err
		}
		return h
	}
	return m
}
