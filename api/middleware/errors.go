package middleware

import (
	"context"
	"net/http"

	"github.com/irsalhamdi/e-commerce-food/api/web"
	"github.com/irsalhamdi/e-commerce-food/api/weberr"
	"github.com/sirupsen/logrus"
)

// Errors renders handler errors. Errors carrying a response are answered with it,
// anything else becomes an opaque 500.
func Errors(log logrus.FieldLogger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)
			if err == nil {
				return nil
			}

			fields := logrus.Fields{
				"req_id":  ContextRequestID(ctx),
				"message": err,
			}
			if f, ok := weberr.Fields(err); ok {
				for k, v := range f {
					fields[k] = v
				}
			}

			if weberr.IsQuiet(err) {
				log.WithFields(fields).Info("request rejected")
			} else {
				log.WithFields(fields).Error("ERROR")
			}

			if body, code, ok := weberr.Response(err); ok {
				return web.Respond(ctx, w, body, code)
			}

			er := weberr.ErrorResponse{Error: http.StatusText(http.StatusInternalServerError)}
			return web.Respond(ctx, w, er, http.StatusInternalServerError)
		}
		return h
	}
	return m
}
