package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/irsalhamdi/e-commerce-food/api/web"
	"github.com/irsalhamdi/e-commerce-food/api/weberr"
)

// Panics turns a panicking handler into an internal error. It must sit after
// Errors in the chain so the converted error gets rendered.
func Panics() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = weberr.InternalError(
						fmt.Errorf("panic: %v", rec),
						weberr.WithFields(map[string]any{"trace": string(debug.Stack())}),
					)
				}
			}()
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
