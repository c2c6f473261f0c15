// Package weberr attaches HTTP responses and log metadata to errors returned by
// handlers. The error middleware reads them back with Response, Fields and IsQuiet.
package weberr

import "errors"

type Opt func(*webError)

type webError struct {
	error
	body   any
	status int
	fields map[string]any
	quiet  bool
}

func (e *webError) Unwrap() error { return e.error }

// Wrap decorates err with opts. Decorations already present further down the
// chain are carried over unless an option replaces them.
func Wrap(err error, opts ...Opt) error {
	we := &webError{error: err}
	var inner *webError
	if errors.As(err, &inner) {
		we.body, we.status, we.quiet = inner.body, inner.status, inner.quiet
		we.fields = inner.fields
	}
	for _, opt := range opts {
		opt(we)
	}
	return we
}

func WithResponse(body any, status int) Opt {
	return func(e *webError) {
		e.body, e.status = body, status
	}
}

// WithFields merges fields into the log fields of the error.
func WithFields(fields map[string]any) Opt {
	return func(e *webError) {
		merged := make(map[string]any, len(e.fields)+len(fields))
		for k, v := range e.fields {
			merged[k] = v
		}
		for k, v := range fields {
			merged[k] = v
		}
		e.fields = merged
	}
}

// Quiet marks errors that are part of the normal protocol, like a duplicate cart
// line, so the error middleware logs them at info level.
func Quiet() Opt {
	return func(e *webError) { e.quiet = true }
}

func Response(err error) (body any, status int, ok bool) {
	var we *webError
	if errors.As(err, &we) && we.status != 0 {
		return we.body, we.status, true
	}
	return nil, 0, false
}

func Fields(err error) (map[string]any, bool) {
	var we *webError
	if errors.As(err, &we) && len(we.fields) > 0 {
		return we.fields, true
	}
	return nil, false
}

func IsQuiet(err error) bool {
	var we *webError
	return errors.As(err, &we) && we.quiet
}
