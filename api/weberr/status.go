package weberr

import "net/http"

// ErrorResponse is the body of every error answer: {"error": "..."}.
type ErrorResponse struct {
	Error string `json:"error"`
}

func NewError(err error, msg string, status int, opts ...Opt) error {
	return Wrap(err, append([]Opt{WithResponse(&ErrorResponse{Error: msg}, status)}, opts...)...)
}

// BadRequest answers with the error text itself, which is safe to show to the client.
func BadRequest(err error, opts ...Opt) error {
	return NewError(err, err.Error(), http.StatusBadRequest, opts...)
}

func NotAuthorized(err error, opts ...Opt) error {
	return NewError(err, "not authorized to access resource", http.StatusUnauthorized, opts...)
}

func Forbidden(err error, opts ...Opt) error {
	return NewError(err, "access to the resource is forbidden", http.StatusForbidden, opts...)
}

func NotFound(err error, opts ...Opt) error {
	return NewError(err, "the resource could not be found", http.StatusNotFound, opts...)
}

func Conflict(err error, msg string, opts ...Opt) error {
	return NewError(err, msg, http.StatusConflict, opts...)
}

// Unprocessable answers 422 with the error text, for well formed requests the
// current state cannot satisfy (an order for an empty cart).
func Unprocessable(err error, opts ...Opt) error {
	return NewError(err, err.Error(), http.StatusUnprocessableEntity, opts...)
}

func TooManyRequests(err error, opts ...Opt) error {
	return NewError(err, "too many requests, try again later", http.StatusTooManyRequests, opts...)
}

func InternalError(err error, opts ...Opt) error {
	return NewError(
		err,
		"the server encountered a problem and could not process your request",
		http.StatusInternalServerError,
		opts...,
	)
}
