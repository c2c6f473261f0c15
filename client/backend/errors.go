package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoToken is returned, without any network round-trip, when an authenticated
// call is attempted while signed out.
var ErrNoToken = errors.New("no bearer token")

// ErrRejected is returned when the backend answers 2xx with "success": false.
var ErrRejected = errors.New("request rejected by backend")

type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

// IsUnauthorized reports an authentication failure: a 401 answer or a call that
// never left because there was no token.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrNoToken) || IsStatus(err, http.StatusUnauthorized)
}
