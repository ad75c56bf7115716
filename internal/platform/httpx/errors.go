package httpx

import (
	"errors"
	"net/http"
)

// ErrNotFound is matched by RespondError; domain errors wrap it to map to 404.
var ErrNotFound = errors.New("resource not found")

// statusError is implemented by errors that carry their own HTTP status.
type statusError interface {
	error
	Status() int
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var withStatus statusError
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.As(err, &withStatus):
		status := withStatus.Status()
		Problem(w, status, http.StatusText(status), withStatus.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
