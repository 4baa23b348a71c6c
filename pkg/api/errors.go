package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/arnac-io/wton/pkg/emulator"
	"github.com/arnac-io/wton/pkg/wton"
)

var ErrRateLimited = errors.New("too many write requests")

type Error struct {
	Error string `json:"error"`
}

type badRequest struct {
	err error
}

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

func toBadRequest(err error) error {
	return badRequest{err: err}
}

func statusOf(err error) int {
	var br badRequest
	switch {
	case errors.As(err, &br),
		errors.Is(err, emulator.ErrForgedBounce),
		errors.Is(err, wton.ErrBadArguments):
		return http.StatusBadRequest
	case errors.Is(err, emulator.ErrAccountMissing),
		errors.Is(err, emulator.ErrNotActive):
		return http.StatusNotFound
	case errors.Is(err, emulator.ErrMailboxFull),
		errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, emulator.ErrClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusOf(err), Error{Error: err.Error()})
}
