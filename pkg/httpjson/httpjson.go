// Package httpjson holds the JSON request/response helpers shared by handlers.
package httpjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/sodam-care/service-care-go/pkg/apperror"
)

const maxBodyBytes = 1 << 20

// Write encodes v with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes {"error": msg} with the status derived from err.
// Internal errors are logged with their cause; clients only see the public message.
func Error(w http.ResponseWriter, logger *zap.SugaredLogger, err error) {
	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Errorw("request failed", "err", err)
	}
	Write(w, status, map[string]string{"error": apperror.PublicMessage(err)})
}

// LimitBody caps the request body at n bytes. Reads past the cap fail
// with *http.MaxBytesError instead of a silent EOF.
func LimitBody(w http.ResponseWriter, r *http.Request, n int64) io.Reader {
	r.Body = http.MaxBytesReader(w, r.Body, n)
	return r.Body
}

// Decode reads a single JSON value from the request body into v.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(LimitBody(w, r, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return apperror.TooLarge(fmt.Sprintf("request body exceeds %d bytes", mbe.Limit))
		}
		if errors.Is(err, io.EOF) {
			return apperror.Invalid("request body is empty")
		}
		return apperror.Invalid(fmt.Sprintf("invalid payload: %v", err))
	}
	return nil
}
