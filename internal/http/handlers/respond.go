// Package handlers holds the JSON HTTP handlers. Each one decodes the request,
// calls a service and maps apperr kinds onto status codes.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/focusnest/server/internal/apperr"
	"github.com/focusnest/server/internal/middleware"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = apperr.BadRequest("invalid request body")

// statusFor maps an error kind to its HTTP status. Conflict is reported as
// 400 because clients already branch on that for duplicate registration.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindBadRequest, apperr.KindConflict:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case apperr.KindUpstreamError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError sends err in the {"error","message"} shape. Causes of internal
// and upstream errors are logged, never returned.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: string(kind), Message: apperr.MessageOf(err)})
}

// decodeJSON reads a single JSON object into dst. Oversized bodies, unknown
// fields and trailing data are all rejected as an invalid body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(apperr.KindBadRequest, errInvalidBody.Message, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errInvalidBody
	}
	return nil
}

// currentUser returns the ID placed in the context by the auth middleware.
func currentUser(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.GetUserID(r.Context())
	if !ok {
		return uuid.Nil, apperr.Unauthorized("Not authorized, no token")
	}
	return id, nil
}

// flexTime accepts either an RFC 3339 timestamp or a bare YYYY-MM-DD date.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

func (t *flexTime) ptr() *time.Time {
	if t == nil {
		return nil
	}
	v := t.Time
	return &v
}
