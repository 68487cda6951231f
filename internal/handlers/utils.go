package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ShameelMohamed/FASHN8/internal/logging"
	"github.com/ShameelMohamed/FASHN8/internal/services"
	"github.com/ShameelMohamed/FASHN8/internal/store"
	"github.com/ShameelMohamed/FASHN8/types"
)

const (
	maxMultipartMemory = 32 << 20
	maxImageBytes      = 16 << 20
	maxRequestBytes    = 2*maxImageBytes + 1<<20
)

type contextKey string

const contextSubjectKey contextKey = "sub"

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse carries an informational note for requests that
// succeeded without producing anything.
type MessageResponse struct {
	Message string `json:"message"`
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func usernameFromContext(ctx context.Context) (string, error) {
	subject, ok := ctx.Value(contextSubjectKey).(string)
	if !ok {
		return "", errors.New("missing subject")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("invalid subject")
	}
	return subject, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps a service error onto a status code. Upstream and
// unexpected failures are logged and answered with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	status, message := serviceError(err)
	logServiceError(r, log, status, err)
	writeError(w, status, message)
}

func serviceError(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrEmptyWardrobe):
		return http.StatusBadRequest, services.ErrEmptyWardrobe.Error()
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, services.ErrSessionNotFound):
		return http.StatusNotFound, services.ErrSessionNotFound.Error()
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, "username already exists"
	case errors.Is(err, services.ErrNoOutput):
		return http.StatusBadGateway, services.ErrNoOutput.Error()
	case errors.Is(err, services.ErrUpstream):
		return http.StatusBadGateway, "upstream service failed"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func logServiceError(r *http.Request, log logging.Logger, status int, err error) {
	switch {
	case status == http.StatusBadGateway:
		log.Error(r.Context(), "upstream call failed", "path", r.URL.Path, "error", err)
	case status >= http.StatusInternalServerError:
		log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
}

func parseUploadForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.New("upload too large")
		}
		return errors.New("invalid multipart form")
	}
	return nil
}

// readImageFile reads a single file field of a parsed multipart form.
func readImageFile(r *http.Request, field string) (types.ImageFile, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return types.ImageFile{}, fmt.Errorf("%s is required", field)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return types.ImageFile{}, fmt.Errorf("failed to read %s", field)
	}
	if len(data) > maxImageBytes {
		return types.ImageFile{}, fmt.Errorf("%s exceeds %d MiB", field, maxImageBytes>>20)
	}
	if len(data) == 0 {
		return types.ImageFile{}, fmt.Errorf("%s is empty", field)
	}
	return types.ImageFile{Filename: header.Filename, Data: data}, nil
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	return dec.Decode(dst)
}
