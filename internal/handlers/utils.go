package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/akolanti/alexandria/internal/adapter"
	"github.com/akolanti/alexandria/internal/api"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/pkg/logger_i"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logRH.Error("Error encoding response", "error", err)
	}
}

func validateContext(ctx context.Context) bool {
	if ctx.Err() != nil {
		logger_i.FromContext(ctx, "RequestHandler").Warn("context error", "error", ctx.Err())
		return false
	}
	return true
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, error string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, error, httpCode))
}

// writeError maps a classified error to its status code. Unclassified details stay in the logs.
func writeError(w http.ResponseWriter, r *http.Request, id string, err error) {
	status := ragError.HTTPStatus(err)
	message := http.StatusText(status)
	var e *ragError.Error
	if errors.As(err, &e) && e.Message != "" && status < http.StatusInternalServerError {
		message = e.Message
	}
	logger_i.FromContext(r.Context(), "RequestHandler").Warn("request failed", "status", status, "kind", ragError.KindOf(err), "error", err)
	WriteErrorResponse(w, status, id, message)
}

func decodeJSON(r *http.Request, into any) error {
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.Error("Couldn't close the request body", "error", err)
		}
	}(r.Body)
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return ragError.New(ragError.ValidationFailure, "handlers.decode", "request body is not valid JSON")
	}
	return api.Validate(into)
}

func getTargetDirectory() (string, error) {
	targetDir := filepath.Join(os.TempDir(), "alexandria_uploads")
	if err := os.MkdirAll(targetDir, 0750); err != nil {
		return "", err
	}
	return targetDir, nil
}

// saveUpload copies the uploaded file to a temporary path. The caller removes it.
func saveUpload(file multipart.File, header *multipart.FileHeader) (string, error) {
	targetDir, err := getTargetDirectory()
	if err != nil {
		return "", ragError.Wrap(ragError.TransientFailure, "handlers.saveUpload", err)
	}
	filename := fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(header.Filename))
	tempFilePath := filepath.Join(targetDir, filename)
	destination, err := os.Create(tempFilePath)
	if err != nil {
		return "", ragError.Wrap(ragError.TransientFailure, "handlers.saveUpload", err)
	}
	defer destination.Close()

	if _, err := io.Copy(destination, file); err != nil {
		_ = os.Remove(tempFilePath)
		return "", ragError.Wrap(ragError.TransientFailure, "handlers.saveUpload", err)
	}
	return tempFilePath, nil
}
