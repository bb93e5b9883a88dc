package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/RealZimboGuy/flowlint/pkg/flowlint/models"
)

// MaxBodyBytes bounds request bodies. Canvases with many nodes stay well below it.
const MaxBodyBytes = 8 << 20

var ErrNotCanonicalUUID = errors.New("uuid must be in the 8-4-4-4-12 hyphenated form")

// ValidateUUID accepts only the hyphenated 36 character form. uuid.Validate
// also lets braces, urn:uuid: prefixes and bare hex through.
func ValidateUUID(s string) error {
	if len(s) != 36 {
		return ErrNotCanonicalUUID
	}
	if _, err := uuid.Parse(s); err != nil {
		return err
	}
	return nil
}

func DecodeJSONBody[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var data T
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return data, fmt.Errorf("read body error: %w", err)
	}
	defer r.Body.Close()

	if err := json.Unmarshal(body, &data); err != nil {
		return data, fmt.Errorf("json unmarshal error: %w", err)
	}
	return data, nil
}

// DecodeJSONBodyResponse is the client side counterpart of DecodeJSONBody.
func DecodeJSONBodyResponse[T any](r *http.Response) (T, error) {
	var data T
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return data, fmt.Errorf("read body error: %w", err)
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return data, fmt.Errorf("json unmarshal error: %w", err)
	}
	return data, nil
}

func WriteJSONResponse[T any](w http.ResponseWriter, status int, data T) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, status int, message string) {
	WriteJSONResponse(w, status, models.ErrorResponse{Error: message})
}
