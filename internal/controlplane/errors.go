package controlplane

import (
	"errors"
	"net/http"

	"github.com/promodesk/campaignd/internal/backend"
	"github.com/promodesk/campaignd/internal/campaign"
	"github.com/promodesk/campaignd/internal/extract"
	"github.com/promodesk/campaignd/internal/generate"
)

// statusForError maps pipeline errors to HTTP status codes. Each stage
// failure keeps its own class so callers can tell where creation stopped.
func statusForError(err error) int {
	switch {
	case errors.Is(err, extract.ErrExtraction):
		return http.StatusBadRequest
	case errors.Is(err, generate.ErrDependencyResolution):
		return http.StatusBadRequest
	case errors.Is(err, campaign.ErrBriefNotReady):
		return http.StatusUnprocessableEntity
	case errors.Is(err, backend.ErrBadRequest):
		return http.StatusBadGateway
	case errors.Is(err, backend.ErrBackendUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
