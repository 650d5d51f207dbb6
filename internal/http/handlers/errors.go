package handlers

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/internal/models"
)

// apiError maps a service error onto an HTTP status. Unclassified errors
// become opaque 500s so internals never leak into responses.
func apiError(err error) error {
	var je *models.JobError
	if !errors.As(err, &je) {
		return huma.Error500InternalServerError("internal error", err)
	}

	switch je.Kind {
	case models.ErrorKindInvalidRequest, models.ErrorKindUnsupportedLanguage:
		return huma.Error400BadRequest(je.Message)
	case models.ErrorKindNotFound, models.ErrorKindVoiceNotFound:
		return huma.Error404NotFound(je.Message)
	case models.ErrorKindArtifactNotReady:
		return huma.Error409Conflict(je.Message)
	case models.ErrorKindBudgetExceeded:
		return huma.NewError(http.StatusPaymentRequired, je.Message)
	case models.ErrorKindQuotaExceeded:
		return huma.Error429TooManyRequests(je.Message)
	default:
		return huma.Error500InternalServerError(je.Message)
	}
}
