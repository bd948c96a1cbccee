package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"okeears-server/internal/graph"
	"okeears-server/internal/onenote"
	"okeears-server/internal/service"
	"okeears-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// writeError maps service and store errors onto HTTP statuses. Anything
// unrecognised is a 500 and gets logged.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var (
		gerr     *graph.Error
		shareErr *onenote.ShareResolutionError
	)

	switch {
	case errors.Is(err, service.ErrReadOnly):
		response.Forbidden(w, err.Error())
	case errors.Is(err, service.ErrUnknownScope), errors.Is(err, service.ErrUnsupportedResource):
		response.BadRequest(w, err.Error())
	case errors.Is(err, service.ErrGraphTokenRejected):
		response.Unauthorized(w, err.Error())
	case errors.Is(err, onenote.ErrNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, onenote.ErrAmbiguousContainer):
		response.Conflict(w, err.Error())
	case errors.As(err, &shareErr):
		logger.Warn("notebook sharing failed", zap.Error(err))
		response.BadGateway(w, err.Error())
	case errors.As(err, &gerr):
		if gerr.StatusCode == http.StatusNotFound {
			response.NotFound(w, err.Error())
			return
		}
		logger.Warn("graph request failed", zap.Error(err))
		response.BadGateway(w, err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		response.InternalError(w, "Internal server error")
	}
}

// decode reads a JSON body into req and validates it. It writes the 400
// itself and reports false on failure.
func decode(w http.ResponseWriter, r *http.Request, validate *validator.Validate, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return false
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace()+" failed "+fe.Tag())
			}
			response.BadRequest(w, strings.Join(fields, "; "))
			return false
		}
		response.BadRequest(w, err.Error())
		return false
	}
	return true
}
