package handlers

import (
	"log/slog"
	"net/http"

	appErrors "github.com/aaravmahajanofficial/storefront-cache/internal/errors"
	"github.com/aaravmahajanofficial/storefront-cache/internal/utils/response"
)

// respond writes data on success. A failed refresh that still produced data
// is served with a 200 and the error alongside; anything else is an error
// response.
func respond(w http.ResponseWriter, logger *slog.Logger, data any, hasData bool, err error) {
	switch {
	case err == nil:
		response.Success(w, http.StatusOK, data)
	case hasData && appErrors.IsFetchFailed(err):
		logger.Warn("Serving cached data after a failed fetch", slog.String("error", err.Error()))
		response.Partial(w, data, err)
	default:
		if appErrors.IsNotFound(err) {
			logger.Info("Resource not found", slog.String("error", err.Error()))
		} else {
			logger.Error("Request failed", slog.String("error", err.Error()))
		}
		response.Error(w, err)
	}
}
