package httpx

import (
	"errors"
	"net/http"

	"github.com/contractor-desk/contractor-desk/internal/shared"
)

// RespondError maps desk errors to RFC7807 responses.
func RespondError(w http.ResponseWriter, err error) {
	var (
		verr *shared.ValidationError
		serr *shared.ServerError
		nerr *shared.NetworkError
	)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.As(err, &verr):
		Problem(w, http.StatusBadRequest, "Validation Failed", verr.Error())
	case errors.Is(err, shared.ErrBusy):
		Problem(w, http.StatusConflict, "Busy", err.Error())
	case errors.Is(err, shared.ErrCSRFTokenMissing), errors.Is(err, shared.ErrCSRFTokenMismatch):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrSessionExpired):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.As(err, &serr), errors.As(err, &nerr):
		Problem(w, http.StatusBadGateway, "Backend Error", shared.UserMessage(err, "records API call failed"))
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
