package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HTTPStatus maps an error to the status code the API reports for it.
func HTTPStatus(err error) int {
	var (
		re *RangeError
		fe *FormatError
		nf *NotFoundError
		ad *AccessDenied
	)
	switch {
	case errors.Is(err, ErrNoCurrentTriage):
		return http.StatusConflict
	case IsInvariant(err):
		return http.StatusInternalServerError
	case errors.As(err, &ad):
		return http.StatusForbidden
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &re):
		return http.StatusUnprocessableEntity
	case errors.As(err, &fe):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ToHTTP converts a service error into an echo HTTP error. Messages of errors
// that are not meant for the operator are replaced by a generic one.
func ToHTTP(err error) *echo.HTTPError {
	status := HTTPStatus(err)
	if !Surfaced(err) {
		return echo.NewHTTPError(status, "internal error").SetInternal(err)
	}
	return echo.NewHTTPError(status, err.Error()).SetInternal(err)
}
