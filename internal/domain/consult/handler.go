package consult

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediclass/mediclass/internal/domain/patient"
	"github.com/mediclass/mediclass/internal/platform/apperr"
	"github.com/mediclass/mediclass/internal/platform/auth"
	"github.com/mediclass/mediclass/internal/platform/document"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the diagnostician endpoints.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	diagnose := auth.RequireCapability(auth.CapDiagnose)
	api.POST("/patients/:cpf/consultations", h.Consult, diagnose)
	api.POST("/patients/:cpf/exam-requests", h.RequestExam, diagnose)
	api.POST("/patients/:cpf/prescriptions", h.Prescribe, diagnose)
	api.POST("/patients/:cpf/certificates", h.Certificate, diagnose)
}

func (h *Handler) Consult(c echo.Context) error {
	sess, err := patient.SessionFrom(c)
	if err != nil {
		return err
	}
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.Consult(c.Request().Context(), sess, c.Param("cpf"), req)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	status := http.StatusOK
	if res.Outcome.Complete {
		status = http.StatusCreated
	}
	return c.JSON(status, res)
}

func (h *Handler) RequestExam(c echo.Context) error {
	sess, err := patient.SessionFrom(c)
	if err != nil {
		return err
	}
	e, err := h.svc.RequestExam(c.Request().Context(), sess, c.Param("cpf"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, e)
}

type prescriptionRequest struct {
	Items []document.PrescriptionItem `json:"items"`
}

func (h *Handler) Prescribe(c echo.Context) error {
	sess, err := patient.SessionFrom(c)
	if err != nil {
		return err
	}
	var req prescriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.Prescribe(c.Request().Context(), sess, c.Param("cpf"), req.Items)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) Certificate(c echo.Context) error {
	sess, err := patient.SessionFrom(c)
	if err != nil {
		return err
	}
	res, err := h.svc.AttendanceCertificate(c.Request().Context(), sess, c.Param("cpf"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, res)
}
