package patient

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediclass/mediclass/internal/domain/triage"
	"github.com/mediclass/mediclass/internal/platform/apperr"
	"github.com/mediclass/mediclass/internal/platform/auth"
	"github.com/mediclass/mediclass/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the patient endpoints on an authenticated group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients", h.List)
	api.GET("/patients/:cpf", h.Get)
	api.POST("/patients/:cpf/export", h.Export)

	api.POST("/patients", h.Register, auth.RequireCapability(auth.CapRegister))
	api.POST("/patients/:cpf/triage", h.Triage, auth.RequireCapability(auth.CapTriage))
	api.POST("/patients/:cpf/exams", h.RecordExam, auth.RequireCapability(auth.CapRecordExam))
}

// SessionFrom returns the session attached by the auth middleware.
func SessionFrom(c echo.Context) (auth.Session, error) {
	s, ok := auth.SessionFromContext(c.Request().Context())
	if !ok {
		return auth.Session{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return s, nil
}

func (h *Handler) Register(c echo.Context) error {
	sess, err := SessionFrom(c)
	if err != nil {
		return err
	}
	var r Registration
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Register(c.Request().Context(), sess, r)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context(), c.Param("cpf"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithLinks(c.Request().URL.Path))
}

func (h *Handler) Triage(c echo.Context) error {
	sess, err := SessionFrom(c)
	if err != nil {
		return err
	}
	var in triage.Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.Triage(c.Request().Context(), sess, c.Param("cpf"), in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, res)
}

type recordExamRequest struct {
	Exam   string `json:"exam"`
	Result string `json:"result"`
}

func (h *Handler) RecordExam(c echo.Context) error {
	sess, err := SessionFrom(c)
	if err != nil {
		return err
	}
	var req recordExamRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.RecordExam(c.Request().Context(), sess, c.Param("cpf"), req.Exam, req.Result)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) Export(c echo.Context) error {
	stored, err := h.svc.Export(c.Request().Context(), c.Param("cpf"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, stored)
}
