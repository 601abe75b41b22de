package history

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediclass/mediclass/internal/platform/apperr"
)

type Handler struct {
	ledger Ledger
}

func NewHandler(ledger Ledger) *Handler {
	return &Handler{ledger: ledger}
}

// RegisterRoutes mounts the read-only history endpoints on an authenticated
// group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:cpf/history", h.Get)
	api.GET("/patients/:cpf/history/verify", h.Verify)
}

// HistoryResponse is the ledger of one patient.
type HistoryResponse struct {
	PatientID string   `json:"patient_id"`
	Entries   []Entry  `json:"entries"`
	Lines     []string `json:"lines"`
}

// VerifyResponse reports the outcome of a chain check.
type VerifyResponse struct {
	PatientID string `json:"patient_id"`
	Valid     bool   `json:"valid"`
	Entries   int    `json:"entries"`
	BrokenAt  *int   `json:"broken_at,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

func (h *Handler) Get(c echo.Context) error {
	cpf := c.Param("cpf")
	entries, err := h.ledger.ReadAll(c.Request().Context(), cpf)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, HistoryResponse{PatientID: cpf, Entries: entries, Lines: Lines(entries)})
}

func (h *Handler) Verify(c echo.Context) error {
	cpf := c.Param("cpf")
	ctx := c.Request().Context()
	entries, err := h.ledger.ReadAll(ctx, cpf)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	resp := VerifyResponse{PatientID: cpf, Valid: true, Entries: len(entries)}
	var te *TamperError
	if err := Verify(entries); errors.As(err, &te) {
		resp.Valid = false
		resp.BrokenAt = &te.Seq
		resp.Reason = te.Reason
	}
	return c.JSON(http.StatusOK, resp)
}
