package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/metrologia-api/internal/application/usecase"
)

// ActivityHandler expone el log de actividad (solo administradores).
type ActivityHandler struct {
	uc *usecase.ActivityUseCase
}

// NewActivityHandler construye el handler.
func NewActivityHandler(uc *usecase.ActivityUseCase) *ActivityHandler {
	return &ActivityHandler{uc: uc}
}

// List godoc
// @Summary      Log de actividad
// @Tags         activity
// @Produce      json
// @Security     BearerAuth
// @Param        entity_type  query  string  false  "CONTROL | FACTURE | COMPANY | AGENT"
// @Param        entity_id    query  string  false  "ID de la entidad"
// @Param        limit        query  int     false  "Límite"  default(50)
// @Success      200  {array}  dto.ActivityResponse
// @Router       /api/activity [get]
func (h *ActivityHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), c.Query("entity_type"), c.Query("entity_id"), c.QueryInt("limit", 50))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
