package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/metrologia-api/internal/application/dto"
	"github.com/jhoicas/metrologia-api/internal/application/inspection"
	"github.com/jhoicas/metrologia-api/internal/application/query"
	"github.com/jhoicas/metrologia-api/internal/domain"
	pkgjwt "github.com/jhoicas/metrologia-api/pkg/jwt"
)

// ControlHandler expone el ciclo de vida de los controles.
type ControlHandler struct {
	uc    *inspection.ControlUseCase
	query *query.ControlQuery
}

// NewControlHandler construye el handler.
func NewControlHandler(uc *inspection.ControlUseCase, q *query.ControlQuery) *ControlHandler {
	return &ControlHandler{uc: uc, query: q}
}

// Create godoc
// @Summary      Planificar control
// @Tags         controls
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateControlRequest  true  "Datos del control"
// @Success      201   {object}  dto.ControlResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/controls [post]
func (h *ControlHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateControlRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	// Un inspector solo planifica controles para sí mismo.
	if agentID, scoped := inspectorScope(c); scoped {
		if in.AgentID == "" {
			in.AgentID = agentID
		}
		if agentID == "" || in.AgentID != agentID {
			return writeError(c, fmt.Errorf("%w: un inspector solo planifica sus propios controles", domain.ErrForbidden))
		}
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar controles
// @Tags         controls
// @Produce      json
// @Security     BearerAuth
// @Param        company_id  query  string  false  "Empresa"
// @Param        agent_id    query  string  false  "Agente"
// @Param        status      query  string  false  "Estado"
// @Param        from        query  string  false  "Desde (YYYY-MM-DD)"
// @Param        to          query  string  false  "Hasta (YYYY-MM-DD)"
// @Param        limit       query  int     false  "Límite"  default(20)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ControlListResponse
// @Router       /api/controls [get]
func (h *ControlHandler) List(c *fiber.Ctx) error {
	var in dto.ControlListRequest
	if err := c.QueryParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.List(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Stats godoc
// @Summary      Estadísticas de controles
// @Tags         controls
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.ControlStatsResponse
// @Router       /api/controls/stats [get]
func (h *ControlHandler) Stats(c *fiber.Ctx) error {
	out, err := h.uc.Stats(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Detalle de un control
// @Description  Incluye resumen de empresa, agente e instrumentos.
// @Tags         controls
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del control"
// @Success      200  {object}  dto.ControlDetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/controls/{id} [get]
func (h *ControlHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.query.Detail(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Start godoc
// @Summary      Iniciar control
// @Tags         controls
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del control"
// @Success      200  {object}  dto.ControlResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/controls/{id}/start [post]
func (h *ControlHandler) Start(c *fiber.Ctx) error {
	if err := h.ensureAssigned(c); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Start(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Complete godoc
// @Summary      Finalizar control
// @Description  Fija el resultado y propaga la conformidad a la empresa.
// @Tags         controls
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                       true  "ID del control"
// @Param        body  body  dto.CompleteControlRequest  true  "Resultado"
// @Success      200  {object}  dto.ControlResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/controls/{id}/complete [post]
func (h *ControlHandler) Complete(c *fiber.Ctx) error {
	var in dto.CompleteControlRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.ensureAssigned(c); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Complete(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AdminUpdate godoc
// @Summary      Modificación administrativa de un control
// @Tags         controls
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                          true  "ID del control"
// @Param        body  body  dto.AdminUpdateControlRequest  true  "Campos a modificar"
// @Success      200  {object}  dto.ControlResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/controls/{id} [put]
func (h *ControlHandler) AdminUpdate(c *fiber.Ctx) error {
	var in dto.AdminUpdateControlRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.AdminUpdate(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar control
// @Tags         controls
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del control"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/controls/{id} [delete]
func (h *ControlHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), GetUserID(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// inspectorScope devuelve el agente del token y si la petición queda limitada a él.
func inspectorScope(c *fiber.Ctx) (string, bool) {
	return GetAgentID(c), GetRole(c) == pkgjwt.RoleInspector
}

// ensureAssigned limita a un inspector a los controles de su agente.
func (h *ControlHandler) ensureAssigned(c *fiber.Ctx) error {
	agentID, scoped := inspectorScope(c)
	if !scoped {
		return nil
	}
	return h.uc.EnsureAssigned(c.UserContext(), c.Params("id"), agentID)
}
