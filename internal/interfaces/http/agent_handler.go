package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/metrologia-api/internal/application/dto"
	"github.com/jhoicas/metrologia-api/internal/application/usecase"
)

// AgentHandler maneja el registro de agentes de inspección.
type AgentHandler struct {
	uc *usecase.AgentUseCase
}

// NewAgentHandler construye el handler.
func NewAgentHandler(uc *usecase.AgentUseCase) *AgentHandler {
	return &AgentHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar agente
// @Tags         agents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateAgentRequest  true  "Datos del agente"
// @Success      201   {object}  dto.AgentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/agents [post]
func (h *AgentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateAgentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener agente
// @Tags         agents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del agente"
// @Success      200  {object}  dto.AgentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/agents/{id} [get]
func (h *AgentHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar agentes
// @Tags         agents
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200  {array}  dto.AgentResponse
// @Router       /api/agents [get]
func (h *AgentHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	out, err := h.uc.List(c.UserContext(), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
