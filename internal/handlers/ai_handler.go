package handlers

import (
	"github.com/gofiber/fiber/v2"

	"querystack/internal/services"
)

// AIHandler handles HTTP requests for AI answer drafts.
type AIHandler struct {
	ai *services.AIService
}

// NewAIHandler creates a new AIHandler.
func NewAIHandler(ai *services.AIService) *AIHandler {
	return &AIHandler{ai: ai}
}

// RegisterRoutes registers the AI routes.
func (h *AIHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/ai/answers", h.HandleGenerateAnswer)
}

// HandleGenerateAnswer returns a markdown answer draft as data.
func (h *AIHandler) HandleGenerateAnswer(c *fiber.Ctx) error {
	var params services.GenerateAnswerParams
	if err := c.BodyParser(&params); err != nil {
		return badBody()
	}
	text, err := h.ai.GenerateAnswer(c.UserContext(), params)
	if err != nil {
		return err
	}
	return ok(c, text)
}
