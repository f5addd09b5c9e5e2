package handlers

import (
	"github.com/gofiber/fiber/v2"

	"querystack/internal/services"
)

// TagHandler handles HTTP requests for tags.
type TagHandler struct {
	tags *services.TagService
}

// NewTagHandler creates a new TagHandler.
func NewTagHandler(tags *services.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

// RegisterRoutes registers the tag routes.
func (h *TagHandler) RegisterRoutes(router fiber.Router) {
	t := router.Group("/tags")
	t.Get("/", h.HandleList)
	t.Get("/top", h.HandleTop)
	t.Get("/:id/questions", h.HandleQuestions)
}

// HandleList returns one page of tags.
func (h *TagHandler) HandleList(c *fiber.Ctx) error {
	var params services.ListTagsParams
	if err := c.QueryParser(&params); err != nil {
		return badBody()
	}
	page, err := h.tags.List(c.UserContext(), params)
	if err != nil {
		return err
	}
	return ok(c, page)
}

// HandleTop returns the most used tags.
func (h *TagHandler) HandleTop(c *fiber.Ctx) error {
	tags, err := h.tags.Top(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, tags)
}

// HandleQuestions returns a tag with one page of its questions.
func (h *TagHandler) HandleQuestions(c *fiber.Ctx) error {
	var params services.TagQuestionsParams
	if err := c.QueryParser(&params); err != nil {
		return badBody()
	}
	params.TagID = c.Params("id")
	res, err := h.tags.Questions(c.UserContext(), params)
	if err != nil {
		return err
	}
	return ok(c, res)
}
