package handlers

import (
	"github.com/gofiber/fiber/v2"

	"querystack/internal/services"
)

// UserHandler serves profiles and per-user content listings.
type UserHandler struct {
	users *services.UserService
	tags  *services.TagService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *services.UserService, tags *services.TagService) *UserHandler {
	return &UserHandler{users: users, tags: tags}
}

// RegisterRoutes registers the user routes.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	u := router.Group("/users")
	u.Get("/", h.HandleList)
	u.Put("/me", h.HandleUpdateProfile)
	u.Get("/:id", h.HandleGet)
	u.Get("/:id/questions", h.HandleQuestions)
	u.Get("/:id/answers", h.HandleAnswers)
	u.Get("/:id/tags", h.HandleTags)
}

// HandleList returns one page of users.
func (h *UserHandler) HandleList(c *fiber.Ctx) error {
	var params services.ListUsersParams
	if err := c.QueryParser(&params); err != nil {
		return badBody()
	}
	page, err := h.users.List(c.UserContext(), params)
	if err != nil {
		return err
	}
	return ok(c, page)
}

// HandleGet retrieves a user with their question and answer totals.
func (h *UserHandler) HandleGet(c *fiber.Ctx) error {
	profile, err := h.users.Get(c.UserContext(), services.UserIDParams{UserID: c.Params("id")})
	if err != nil {
		return err
	}
	return ok(c, profile)
}

// HandleQuestions returns one page of a user's questions.
func (h *UserHandler) HandleQuestions(c *fiber.Ctx) error {
	params, err := h.contentParams(c)
	if err != nil {
		return err
	}
	page, err := h.users.Questions(c.UserContext(), params)
	if err != nil {
		return err
	}
	return ok(c, page)
}

// HandleAnswers returns one page of a user's answers.
func (h *UserHandler) HandleAnswers(c *fiber.Ctx) error {
	params, err := h.contentParams(c)
	if err != nil {
		return err
	}
	page, err := h.users.Answers(c.UserContext(), params)
	if err != nil {
		return err
	}
	return ok(c, page)
}

// HandleTags returns the tags a user asks about most.
func (h *UserHandler) HandleTags(c *fiber.Ctx) error {
	tags, err := h.tags.UserTags(c.UserContext(), services.UserIDParams{UserID: c.Params("id")})
	if err != nil {
		return err
	}
	return ok(c, tags)
}

// HandleUpdateProfile updates the caller's profile.
func (h *UserHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var params services.UpdateProfileParams
	if err := c.BodyParser(&params); err != nil {
		return badBody()
	}
	user, err := h.users.UpdateProfile(c.UserContext(), params)
	if err != nil {
		return err
	}
	return ok(c, user)
}

func (h *UserHandler) contentParams(c *fiber.Ctx) (services.UserContentParams, error) {
	var params services.UserContentParams
	if err := c.QueryParser(&params); err != nil {
		return params, badBody()
	}
	params.UserID = c.Params("id")
	return params, nil
}
