package handlers

import (
	"github.com/gofiber/fiber/v2"

	"querystack/internal/services"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRoutes registers the authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/signup", h.HandleSignUp)
	authRoutes.Post("/signin", h.HandleSignIn)
	authRoutes.Post("/signin-with-oauth", h.HandleOAuth)
}

// HandleSignUp registers a user with credentials and returns a session token.
func (h *AuthHandler) HandleSignUp(c *fiber.Ctx) error {
	var params services.SignUpParams
	if err := c.BodyParser(&params); err != nil {
		return badBody()
	}
	res, err := h.authService.SignUp(c.UserContext(), params)
	if err != nil {
		return err
	}
	return created(c, res)
}

// HandleSignIn checks email and password and returns a session token.
func (h *AuthHandler) HandleSignIn(c *fiber.Ctx) error {
	var params services.SignInParams
	if err := c.BodyParser(&params); err != nil {
		return badBody()
	}
	res, err := h.authService.SignIn(c.UserContext(), params)
	if err != nil {
		return err
	}
	return ok(c, res)
}

// HandleOAuth binds a provider identity that the frontend has already verified.
func (h *AuthHandler) HandleOAuth(c *fiber.Ctx) error {
	var params services.OAuthParams
	if err := c.BodyParser(&params); err != nil {
		return badBody()
	}
	res, err := h.authService.SignInWithOAuth(c.UserContext(), params)
	if err != nil {
		return err
	}
	return ok(c, res)
}
