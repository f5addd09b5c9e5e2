package handlers

import (
	"github.com/gofiber/fiber/v2"

	"querystack/internal/services"
)

// VoteHandler handles HTTP requests for votes.
type VoteHandler struct {
	votes *services.VoteService
}

// NewVoteHandler creates a new VoteHandler.
func NewVoteHandler(votes *services.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

// RegisterRoutes registers the vote routes.
func (h *VoteHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/votes", h.HandleToggle)
	router.Get("/votes", h.HandleHasVoted)
}

// HandleToggle casts, withdraws or switches the caller's vote and returns
// the target's fresh tallies.
func (h *VoteHandler) HandleToggle(c *fiber.Ctx) error {
	var params services.VoteParams
	if err := c.BodyParser(&params); err != nil {
		return badBody()
	}
	res, err := h.votes.Toggle(c.UserContext(), params)
	if err != nil {
		return err
	}
	return ok(c, res)
}

// HandleHasVoted reports the caller's vote on a target.
func (h *VoteHandler) HandleHasVoted(c *fiber.Ctx) error {
	var params services.HasVotedParams
	if err := c.QueryParser(&params); err != nil {
		return badBody()
	}
	status, err := h.votes.HasVoted(c.UserContext(), params)
	if err != nil {
		return err
	}
	return ok(c, status)
}
