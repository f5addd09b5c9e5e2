package services

import (
	"context"

	"go.uber.org/zap"

	"querystack/internal/events"
	"querystack/internal/models"
	"querystack/internal/repositories"
	"querystack/internal/validation"
)

type VoteParams struct {
	TargetID   string            `json:"targetId" validate:"required"`
	TargetType models.ActionType `json:"targetType" validate:"required,oneof=question answer"`
	VoteType   models.VoteType   `json:"voteType" validate:"required,oneof=upvote downvote"`
}

type HasVotedParams struct {
	TargetID   string            `json:"targetId" query:"targetId" validate:"required"`
	TargetType models.ActionType `json:"targetType" query:"targetType" validate:"required,oneof=question answer"`
}

// VoteStatus is the caller's vote on a target.
type VoteStatus struct {
	HasUpvoted   bool `json:"hasUpvoted"`
	HasDownvoted bool `json:"hasDownvoted"`
}

// VoteResult is the target's tallies after a toggle.
type VoteResult struct {
	VoteStatus
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

// VoteService toggles votes, keeping target counters equal to the vote rows.
type VoteService struct {
	Deps
}

func NewVoteService(deps Deps) *VoteService {
	return &VoteService{Deps: deps.withDefaults()}
}

func counterFor(v models.VoteType) string {
	if v == models.Upvote {
		return repositories.ColUpvotes
	}
	return repositories.ColDownvotes
}

// Toggle moves the caller's vote on the target through no-vote, upvoted
// and downvoted. Repeating the current vote removes it; the opposite vote
// switches sides. The target row stays locked for the whole transition.
func (s *VoteService) Toggle(ctx context.Context, params VoteParams) (*VoteResult, error) {
	res, err := validation.Check(ctx, s.Gate, params, true)
	if err != nil {
		return nil, err
	}
	p, voterID := res.Params, res.Session.UserID

	var result VoteResult
	var transition string
	err = s.Store.Transaction(ctx, func(tx repositories.Store) error {
		if err := lockTarget(ctx, tx, p.TargetType, p.TargetID); err != nil {
			return err
		}

		existing, err := tx.Votes().Find(ctx, voterID, p.TargetID)
		if err != nil && !isNotFound(err) {
			return err
		}

		deltas := repositories.Counters{}
		switch {
		case existing == nil:
			vote := &models.Vote{
				AuthorID:   voterID,
				ActionID:   p.TargetID,
				ActionType: p.TargetType,
				VoteType:   p.VoteType,
			}
			if err := tx.Votes().Create(ctx, vote); err != nil {
				return err
			}
			deltas[counterFor(p.VoteType)] = 1
			transition = "cast"
		case existing.VoteType == p.VoteType:
			if err := tx.Votes().Delete(ctx, existing.ID); err != nil {
				return err
			}
			deltas[counterFor(p.VoteType)] = -1
			transition = "withdrawn"
		default:
			if err := tx.Votes().UpdateType(ctx, existing.ID, p.VoteType); err != nil {
				return err
			}
			deltas[counterFor(existing.VoteType)] = -1
			deltas[counterFor(p.VoteType)] = 1
			transition = "switched"
		}

		if err := adjustTarget(ctx, tx, p.TargetType, p.TargetID, deltas); err != nil {
			return err
		}

		up, down, err := targetTallies(ctx, tx, p.TargetType, p.TargetID)
		if err != nil {
			return err
		}
		result = VoteResult{Upvotes: up, Downvotes: down}
		if transition != "withdrawn" {
			result.HasUpvoted = p.VoteType == models.Upvote
			result.HasDownvoted = p.VoteType == models.Downvote
		}
		return nil
	})
	if err != nil {
		s.aborted("toggle vote", err, zap.String("target_id", p.TargetID), zap.String("voter_id", voterID))
		return nil, err
	}

	s.Logger.Info("vote toggled",
		zap.String("target_id", p.TargetID),
		zap.String("target_type", string(p.TargetType)),
		zap.String("vote_type", string(p.VoteType)),
		zap.String("transition", transition),
	)
	s.committed(ctx, events.New(events.VoteToggled, voterID, map[string]string{
		"targetId":   p.TargetID,
		"targetType": string(p.TargetType),
		"voteType":   string(p.VoteType),
		"transition": transition,
	}))
	return &result, nil
}

// HasVoted reports the caller's current vote on the target.
func (s *VoteService) HasVoted(ctx context.Context, params HasVotedParams) (*VoteStatus, error) {
	res, err := validation.Check(ctx, s.Gate, params, true)
	if err != nil {
		return nil, err
	}
	vote, err := s.Store.Votes().Find(ctx, res.Session.UserID, res.Params.TargetID)
	if isNotFound(err) {
		return &VoteStatus{}, nil
	}
	if err != nil {
		return nil, err
	}
	if vote.ActionType != res.Params.TargetType {
		return &VoteStatus{}, nil
	}
	return &VoteStatus{
		HasUpvoted:   vote.VoteType == models.Upvote,
		HasDownvoted: vote.VoteType == models.Downvote,
	}, nil
}

func lockTarget(ctx context.Context, tx repositories.Store, t models.ActionType, id string) error {
	if t == models.ActionAnswer {
		_, err := tx.Answers().GetForUpdate(ctx, id)
		return err
	}
	_, err := tx.Questions().GetForUpdate(ctx, id)
	return err
}

func adjustTarget(ctx context.Context, tx repositories.Store, t models.ActionType, id string, deltas repositories.Counters) error {
	if t == models.ActionAnswer {
		return tx.Answers().AdjustCounters(ctx, id, deltas)
	}
	return tx.Questions().AdjustCounters(ctx, id, deltas)
}

func targetTallies(ctx context.Context, tx repositories.Store, t models.ActionType, id string) (up, down int, err error) {
	if t == models.ActionAnswer {
		a, err := tx.Answers().GetByID(ctx, id)
		if err != nil {
			return 0, 0, err
		}
		return a.Upvotes, a.Downvotes, nil
	}
	q, err := tx.Questions().GetByID(ctx, id)
	if err != nil {
		return 0, 0, err
	}
	return q.Upvotes, q.Downvotes, nil
}
