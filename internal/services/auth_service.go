package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"querystack/internal/apperror"
	"querystack/internal/auth"
	"querystack/internal/events"
	"querystack/internal/models"
	"querystack/internal/repositories"
	"querystack/internal/validation"
)

const (
	ProviderCredentials = "credentials"
	bcryptCost          = 12
)

type SignUpParams struct {
	Name     string `json:"name" validate:"required,min=1,max=50"`
	Username string `json:"username" validate:"required,min=3,max=20,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=20,password"`
}

type SignInParams struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=20"`
}

type OAuthUser struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required,min=3,max=50,oauthusername"`
	Email    string `json:"email" validate:"required,email"`
	Image    string `json:"image" validate:"omitempty,url"`
}

type OAuthParams struct {
	Provider          string    `json:"provider" validate:"required,oneof=google github"`
	ProviderAccountID string    `json:"providerAccountId" validate:"required"`
	User              OAuthUser `json:"user"`
}

// AuthResult is a signed session token and the user it belongs to.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthService handles sign-up and sign-in and issues session tokens.
type AuthService struct {
	Deps
	tokens *auth.TokenService
}

func NewAuthService(deps Deps, tokens *auth.TokenService) *AuthService {
	return &AuthService{Deps: deps.withDefaults(), tokens: tokens}
}

// SignUp creates the user and its credentials account in one unit of work.
func (s *AuthService) SignUp(ctx context.Context, params SignUpParams) (*AuthResult, error) {
	res, err := validation.Check(ctx, s.Gate, params, false)
	if err != nil {
		return nil, err
	}
	p := res.Params
	email := strings.ToLower(strings.TrimSpace(p.Email))

	hashed, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var user *models.User
	err = s.Store.Transaction(ctx, func(tx repositories.Store) error {
		if _, err := tx.Users().GetByEmail(ctx, email); err == nil {
			return apperror.ValidationFailed("email", "User already exists with this email")
		} else if !isNotFound(err) {
			return err
		}
		if _, err := tx.Users().GetByUsername(ctx, p.Username); err == nil {
			return apperror.ValidationFailed("username", "Username is already taken")
		} else if !isNotFound(err) {
			return err
		}

		u := &models.User{
			Name:     strings.TrimSpace(p.Name),
			Username: p.Username,
			Email:    email,
			Image:    defaultAvatar(p.Username),
		}
		if err := tx.Users().Create(ctx, u); err != nil {
			return err
		}
		if err := tx.Accounts().Create(ctx, &models.Account{
			UserID:            u.ID,
			Name:              u.Name,
			Provider:          ProviderCredentials,
			ProviderAccountID: email,
			Password:          string(hashed),
		}); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		s.aborted("sign up", err, zap.String("username", p.Username))
		return nil, err
	}

	s.Logger.Info("user signed up", zap.String("user_id", user.ID), zap.String("provider", ProviderCredentials))
	s.committed(ctx, events.New(events.UserSignedUp, user.ID, map[string]string{"provider": ProviderCredentials}))
	return s.issue(user)
}

// SignIn checks the password of the credentials account bound to email.
func (s *AuthService) SignIn(ctx context.Context, params SignInParams) (*AuthResult, error) {
	res, err := validation.Check(ctx, s.Gate, params, false)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(res.Params.Email))

	user, err := s.Store.Users().GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	account, err := s.Store.Accounts().GetByProvider(ctx, ProviderCredentials, email)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(res.Params.Password)); err != nil {
		s.Logger.Info("sign in rejected", zap.String("user_id", user.ID))
		return nil, apperror.Unauthorized()
	}
	return s.issue(user)
}

// SignInWithOAuth binds a provider identity to a user, creating either on
// first login, and refreshes the user's name and image.
func (s *AuthService) SignInWithOAuth(ctx context.Context, params OAuthParams) (*AuthResult, error) {
	res, err := validation.Check(ctx, s.Gate, params, false)
	if err != nil {
		return nil, err
	}
	p := res.Params
	email := strings.ToLower(strings.TrimSpace(p.User.Email))

	var user *models.User
	var created bool
	err = s.Store.Transaction(ctx, func(tx repositories.Store) error {
		u, err := tx.Users().GetByEmail(ctx, email)
		switch {
		case isNotFound(err):
			username := slug.Make(p.User.Username)
			if _, err := tx.Users().GetByUsername(ctx, username); err == nil {
				return apperror.ValidationFailed("username", "Username is already taken")
			} else if !isNotFound(err) {
				return err
			}
			u = &models.User{
				Name:     p.User.Name,
				Username: username,
				Email:    email,
				Image:    p.User.Image,
			}
			if u.Image == "" {
				u.Image = defaultAvatar(u.Username)
			}
			if err := tx.Users().Create(ctx, u); err != nil {
				return err
			}
			created = true
		case err != nil:
			return err
		default:
			fields := map[string]any{}
			if u.Name != p.User.Name {
				fields["name"] = p.User.Name
			}
			if p.User.Image != "" && u.Image != p.User.Image {
				fields["image"] = p.User.Image
			}
			if len(fields) > 0 {
				if u, err = tx.Users().Update(ctx, u.ID, fields); err != nil {
					return err
				}
			}
		}

		_, err = tx.Accounts().GetByProvider(ctx, p.Provider, p.ProviderAccountID)
		if isNotFound(err) {
			err = tx.Accounts().Create(ctx, &models.Account{
				UserID:            u.ID,
				Name:              p.User.Name,
				Image:             p.User.Image,
				Provider:          p.Provider,
				ProviderAccountID: p.ProviderAccountID,
			})
		}
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		s.aborted("oauth sign in", err, zap.String("provider", p.Provider))
		return nil, err
	}

	if created {
		s.Logger.Info("user signed up", zap.String("user_id", user.ID), zap.String("provider", p.Provider))
		s.committed(ctx, events.New(events.UserSignedUp, user.ID, map[string]string{"provider": p.Provider}))
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(auth.Session{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Image:  user.Image,
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func defaultAvatar(seed string) string {
	return "https://api.dicebear.com/7.x/initials/svg?seed=" + url.QueryEscape(seed)
}
