// Package validation implements the gate every mutating operation and
// parameterized read passes before touching the store: schema validation
// with defaults, session resolution and a store liveness check.
package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"querystack/internal/apperror"
	"querystack/internal/auth"
)

// Defaulter is implemented by parameter types that fill in omitted fields
// before validation.
type Defaulter interface {
	ApplyDefaults()
}

// Pinger checks the entity store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Gate validates input, resolves the caller and checks the store.
type Gate struct {
	validate *validator.Validate
	oracle   auth.SessionOracle
	store    Pinger
}

// Result is what a passed gate hands to the operation.
type Result[T any] struct {
	Params  T
	Session *auth.Session
}

func NewGate(oracle auth.SessionOracle, store Pinger) *Gate {
	return &Gate{validate: NewValidator(), oracle: oracle, store: store}
}

// Check runs params through the gate. With authorize set, a request
// without a session fails with Unauthorized.
func Check[T any](ctx context.Context, g *Gate, params T, authorize bool) (*Result[T], error) {
	if d, ok := any(&params).(Defaulter); ok {
		d.ApplyDefaults()
	}
	if err := g.Struct(params); err != nil {
		return nil, err
	}

	session, err := g.oracle.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if authorize && session == nil {
		return nil, apperror.Unauthorized()
	}

	if err := g.store.Ping(ctx); err != nil {
		return nil, apperror.Unavailable("Database is unavailable")
	}
	return &Result[T]{Params: params, Session: session}, nil
}

// Struct validates v and converts failures to field-level details keyed by
// JSON field name.
func (g *Gate) Struct(v any) error {
	err := g.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	details := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		field := fieldPath(fe)
		details[field] = append(details[field], message(fe))
	}
	return apperror.Validation(details)
}

var (
	usernamePattern      = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	oauthUsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
	specialPattern       = regexp.MustCompile("[`!@#$%^&*()_\\-+=\\[\\]{};':\"\\\\|,.<>/?~ ]")
)

// NewValidator returns a validator that reports JSON field names and knows
// the custom tags used by operation parameters.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("oauthusername", func(fl validator.FieldLevel) bool {
		return oauthUsernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") &&
			strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") &&
			strings.ContainsAny(s, "0123456789") &&
			specialPattern.MatchString(s)
	})
	_ = v.RegisterValidation("image", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if strings.HasPrefix(s, "data:image/") {
			return true
		}
		return v.Var(s, "url") == nil
	})
	return v
}

// fieldPath drops the top-level struct name and embedded struct names:
// "GetQuestions.Pagination.pageSize" becomes "pageSize" while nested
// objects keep their prefix ("user.email").
func fieldPath(fe validator.FieldError) string {
	segments := strings.Split(fe.Namespace(), ".")
	if len(segments) <= 1 {
		return fe.Field()
	}
	kept := make([]string, 0, len(segments)-1)
	for _, seg := range segments[1:] {
		if seg != "" && unicode.IsUpper(rune(seg[0])) {
			continue
		}
		kept = append(kept, seg)
	}
	if len(kept) == 0 {
		return fe.Field()
	}
	return strings.Join(kept, ".")
}

func message(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at most %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "url", "http_url":
		return "must be a valid URL"
	case "image":
		return "must be a valid URL or base64 image"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.Join(strings.Fields(fe.Param()), ", "))
	case "username":
		return "can only contain letters, numbers, underscores and hyphens"
	case "oauthusername":
		return "can only contain letters, numbers, underscores, hyphens and dots"
	case "password":
		return "must contain an uppercase letter, a lowercase letter, a number and a special character"
	case "notblank":
		return "must not be blank"
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}
