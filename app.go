package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"querystack/internal/ai"
	"querystack/internal/auth"
	"querystack/internal/cache"
	"querystack/internal/events"
	"querystack/internal/handlers"
	"querystack/internal/middleware"
	"querystack/internal/repositories"
	"querystack/internal/services"
	"querystack/internal/storage"
	"querystack/internal/validation"
)

// appDeps are the long-lived collaborators the HTTP app is built from.
type appDeps struct {
	Store     *repositories.GORMStore
	Tokens    *auth.TokenService
	Cache     cache.Cache
	Publisher events.Publisher
	Generator ai.Generator
	Uploads   *storage.LocalStore
	UploadURL string
	CacheTTL  time.Duration
	Logger    *zap.Logger
}

// newApp wires services and handlers into a Fiber app.
func newApp(d appDeps) *fiber.App {
	deps := services.Deps{
		Store:     d.Store,
		Gate:      validation.NewGate(auth.ContextOracle{}, d.Store),
		Cache:     d.Cache,
		Publisher: d.Publisher,
		Logger:    d.Logger,
		CacheTTL:  d.CacheTTL,
	}

	questionService := services.NewQuestionService(deps)
	answerService := services.NewAnswerService(deps)
	collectionService := services.NewCollectionService(deps)
	tagService := services.NewTagService(deps)

	app := fiber.New(fiber.Config{
		AppName:      "querystack",
		ErrorHandler: handlers.ErrorHandler(d.Logger),
		BodyLimit:    8 * 1024 * 1024,
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(d.Logger))
	app.Use(middleware.Session(d.Tokens, d.Logger))

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		status, database := "healthy", "connected"
		code := fiber.StatusOK
		if err := d.Store.Ping(ctx); err != nil {
			status, database = "degraded", "unavailable"
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status":   status,
			"time":     time.Now().Format(time.RFC3339),
			"database": database,
		})
	})

	if d.Uploads != nil {
		app.Static(d.UploadURL, d.Uploads.Dir())
	}

	// --- API Routes ---
	api := app.Group("/api")
	handlers.NewAuthHandler(services.NewAuthService(deps, d.Tokens)).RegisterRoutes(api)
	handlers.NewUserHandler(services.NewUserService(deps), tagService).RegisterRoutes(api)
	handlers.NewQuestionHandler(questionService, answerService, collectionService).RegisterRoutes(api)
	handlers.NewVoteHandler(services.NewVoteService(deps)).RegisterRoutes(api)
	handlers.NewTagHandler(tagService).RegisterRoutes(api)
	handlers.NewAIHandler(services.NewAIService(deps, d.Generator)).RegisterRoutes(api)
	if d.Uploads != nil {
		handlers.NewUploadHandler(d.Uploads, d.Logger).RegisterRoutes(api)
	}

	return app
}
