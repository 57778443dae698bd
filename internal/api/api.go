package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/uncommithq/uncommit/backend/internal/auth"
	"github.com/uncommithq/uncommit/backend/internal/bus"
	"github.com/uncommithq/uncommit/backend/internal/config"
	"github.com/uncommithq/uncommit/backend/internal/db"
	"github.com/uncommithq/uncommit/backend/internal/handlers"
	"github.com/uncommithq/uncommit/backend/internal/store"
)

type Deps struct {
	DB  *db.DB
	Bus bus.Bus
	// Runner executes pipeline jobs inline when Bus is nil.
	Runner handlers.PipelineRunner
}

func New(cfg config.Config, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "uncommit-api",
		IdleTimeout:  60 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// Baseline middleware.
	app.Use(requestid.New())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			if strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:") {
				return true
			}
			return cfg.AppBaseURL != "" && origin == cfg.AppBaseURL
		},
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
	}))
	app.Use(logger.New())

	var st *store.Store
	if deps.DB != nil && deps.DB.Pool != nil {
		st = store.New(deps.DB.Pool)
	}

	// Routes.
	app.Get("/health", handlers.Health())
	app.Get("/ready", handlers.Ready(deps.DB))

	webhooks := handlers.NewGitHubWebhooksHandler(cfg, st, deps.Bus, deps.Runner)
	app.Post("/webhooks/github", webhooks.Receive())

	kofi := handlers.NewKofiWebhookHandler(cfg, st)
	app.Post("/webhooks/kofi", kofi.Receive())

	ghOAuth := handlers.NewGitHubOAuthHandler(cfg, st)
	authGroup := app.Group("/auth")
	authGroup.Get("/github/login/start", ghOAuth.LoginStart())
	authGroup.Get("/github/callback", ghOAuth.Callback())
	app.Get("/me", auth.RequireAuth(cfg.JWTSecret), ghOAuth.Me())

	projects := handlers.NewProjectsHandler(cfg, st)
	app.Post("/projects", auth.RequireAuth(cfg.JWTSecret), projects.Save())
	app.Get("/projects/mine", auth.RequireAuth(cfg.JWTSecret), projects.Mine())
	app.Get("/pricing", projects.Pricing())

	posts := handlers.NewPostsHandler(st)
	app.Get("/projects/:id/posts", auth.RequireAuth(cfg.JWTSecret), posts.ListForProject())
	app.Post("/projects/:id/posts", auth.RequireAuth(cfg.JWTSecret), posts.Create())
	app.Get("/posts/:id", auth.RequireAuth(cfg.JWTSecret), posts.Get())
	app.Patch("/posts/:id", auth.RequireAuth(cfg.JWTSecret), posts.Update())
	app.Post("/posts/:id/publish", auth.RequireAuth(cfg.JWTSecret), posts.Publish())
	app.Post("/posts/:id/unpublish", auth.RequireAuth(cfg.JWTSecret), posts.Unpublish())
	app.Delete("/posts/:id", auth.RequireAuth(cfg.JWTSecret), posts.Delete())

	public := handlers.NewPublicHandler(st)
	app.Get("/p/:slug", public.ProjectFeed())
	app.Get("/p/:slug/:postSlug", public.Post())

	return app
}
