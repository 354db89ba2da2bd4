package routes

import (
	"peer-match/internal/delivery/http/handler"
	"peer-match/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
)

// Deps bundles the wired handlers the route tree needs; construction
// happens in the app container.
type Deps struct {
	Auth    *middleware.AuthMiddleware
	Profile *handler.ProfileHandler
	Match   *handler.MatchHandler
}

func Register(app *fiber.App, deps Deps) {
	if app == nil {
		return
	}

	handler.NewHealthHandler().RegisterRoutes(app)

	api := app.Group("/api/v1", deps.Auth.Middleware())
	deps.Profile.RegisterRoutes(api)
	deps.Match.RegisterRoutes(api)
}
