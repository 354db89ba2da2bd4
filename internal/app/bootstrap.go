package app

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"peer-match/internal/config"
	"peer-match/internal/delivery/http/handler"
	"peer-match/internal/delivery/http/middleware"
	"peer-match/internal/delivery/http/routes"
	"peer-match/internal/pkg/jwt"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// Bootstrap builds the dependency container and the fully-routed HTTP app.
// The returned cleanup releases the container's resources.
func Bootstrap(cfg config.Config) (*App, func() error, error) {
	container, err := NewContainer(cfg)
	if err != nil {
		return nil, nil, err
	}

	f := fiber.New(fiber.Config{
		AppName:      cfg.App.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	accessLogger := log.New(os.Stdout, "", log.LstdFlags)
	f.Use(middleware.NewAccessLogMiddleware(accessLogger).Middleware())
	f.Use(middleware.NewErrorMiddleware().Middleware())

	jwtSvc := jwt.NewHMACService(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiresIn)

	routes.Register(f, routes.Deps{
		Auth:    middleware.NewAuthMiddleware(jwtSvc),
		Profile: handler.NewProfileHandler(container.Profiles),
		Match:   handler.NewMatchHandler(container.Matching),
	})

	app := &App{Fiber: f, Container: container}
	return app, container.Close, nil
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
