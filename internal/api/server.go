// Package api assembles the HTTP server: echo for transport and probes,
// huma for the typed command surface.
package api

import (
	"log/slog"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bledden/tinker-voice/internal/api/handlers"
	"github.com/bledden/tinker-voice/internal/api/middleware"
	"github.com/bledden/tinker-voice/internal/app"
)

// Title is the OpenAPI title of the service.
const Title = "tinker-voice"

// NewAPIConfig returns the huma configuration shared by the server and the
// OpenAPI generator.
func NewAPIConfig(version string) huma.Config {
	cfg := huma.DefaultConfig(Title, version)
	cfg.Info.Description = "Voice-driven fine-tuning: speech, research, synthetic data, and training runs."
	return cfg
}

// Option configures route registration.
type Option func(*options)

type options struct {
	researchHold time.Duration
	trainingHold time.Duration
}

// WithWaitHolds sets how long the research and training routes that wait
// on a poll loop may keep their response open, regardless of the server's
// write timeout. Size them from the poll budget.
func WithWaitHolds(research, training time.Duration) Option {
	return func(o *options) {
		o.researchHold = research
		o.trainingHold = training
	}
}

// NewServer returns an echo instance with middleware, probes, metrics, and
// every API route registered against svc.
func NewServer(svc *app.Services, version string, log *slog.Logger, opts ...Option) (*echo.Echo, huma.API) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLog(log))
	e.Use(middleware.Recovery(log))
	e.Use(middleware.Metrics())

	health := handlers.NewHealthHandler(svc.Keys)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, NewAPIConfig(version))
	Register(api, svc, opts...)

	return e, api
}

// Register adds every command route to api.
func Register(api huma.API, svc *app.Services, opts ...Option) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	handlers.RegisterKeysRoutes(api, handlers.NewKeysHandler(svc.Keys))
	handlers.RegisterVoiceRoutes(api, handlers.NewVoiceHandler(svc.Speech))
	handlers.RegisterAgentsRoutes(api, handlers.NewAgentsHandler(svc.Agents))
	handlers.RegisterDataRoutes(api, handlers.NewDataHandler(svc.Data, svc.Training))
	handlers.RegisterResearchRoutes(api,
		handlers.NewResearchHandler(svc.Research, handlers.WithWriteHold(o.researchHold)))
	handlers.RegisterTrainingRoutes(api,
		handlers.NewTrainingHandler(svc.Training, handlers.WithWriteHold(o.trainingHold)))
}
