package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"resumeview/internal/app"
	"resumeview/internal/http/middleware"
	"resumeview/internal/service"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	Backend     Pinger
	Submissions service.SubmissionService
	Sessions    *app.Sessions
	// SessionIdle sizes the session cookie lifetime.
	SessionIdle time.Duration
	Gatherer    prometheus.Gatherer
	Log         *zap.Logger
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Health and metrics routes
// are registered before the session middleware so they never create sessions.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.Log, d.Backend, d.Submissions))
	app.Get("/healthz", LivenessProbe())
	app.Get("/metrics", Metrics(d.Gatherer))
	app.Get("/submissions", ListSubmissions(d.Submissions))

	ui := app.Group("", middleware.Session(d.Sessions, d.SessionIdle))
	ui.Get("/", ShowAnalyze())
	ui.Post("/analyze", Analyze(d.Log))
	ui.Get("/analyze/progress", AnalyzeProgress())
	ui.Get("/history", ShowHistory())
	ui.Post("/history/close", CloseResume())
	ui.Get("/history/:id", ShowResume(d.Submissions, d.Log))
}
