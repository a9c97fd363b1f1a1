package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/support-assistant/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Chat      *handlers.ChatHandler
	Tickets   *handlers.TicketsHandler
	Agents    *handlers.AgentsHandler
	Social    *handlers.SocialHandler
	Analytics *handlers.AnalyticsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	chat := app.Group("/chat")
	chat.Post("/message", cfg.Chat.HandleMessage)
	chat.Get("/conversations/:id", cfg.Chat.GetConversation)
	chat.Get("/conversations/:id/messages", cfg.Chat.ListMessages)
	chat.Post("/conversations/:id/close", cfg.Chat.CloseConversation)

	tickets := app.Group("/tickets")
	tickets.Get("/", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Post("/:id/assign", cfg.Tickets.Assign)
	tickets.Post("/:id/start", cfg.Tickets.Start)
	tickets.Post("/:id/resolve", cfg.Tickets.Resolve)
	tickets.Post("/:id/close", cfg.Tickets.Close)
	tickets.Patch("/:id/priority", cfg.Tickets.UpdatePriority)

	agents := app.Group("/agents")
	agents.Post("/", cfg.Agents.Create)
	agents.Get("/", cfg.Agents.List)
	agents.Patch("/:id", cfg.Agents.Update)

	social := app.Group("/social")
	social.Post("/posts", cfg.Social.IngestPost)
	social.Get("/posts", cfg.Social.ListProcessed)
	social.Get("/status", cfg.Social.Status)

	analytics := app.Group("/analytics")
	analytics.Get("/kpis", cfg.Analytics.KPIs)
	analytics.Get("/escalations", cfg.Analytics.Escalations)
	analytics.Get("/intents", cfg.Analytics.Intents)
}
