package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/jobcard-service/internal/api/http/handlers"
	"github.com/spec-kit/jobcard-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Org            *handlers.OrgHandler
	JobCards       *handlers.JobCardsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes. Role checks beyond authentication live in
// the services, which see the full request context.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	authProtected.Post("/logout", cfg.Auth.Logout)
	authProtected.Get("/me", cfg.Auth.Me)
	authProtected.Post("/password/change", cfg.Auth.ChangePassword)

	cards := app.Group("/job-cards", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	cards.Post("", cfg.JobCards.Create)
	cards.Get("", cfg.JobCards.List)
	cards.Get("/:id", cfg.JobCards.Get)
	cards.Patch("/:id/status", cfg.JobCards.UpdateStatus)
	cards.Patch("/:id/priority", cfg.JobCards.UpdatePriority)
	cards.Patch("/:id/schedule", cfg.JobCards.Reschedule)
	cards.Patch("/:id/site", cfg.JobCards.ChangeSite)
	cards.Patch("/:id/department", cfg.JobCards.TransferDepartment)
	cards.Post("/:id/notes", cfg.JobCards.AddNote)
	cards.Get("/:id/notes", cfg.JobCards.ListNotes)
	cards.Get("/:id/history", cfg.JobCards.ListHistory)
	cards.Post("/:id/assign", cfg.JobCards.Assign)
	cards.Post("/:id/self-assign", cfg.JobCards.SelfAssign)
	cards.Post("/:id/auto-assign", cfg.JobCards.AutoAssign)
	cards.Post("/:id/unassign", cfg.JobCards.Unassign)

	org := app.Group("/org", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	org.Post("/departments", cfg.Org.CreateDepartment)
	org.Get("/departments", cfg.Org.ListDepartments)
	org.Get("/departments/:id", cfg.Org.GetDepartment)
	org.Put("/departments/:id", cfg.Org.UpdateDepartment)
	org.Post("/sites", cfg.Org.CreateSite)
	org.Get("/sites", cfg.Org.ListSites)
	org.Get("/sites/:id", cfg.Org.GetSite)
	org.Put("/sites/:id", cfg.Org.UpdateSite)
	org.Post("/employees", cfg.Org.CreateEmployee)
	org.Get("/employees", cfg.Org.ListEmployees)
	org.Get("/employees/:id", cfg.Org.GetEmployee)
	org.Put("/employees/:id", cfg.Org.UpdateEmployee)
}
