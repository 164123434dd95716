package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"schooldocs/internal/service"
)

// Services groups the use cases exposed over HTTP.
type Services struct {
	Students  service.StudentService
	Documents service.DocumentService
	Relay     service.RelayService
}

// relayCORS matches the headers browser clients send to the relay.
var relayCORS = cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,OPTIONS",
	AllowHeaders: "authorization, x-client-info, apikey, content-type",
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc Services) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/students", SearchStudents(svc.Students))
	app.Post("/students/import", ImportStudents(svc.Students))
	app.Get("/classes", ListClasses(svc.Students))
	app.Get("/classes/:class/students", ClassRoster(svc.Students))

	app.Get("/templates", ListTemplates(svc.Documents))
	app.Get("/templates/fields", TemplateFields())
	app.Get("/templates/:id", GetTemplate(svc.Documents))

	app.Post("/documents/preview", PreviewDocuments(svc.Documents))
	app.Post("/documents/pdf", ExportPDF(svc.Documents))
	app.Post("/documents/dispatch", DispatchDocuments(svc.Documents))

	app.Get("/dispatches", ListDispatches(svc.Documents))
	app.Get("/dispatches/export", ExportDispatches(svc.Documents))
	app.Get("/dispatches/:id/pdf", ArchivedPDF(svc.Documents))

	relay := app.Group("/relay", cors.New(relayCORS))
	relay.Post("/signature", RelaySignature(svc.Relay))
}
