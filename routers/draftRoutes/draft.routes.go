package draftRoutes

import (
	controllers "coursehub/controllers/draft"
	"coursehub/middleware"
	validators "coursehub/validators/draft"

	"github.com/gofiber/fiber/v2"
)

func SetupDraftRoutes(app *fiber.App) {
	draftGroup := app.Group("/admin/draft", middleware.JWTMiddleware, middleware.RequireAdmin())

	draftGroup.Get("/", controllers.GetDraft)
	draftGroup.Put("/", validators.SaveDraft(), controllers.SaveDraft)
	draftGroup.Delete("/", controllers.DeleteDraft)
	draftGroup.Post("/commit", controllers.CommitDraft)
}
