package googleRoutes

import (
	controllers "coursehub/controllers/google"
	"coursehub/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupGoogleRoutes(app *fiber.App) {
	googleGroup := app.Group("/admin/google")

	googleGroup.Get("/config", middleware.JWTMiddleware, middleware.RequireAdmin(), controllers.ConfigCheck)
	// Google redirects the browser here after consent, so no bearer token is available.
	googleGroup.Get("/callback", controllers.Callback)
}
