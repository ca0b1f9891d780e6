package contentRoutes

import (
	controllers "coursehub/controllers/content"
	"coursehub/middleware"
	validators "coursehub/validators/content"

	"github.com/gofiber/fiber/v2"
)

// SetupContentRoutes sets up content attachment and editing for the admin console
func SetupContentRoutes(app *fiber.App) {
	contentGroup := app.Group("/admin/content", middleware.JWTMiddleware, middleware.RequireAdmin())

	contentGroup.Post("/youtube-info", validators.YouTubeInfo(), controllers.YouTubeInfo)
	contentGroup.Post("/", validators.AddContent(), controllers.AddContent)
	contentGroup.Get("/", validators.ListContent(), controllers.ListAllContent)
	contentGroup.Put("/:contentId", validators.ContentID(), validators.EditContent(), controllers.EditContent)
	contentGroup.Delete("/:contentId", validators.ContentID(), controllers.DeleteContent)
}
