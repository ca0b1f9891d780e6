package uploadRoutes

import (
	controllers "coursehub/controllers/upload"
	"coursehub/middleware"
	validators "coursehub/validators/upload"

	"github.com/gofiber/fiber/v2"
)

// SetupUploadRoutes sets up notes uploads and the Drive helpers
func SetupUploadRoutes(app *fiber.App) {
	uploadGroup := app.Group("/admin/uploads", middleware.JWTMiddleware, middleware.RequireAdmin())

	uploadGroup.Post("/init", validators.InitUpload(), controllers.InitUpload)
	uploadGroup.Post("/handoff", validators.Handoff(), controllers.Handoff)
	uploadGroup.Post("/", validators.CreateUploads(), controllers.CreateUploads)
	uploadGroup.Get("/", validators.ListUploads(), controllers.ListUploads)
	uploadGroup.Get("/:uploadId", validators.UploadID(), controllers.GetUpload)
	uploadGroup.Delete("/:uploadId", validators.UploadID(), controllers.DeleteUpload)

	driveGroup := app.Group("/admin/drive", middleware.JWTMiddleware, middleware.RequireAdmin())
	driveGroup.Post("/permissions", validators.SetPermissions(), controllers.SetPermissions)
	driveGroup.Post("/delete", validators.DriveDelete(), controllers.DriveDelete)
	driveGroup.Get("/token", controllers.Token)
}
