package catalogRoutes

import (
	controllers "coursehub/controllers/catalog"
	"coursehub/middleware"
	"coursehub/models"
	validators "coursehub/validators/catalog"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminCatalogRoutes sets up hierarchy management for the admin console
func SetupAdminCatalogRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin/catalog", middleware.JWTMiddleware, middleware.RequireAdmin())

	// Courses
	adminGroup.Post("/courses", validators.Path(0), validators.CreateNode(), controllers.CreateNode(models.LevelCourse))
	adminGroup.Put("/courses/:courseId", validators.Path(models.LevelCourse), validators.UpdateNode(), controllers.UpdateNode(models.LevelCourse))
	adminGroup.Delete("/courses/:courseId", validators.Path(models.LevelCourse), controllers.DeleteNode(models.LevelCourse))

	// Years
	years := "/courses/:courseId/years"
	adminGroup.Post(years, validators.Path(models.LevelCourse), validators.CreateNode(), controllers.CreateNode(models.LevelYear))
	adminGroup.Put(years+"/:yearId", validators.Path(models.LevelYear), validators.UpdateNode(), controllers.UpdateNode(models.LevelYear))
	adminGroup.Delete(years+"/:yearId", validators.Path(models.LevelYear), controllers.DeleteNode(models.LevelYear))

	// Subjects
	subjects := years + "/:yearId/subjects"
	adminGroup.Post(subjects, validators.Path(models.LevelYear), validators.CreateNode(), controllers.CreateNode(models.LevelSubject))
	adminGroup.Put(subjects+"/:subjectId", validators.Path(models.LevelSubject), validators.UpdateNode(), controllers.UpdateNode(models.LevelSubject))
	adminGroup.Delete(subjects+"/:subjectId", validators.Path(models.LevelSubject), controllers.DeleteNode(models.LevelSubject))

	// Chapters
	chapters := subjects + "/:subjectId/chapters"
	adminGroup.Post(chapters, validators.Path(models.LevelSubject), validators.CreateNode(), controllers.CreateNode(models.LevelChapter))
	adminGroup.Put(chapters+"/:chapterId", validators.Path(models.LevelChapter), validators.UpdateNode(), controllers.UpdateNode(models.LevelChapter))
	adminGroup.Delete(chapters+"/:chapterId", validators.Path(models.LevelChapter), controllers.DeleteNode(models.LevelChapter))
}
