package catalogRoutes

import (
	controllers "coursehub/controllers/catalog"
	"coursehub/models"
	validators "coursehub/validators/catalog"

	"github.com/gofiber/fiber/v2"
)

// SetupCatalogRoutes sets up the public, read-only catalog browser
func SetupCatalogRoutes(app *fiber.App) {
	courseGroup := app.Group("/courses")

	courseGroup.Get("/", controllers.ListCourses)
	courseGroup.Get("/:courseId", validators.Path(models.LevelCourse), controllers.GetCourse)
	courseGroup.Get("/:courseId/years", validators.Path(models.LevelCourse), controllers.ListYears)
	courseGroup.Get("/:courseId/years/:yearId/subjects", validators.Path(models.LevelYear), controllers.ListSubjects)
	courseGroup.Get("/:courseId/years/:yearId/subjects/:subjectId/chapters", validators.Path(models.LevelSubject), controllers.ListChapters)
	courseGroup.Get("/:courseId/years/:yearId/subjects/:subjectId/chapters/:chapterId", validators.Path(models.LevelChapter), controllers.GetChapter)
}
