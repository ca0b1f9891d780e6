package catalogController

import (
	"coursehub/database"
	"coursehub/middleware"
	"coursehub/models"
	"coursehub/repository"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

// ChapterView is a chapter with its content decoded.
type ChapterView struct {
	CourseID    string           `json:"courseId"`
	YearID      string           `json:"yearId"`
	SubjectID   string           `json:"subjectId"`
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Order       int              `json:"order"`
	Content     []models.Content `json:"content"`
}

func catalog() repository.CatalogRepository {
	return repository.NewCatalogRepository(database.Database.Db)
}

func location(c *fiber.Ctx) models.Location {
	loc, _ := c.Locals("location").(models.Location)
	return loc
}

func catalogError(c *fiber.Ctx, err error, action string) error {
	switch {
	case errors.Is(err, repository.ErrNodeNotFound), errors.Is(err, repository.ErrParentNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, err.Error(), nil)
	case errors.Is(err, repository.ErrDuplicateID):
		return middleware.JsonResponse(c, fiber.StatusConflict, false, err.Error(), nil)
	case errors.Is(err, repository.ErrInvalidName):
		return middleware.ValidationErrorResponse(c, map[string]string{"name": err.Error()})
	}
	log.Printf("Error trying to %s: %v", action, err)
	return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to "+action+"!", nil)
}

func ListCourses(c *fiber.Ctx) error {
	courses, err := catalog().ListCourses()
	if err != nil {
		return catalogError(c, err, "list courses")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses.", courses)
}

// GetCourse returns the course with its years.
func GetCourse(c *fiber.Ctx) error {
	loc := location(c)
	repo := catalog()

	course, err := repo.Get(models.LevelCourse, loc)
	if err != nil {
		return catalogError(c, err, "load course")
	}
	years, err := repo.ListYears(loc.CourseID)
	if err != nil {
		return catalogError(c, err, "list years")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course details.", fiber.Map{
		"course": course,
		"years":  years,
	})
}

func ListYears(c *fiber.Ctx) error {
	loc := location(c)
	repo := catalog()
	if _, err := repo.Get(models.LevelCourse, loc); err != nil {
		return catalogError(c, err, "load course")
	}
	years, err := repo.ListYears(loc.CourseID)
	if err != nil {
		return catalogError(c, err, "list years")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Years.", years)
}

func ListSubjects(c *fiber.Ctx) error {
	loc := location(c)
	repo := catalog()
	if _, err := repo.Get(models.LevelYear, loc); err != nil {
		return catalogError(c, err, "load year")
	}
	subjects, err := repo.ListSubjects(loc.CourseID, loc.YearID)
	if err != nil {
		return catalogError(c, err, "list subjects")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Subjects.", subjects)
}

func ListChapters(c *fiber.Ctx) error {
	loc := location(c)
	repo := catalog()
	if _, err := repo.Get(models.LevelSubject, loc); err != nil {
		return catalogError(c, err, "load subject")
	}
	chapters, err := repo.ListChapters(loc.CourseID, loc.YearID, loc.SubjectID)
	if err != nil {
		return catalogError(c, err, "list chapters")
	}

	views := make([]ChapterView, 0, len(chapters))
	for i := range chapters {
		views = append(views, chapterView(&chapters[i]))
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Chapters.", views)
}

// GetChapter returns one chapter together with its content.
func GetChapter(c *fiber.Ctx) error {
	chapter, err := catalog().GetChapter(location(c))
	if err != nil {
		return catalogError(c, err, "load chapter")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Chapter details.", chapterView(chapter))
}

func chapterView(ch *models.Chapter) ChapterView {
	items, err := ch.Contents()
	if err != nil {
		log.Printf("Chapter %s has undecodable content: %v", ch.Location(), err)
		items = []models.Content{}
	}
	return ChapterView{
		CourseID:    ch.CourseID,
		YearID:      ch.YearID,
		SubjectID:   ch.SubjectID,
		ID:          ch.ID,
		Name:        ch.Name,
		Description: ch.Description,
		Order:       ch.Order,
		Content:     items,
	}
}

// CreateNode adds a catalog entry of the given level under the parent in the route.
func CreateNode(level models.Level) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData, ok := c.Locals("validatedNode").(repository.NodeInput)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
		}

		node, err := catalog().Create(level, location(c), reqData)
		if err != nil {
			return catalogError(c, err, "create "+level.String())
		}
		return middleware.JsonResponse(c, fiber.StatusCreated, true, "Created successfully!", node)
	}
}

// UpdateNode changes name, description, icon or order. The id is never changed.
func UpdateNode(level models.Level) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData, ok := c.Locals("validatedNodeUpdate").(repository.NodeUpdate)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
		}

		node, err := catalog().Update(level, location(c), reqData)
		if err != nil {
			return catalogError(c, err, "update "+level.String())
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Updated successfully!", node)
	}
}

// DeleteNode removes the entry and everything beneath it. Uploaded files stay in Drive.
func DeleteNode(level models.Level) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := catalog().Delete(level, location(c)); err != nil {
			return catalogError(c, err, "delete "+level.String())
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Deleted successfully!", nil)
	}
}
