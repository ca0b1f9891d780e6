package catalogValidator

import (
	"coursehub/middleware"
	"coursehub/models"
	"coursehub/repository"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type CreateNodeRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Icon        string `json:"icon" validate:"max=500"`
	Order       *int   `json:"order" validate:"omitempty,min=0"`
}

type UpdateNodeRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Icon        *string `json:"icon" validate:"omitempty,max=500"`
	Order       *int    `json:"order" validate:"omitempty,min=0"`
}

var pathParams = []struct {
	level models.Level
	param string
}{
	{models.LevelCourse, "courseId"},
	{models.LevelYear, "yearId"},
	{models.LevelSubject, "subjectId"},
	{models.LevelChapter, "chapterId"},
}

// Path reads the ids of every level up to and including depth from the route and stores them as
// c.Locals("location").
func Path(depth models.Level) fiber.Handler {
	return func(c *fiber.Ctx) error {
		loc := models.Location{}
		for _, p := range pathParams {
			if p.level > depth {
				break
			}
			id := strings.TrimSpace(c.Params(p.param))
			if id == "" {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, p.level.String()+" id is required!", nil)
			}
			loc = loc.WithID(p.level, id)
		}

		c.Locals("location", loc)
		return c.Next()
	}
}

// CreateNode validates the body for creating any catalog entry
func CreateNode() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateNodeRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		reqData.Name = strings.TrimSpace(reqData.Name)
		reqData.Description = strings.TrimSpace(reqData.Description)
		reqData.Icon = strings.TrimSpace(reqData.Icon)

		if errors := middleware.ValidateStruct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedNode", repository.NodeInput{
			Name:        reqData.Name,
			Description: reqData.Description,
			Icon:        reqData.Icon,
			Order:       reqData.Order,
		})
		return c.Next()
	}
}

// UpdateNode validates the body for updating any catalog entry
func UpdateNode() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateNodeRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Name != nil {
			trimmed := strings.TrimSpace(*reqData.Name)
			reqData.Name = &trimmed
		}

		if errors := middleware.ValidateStruct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}
		if reqData.Name == nil && reqData.Description == nil && reqData.Icon == nil && reqData.Order == nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"request": "At least one field is required!"})
		}

		c.Locals("validatedNodeUpdate", repository.NodeUpdate{
			Name:        reqData.Name,
			Description: reqData.Description,
			Icon:        reqData.Icon,
			Order:       reqData.Order,
		})
		return c.Next()
	}
}
