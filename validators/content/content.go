package contentValidator

import (
	"coursehub/middleware"
	"coursehub/models"
	"coursehub/repository"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type YouTubeInfoRequest struct {
	URL string `json:"url" validate:"required,url"`
}

type ContentItem struct {
	Type        models.ContentType `json:"type" validate:"required,oneof=video playlist notes"`
	Title       string             `json:"title" validate:"required,max=300"`
	URL         string             `json:"url" validate:"required,url"`
	Thumbnail   string             `json:"thumbnail" validate:"omitempty,url"`
	Description string             `json:"description" validate:"max=2000"`
}

type AddContentRequest struct {
	CourseID  string        `json:"courseId" validate:"required"`
	YearID    string        `json:"yearId" validate:"required"`
	SubjectID string        `json:"subjectId" validate:"required"`
	ChapterID string        `json:"chapterId" validate:"required"`
	Contents  []ContentItem `json:"contents" validate:"required,min=1,dive"`
}

// Location is the chapter the content is added to.
func (r *AddContentRequest) Location() models.Location {
	return models.Location{CourseID: r.CourseID, YearID: r.YearID, SubjectID: r.SubjectID, ChapterID: r.ChapterID}
}

type MoveTarget struct {
	CourseID  string `json:"courseId" validate:"required"`
	YearID    string `json:"yearId" validate:"required"`
	SubjectID string `json:"subjectId" validate:"required"`
	ChapterID string `json:"chapterId" validate:"required"`
}

type EditContentRequest struct {
	Title       *string     `json:"title" validate:"omitempty,min=1,max=300"`
	Description *string     `json:"description" validate:"omitempty,max=2000"`
	MoveTo      *MoveTarget `json:"moveTo" validate:"omitempty"`
}

// YouTubeInfo validates a link lookup request
func YouTubeInfo() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(YouTubeInfoRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.URL = strings.TrimSpace(reqData.URL)

		if errors := middleware.ValidateStruct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedYouTubeInfo", reqData)
		return c.Next()
	}
}

// AddContent validates a batch of content items for one chapter
func AddContent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(AddContentRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		for i := range reqData.Contents {
			reqData.Contents[i].Title = strings.TrimSpace(reqData.Contents[i].Title)
			reqData.Contents[i].URL = strings.TrimSpace(reqData.Contents[i].URL)
			reqData.Contents[i].Description = strings.TrimSpace(reqData.Contents[i].Description)
		}

		if errors := middleware.ValidateStruct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedAddContent", reqData)
		return c.Next()
	}
}

// ListContent reads the optional filters for the flattened content list
func ListContent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter := repository.ContentFilter{
			CourseID:  strings.TrimSpace(c.Query("courseId")),
			YearID:    strings.TrimSpace(c.Query("yearId")),
			SubjectID: strings.TrimSpace(c.Query("subjectId")),
			ChapterID: strings.TrimSpace(c.Query("chapterId")),
			Type:      models.ContentType(strings.TrimSpace(c.Query("type"))),
			Search:    strings.TrimSpace(c.Query("search")),
		}

		if filter.Type != "" && !filter.Type.Valid() {
			return middleware.ValidationErrorResponse(c, map[string]string{"type": "Type must be video, playlist or notes!"})
		}

		c.Locals("contentFilter", filter)
		return c.Next()
	}
}

// ContentID reads the :contentId route parameter
func ContentID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Params("contentId"))
		if id == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Content ID is required!", nil)
		}
		c.Locals("contentId", id)
		return c.Next()
	}
}

// EditContent validates a title/description change and an optional move
func EditContent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(EditContentRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Title != nil {
			trimmed := strings.TrimSpace(*reqData.Title)
			reqData.Title = &trimmed
		}
		if reqData.Description != nil {
			trimmed := strings.TrimSpace(*reqData.Description)
			reqData.Description = &trimmed
		}

		if errors := middleware.ValidateStruct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}
		if reqData.Title == nil && reqData.Description == nil && reqData.MoveTo == nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"request": "Nothing to update!"})
		}

		c.Locals("validatedEditContent", reqData)
		return c.Next()
	}
}
