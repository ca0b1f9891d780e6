package draftValidator

import (
	"coursehub/middleware"
	contentValidator "coursehub/validators/content"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type SaveDraftRequest struct {
	Location contentValidator.MoveTarget    `json:"location"`
	Contents []contentValidator.ContentItem `json:"contents" validate:"dive"`
}

// SaveDraft validates a full replacement of the admin's draft
func SaveDraft() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SaveDraftRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		for i := range reqData.Contents {
			reqData.Contents[i].Title = strings.TrimSpace(reqData.Contents[i].Title)
			reqData.Contents[i].URL = strings.TrimSpace(reqData.Contents[i].URL)
		}

		if errors := middleware.ValidateStruct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedDraft", reqData)
		return c.Next()
	}
}
