package draftController

import (
	contentController "coursehub/controllers/content"
	"coursehub/database"
	"coursehub/middleware"
	"coursehub/models"
	"coursehub/repository"
	"coursehub/utils"
	draftValidator "coursehub/validators/draft"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

func GetDraft(c *fiber.Ctx) error {
	admin, ok := middleware.CurrentAdmin(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	draft, err := utils.Drafts.Get(c.UserContext(), admin.ID)
	if err != nil {
		log.Printf("Error loading draft for admin %d: %v", admin.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load draft!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Draft.", draft)
}

// SaveDraft replaces the admin's draft with the posted location and items.
func SaveDraft(c *fiber.Ctx) error {
	admin, ok := middleware.CurrentAdmin(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData, ok := c.Locals("validatedDraft").(*draftValidator.SaveDraftRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	draft := &utils.Draft{
		Location: models.Location{
			CourseID:  reqData.Location.CourseID,
			YearID:    reqData.Location.YearID,
			SubjectID: reqData.Location.SubjectID,
			ChapterID: reqData.Location.ChapterID,
		},
		Contents: contentController.ToContent(reqData.Contents),
	}
	if err := utils.Drafts.Save(c.UserContext(), admin.ID, draft); err != nil {
		log.Printf("Error saving draft for admin %d: %v", admin.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save draft!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Draft saved.", draft)
}

func DeleteDraft(c *fiber.Ctx) error {
	admin, ok := middleware.CurrentAdmin(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	if err := utils.Drafts.Delete(c.UserContext(), admin.ID); err != nil {
		log.Printf("Error deleting draft for admin %d: %v", admin.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to discard draft!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Draft discarded.", nil)
}

// CommitDraft unions every pending item into the draft's chapter in one write, then clears the draft.
func CommitDraft(c *fiber.Ctx) error {
	admin, ok := middleware.CurrentAdmin(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	draft, err := utils.Drafts.Get(c.UserContext(), admin.ID)
	if err != nil {
		log.Printf("Error loading draft for admin %d: %v", admin.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load draft!", nil)
	}
	if len(draft.Contents) == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Draft is empty!", nil)
	}

	items := make([]any, 0, len(draft.Contents))
	for _, item := range draft.Contents {
		items = append(items, item)
	}

	added, err := repository.NewContentRegistry(database.Database.Db).ArrayUnion(draft.Location, items...)
	if err != nil {
		if errors.Is(err, repository.ErrChapterNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Chapter not found!", nil)
		}
		log.Printf("Error committing draft for admin %d: %v", admin.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save content!", nil)
	}

	if err := utils.Drafts.Delete(c.UserContext(), admin.ID); err != nil {
		log.Printf("Error clearing draft for admin %d: %v", admin.ID, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Content added successfully!", fiber.Map{
		"added":    added,
		"location": draft.Location,
		"contents": draft.Contents,
	})
}
