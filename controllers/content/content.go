package contentController

import (
	"coursehub/database"
	"coursehub/middleware"
	"coursehub/models"
	"coursehub/repository"
	"coursehub/utils"
	contentValidator "coursehub/validators/content"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func registry() repository.ContentRegistry {
	return repository.NewContentRegistry(database.Database.Db)
}

func registryError(c *fiber.Ctx, err error, action string) error {
	switch {
	case errors.Is(err, repository.ErrChapterNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Chapter not found!", nil)
	case errors.Is(err, repository.ErrContentNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Content not found!", nil)
	}
	log.Printf("Error trying to %s: %v", action, err)
	return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to "+action+"!", nil)
}

// YouTubeInfo classifies a link and returns its title and thumbnail.
func YouTubeInfo(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedYouTubeInfo").(*contentValidator.YouTubeInfoRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	info, err := utils.YouTube.Lookup(c.UserContext(), reqData.URL)
	if err != nil {
		var oembedErr *utils.OEmbedError
		switch {
		case errors.Is(err, utils.ErrInvalidYouTubeURL):
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid YouTube URL!", nil)
		case errors.As(err, &oembedErr):
			status := fiber.StatusBadGateway
			if oembedErr.StatusCode >= 400 && oembedErr.StatusCode < 500 {
				status = oembedErr.StatusCode
			}
			return middleware.JsonResponse(c, status, false, oembedErr.Error(), nil)
		}
		log.Printf("Error fetching YouTube info for %s: %v", reqData.URL, err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Failed to fetch video info!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Video info.", info)
}

// ToContent converts validated items into stored content. Ids are always assigned here.
func ToContent(items []contentValidator.ContentItem) []models.Content {
	out := make([]models.Content, 0, len(items))
	for _, item := range items {
		out = append(out, models.Content{
			ID:          uuid.New().String(),
			Type:        item.Type,
			Title:       item.Title,
			URL:         item.URL,
			Thumbnail:   item.Thumbnail,
			Description: item.Description,
		})
	}
	return out
}

// AddContent unions the given items into the chapter's content in one write.
func AddContent(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedAddContent").(*contentValidator.AddContentRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	contents := ToContent(reqData.Contents)
	items := make([]any, 0, len(contents))
	for _, item := range contents {
		items = append(items, item)
	}

	added, err := registry().ArrayUnion(reqData.Location(), items...)
	if err != nil {
		return registryError(c, err, "add content")
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Content added successfully!", fiber.Map{
		"added":    added,
		"contents": contents,
	})
}

// ListAllContent flattens every chapter's content with its location.
func ListAllContent(c *fiber.Ctx) error {
	filter, _ := c.Locals("contentFilter").(repository.ContentFilter)

	items, err := registry().ListContent(filter)
	if err != nil {
		return registryError(c, err, "list content")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content list.", fiber.Map{
		"total":    len(items),
		"contents": items,
	})
}

// EditContent updates title/description and optionally moves the item, as one transaction.
func EditContent(c *fiber.Ctx) error {
	contentID, _ := c.Locals("contentId").(string)
	reqData, ok := c.Locals("validatedEditContent").(*contentValidator.EditContentRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	reg := registry()
	found, err := reg.FindContent(contentID)
	if err != nil {
		return registryError(c, err, "find content")
	}

	updated := found.Content
	if reqData.Title != nil {
		updated.Title = *reqData.Title
	}
	if reqData.Description != nil {
		updated.Description = *reqData.Description
	}

	target := found.Location
	if reqData.MoveTo != nil {
		target = models.Location{
			CourseID:  reqData.MoveTo.CourseID,
			YearID:    reqData.MoveTo.YearID,
			SubjectID: reqData.MoveTo.SubjectID,
			ChapterID: reqData.MoveTo.ChapterID,
		}
	}

	if err := reg.MoveContent(found.Location, target, found.Stored, updated); err != nil {
		return registryError(c, err, "update content")
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content updated successfully!", models.LocatedContent{
		Content:  updated,
		Location: target,
	})
}

// DeleteContent removes the item. Notes stored in Drive are deleted there first; a Drive failure
// is reported as a warning and the removal still happens.
func DeleteContent(c *fiber.Ctx) error {
	contentID, _ := c.Locals("contentId").(string)

	reg := registry()
	found, err := reg.FindContent(contentID)
	if err != nil {
		return registryError(c, err, "find content")
	}

	var warning string
	if found.Type == models.ContentNotes && utils.IsDriveURL(found.URL) {
		if fileID, ok := utils.ExtractDriveFileID(found.URL); ok {
			if err := utils.Drive.DeleteFile(c.UserContext(), fileID); err != nil {
				log.Printf("WARN: failed to delete Drive file %s for content %s: %v", fileID, found.ID, err)
				warning = "Content removed, but the Drive file could not be deleted: " + err.Error()
			}
		}
	}

	if _, err := reg.ArrayRemove(found.Location, found.Stored); err != nil {
		return registryError(c, err, "delete content")
	}

	data := fiber.Map{"id": found.ID}
	if warning != "" {
		data["warning"] = warning
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content deleted successfully!", data)
}
