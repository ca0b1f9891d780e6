package uploadController

import (
	"coursehub/config"
	"coursehub/database"
	"coursehub/middleware"
	"coursehub/models"
	"coursehub/repository"
	"coursehub/utils"
	uploadValidator "coursehub/validators/upload"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func driveError(c *fiber.Ctx, err error, action string) error {
	var apiErr *utils.DriveAPIError
	switch {
	case errors.Is(err, utils.ErrCredentialsMissing):
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, err.Error(), nil)
	case errors.As(err, &apiErr):
		log.Printf("Drive error trying to %s: %v", action, err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, apiErr.Error(), nil)
	}
	log.Printf("Error trying to %s: %v", action, err)
	return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to "+action+"!", nil)
}

// InitUpload opens a resumable Drive session the browser can send chunks to directly.
func InitUpload(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUploadInit").(*utils.UploadInitRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	session, err := utils.Drive.CreateUploadSession(c.UserContext(), *reqData, c.Get("Origin"))
	if err != nil {
		return driveError(c, err, "initialize upload")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Upload session created.", session)
}

// CreateUploads stages the posted files on disk and queues them for sequential relay to Drive.
func CreateUploads(c *fiber.Ctx) error {
	admin, ok := middleware.CurrentAdmin(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData, ok := c.Locals("validatedUploads").(*uploadValidator.MultipartUpload)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	if _, err := repository.NewCatalogRepository(db).GetChapter(reqData.Location); err != nil {
		if errors.Is(err, repository.ErrNodeNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Chapter not found!", nil)
		}
		log.Printf("Error loading chapter %s: %v", reqData.Location, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to queue uploads!", nil)
	}

	uploadDir := config.AppConfig.UploadDir
	batchID := uuid.New().String()
	uploads := make([]models.Upload, 0, len(reqData.Files))
	for i, fh := range reqData.Files {
		id := uuid.New().String()
		ext := filepath.Ext(fh.Filename)

		localPath, err := utils.SaveUploadedFile(fh, uploadDir, id)
		if err != nil {
			log.Printf("Error staging %s: %v", fh.Filename, err)
			removeStaged(uploads)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save "+fh.Filename+"!", nil)
		}

		title := strings.TrimSuffix(fh.Filename, ext)
		if i < len(reqData.Titles) && strings.TrimSpace(reqData.Titles[i]) != "" {
			title = strings.TrimSpace(reqData.Titles[i])
		}
		var description string
		if i < len(reqData.Descriptions) {
			description = strings.TrimSpace(reqData.Descriptions[i])
		}

		mimeType := fh.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		uploads = append(uploads, models.Upload{
			ID:          id,
			AdminID:     admin.ID,
			BatchID:     batchID,
			FileName:    title + ext,
			Title:       title,
			Description: description,
			MimeType:    mimeType,
			Size:        fh.Size,
			CourseID:    reqData.Location.CourseID,
			YearID:      reqData.Location.YearID,
			SubjectID:   reqData.Location.SubjectID,
			ChapterID:   reqData.Location.ChapterID,
			Status:      models.UploadPending,
			LocalPath:   localPath,
		})
	}

	if err := db.Create(&uploads).Error; err != nil {
		log.Printf("Error saving uploads: %v", err)
		removeStaged(uploads)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to queue uploads!", nil)
	}

	ids := make([]string, 0, len(uploads))
	for _, u := range uploads {
		ids = append(ids, u.ID)
	}
	if err := utils.Uploads.Enqueue(admin.ID, batchID, ids); err != nil {
		log.Printf("Error enqueueing batch %s: %v", batchID, err)
		// Rejected rows are failed so Recover never re-queues them.
		for i := range uploads {
			uploads[i].Fail(err)
		}
		if err := db.Model(&models.Upload{}).Where("batch_id = ?", batchID).Updates(map[string]interface{}{
			"status": models.UploadError,
			"error":  err.Error(),
		}).Error; err != nil {
			log.Printf("Error failing batch %s: %v", batchID, err)
		}
		removeStaged(uploads)
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Upload queue is full, try again later!", fiber.Map{
			"batchId": batchID,
			"uploads": uploads,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusAccepted, true, "Uploads queued.", fiber.Map{
		"batchId": batchID,
		"uploads": uploads,
	})
}

func removeStaged(uploads []models.Upload) {
	for _, u := range uploads {
		os.Remove(u.LocalPath)
	}
}

func ListUploads(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUploadList").(*uploadValidator.ListUploadsQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	filters := func(db *gorm.DB) *gorm.DB {
		if reqData.Status != "" {
			db = db.Where("status = ?", reqData.Status)
		}
		if reqData.BatchID != "" {
			db = db.Where("batch_id = ?", reqData.BatchID)
		}
		return db
	}

	db := database.Database.Db

	var total int64
	if err := db.Model(&models.Upload{}).Scopes(filters).Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch uploads!", nil)
	}

	var uploads []models.Upload
	offset := (reqData.Page - 1) * reqData.Limit
	if err := db.Scopes(filters).Order("created_at desc").Offset(offset).Limit(reqData.Limit).Find(&uploads).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch uploads!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Uploads.", fiber.Map{
		"uploads": uploads,
		"pagination": fiber.Map{
			"total": total,
			"page":  reqData.Page,
			"limit": reqData.Limit,
		},
	})
}

func GetUpload(c *fiber.Ctx) error {
	id, _ := c.Locals("uploadId").(string)

	var upload models.Upload
	err := database.Database.Db.Where("id = ?", id).First(&upload).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Upload not found!", nil)
	}
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch upload!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Upload details.", upload)
}

// DeleteUpload removes an upload from the list, deleting its Drive file when one was created.
func DeleteUpload(c *fiber.Ctx) error {
	id, _ := c.Locals("uploadId").(string)

	db := database.Database.Db
	var upload models.Upload
	err := db.Where("id = ?", id).First(&upload).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Upload not found!", nil)
	}
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch upload!", nil)
	}
	if upload.Status == models.UploadUploading {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, upload.FileName+" is still uploading!", nil)
	}

	if upload.RemoteID != "" {
		if err := utils.Drive.DeleteFile(c.UserContext(), upload.RemoteID); err != nil {
			return driveError(c, err, "delete file")
		}
	}
	if upload.LocalPath != "" {
		os.Remove(upload.LocalPath)
	}

	if err := db.Delete(&upload).Error; err != nil {
		log.Printf("Error deleting upload %s: %v", upload.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete upload!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Upload deleted.", fiber.Map{"id": upload.ID})
}

// Handoff turns completed uploads into notes items in the admin's draft. Every upload must be
// completed, not yet handed off, and target the same chapter.
func Handoff(c *fiber.Ctx) error {
	admin, ok := middleware.CurrentAdmin(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData, ok := c.Locals("validatedHandoff").(*uploadValidator.HandoffRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	var uploads []models.Upload
	if err := db.Where("id IN ?", reqData.UploadIDs).Order("created_at asc").Find(&uploads).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch uploads!", nil)
	}
	if len(uploads) != len(reqData.UploadIDs) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "One or more uploads not found!", nil)
	}

	loc := uploads[0].Location()
	items := make([]models.Content, 0, len(uploads))
	for _, u := range uploads {
		if u.Status != models.UploadCompleted {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, u.FileName+" has not completed!", nil)
		}
		if u.HandedOff {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, u.FileName+" was already handed off!", nil)
		}
		if u.Location() != loc {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Uploads belong to different chapters!", nil)
		}
		items = append(items, models.Content{
			ID:          uuid.New().String(),
			Type:        models.ContentNotes,
			Title:       u.Title,
			URL:         u.URL,
			Description: u.Description,
		})
	}

	draft, err := utils.Drafts.Append(c.UserContext(), admin.ID, loc, items...)
	if err != nil {
		log.Printf("Error updating draft for admin %d: %v", admin.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update draft!", nil)
	}

	if err := db.Model(&models.Upload{}).Where("id IN ?", reqData.UploadIDs).Update("handed_off", true).Error; err != nil {
		log.Printf("Error marking uploads as handed off: %v", err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Uploads added to draft.", draft)
}

// SetPermissions grants public read on a Drive file and returns its shareable URL.
func SetPermissions(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedPermission").(*uploadValidator.PermissionRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if err := utils.Drive.SetPublic(c.UserContext(), reqData.FileID); err != nil {
		return driveError(c, err, "set permissions")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Permissions updated.", fiber.Map{
		"fileId": reqData.FileID,
		"url":    utils.ShareableURL(reqData.FileID),
	})
}

// DriveDelete deletes the Drive file named by a shareable URL.
func DriveDelete(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedDriveDelete").(*uploadValidator.DriveDeleteRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if !utils.IsDriveURL(reqData.FileURL) {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Not a Google Drive URL", nil)
	}
	fileID, ok := utils.ExtractDriveFileID(reqData.FileURL)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Google Drive URL", nil)
	}

	if err := utils.Drive.DeleteFile(c.UserContext(), fileID); err != nil {
		return driveError(c, err, "delete file")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "File deleted.", fiber.Map{"fileId": fileID})
}

// Token hands out a fresh access token for browser-side chunk uploads.
func Token(c *fiber.Ctx) error {
	token, err := utils.Drive.AccessToken(c.UserContext())
	if err != nil {
		return driveError(c, err, "get access token")
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Access token.", fiber.Map{"accessToken": token})
}
