package uploadValidator

import (
	"coursehub/middleware"
	"coursehub/models"
	"coursehub/utils"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type MultipartUpload struct {
	Location     models.Location
	Files        []*multipart.FileHeader
	Titles       []string
	Descriptions []string
}

type HandoffRequest struct {
	UploadIDs []string `json:"uploadIds" validate:"required,min=1,dive,uuid"`
}

type PermissionRequest struct {
	FileID string `json:"fileId" validate:"required"`
}

type DriveDeleteRequest struct {
	FileURL string `json:"fileUrl" validate:"required"`
}

type ListUploadsQuery struct {
	Status  models.UploadStatus `query:"status" json:"status" validate:"omitempty,oneof=pending uploading completed error"`
	BatchID string              `query:"batchId" json:"batchId" validate:"omitempty,uuid"`
	Page    int                 `query:"page" json:"page" validate:"min=1"`
	Limit   int                 `query:"limit" json:"limit" validate:"min=1,max=100"`
}

// InitUpload validates a browser-driven upload session request. Missing fields are a 400.
func InitUpload() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(utils.UploadInitRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.FileName = strings.TrimSpace(reqData.FileName)

		if errors := middleware.ValidateStruct(reqData); errors != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Missing required fields", errors)
		}

		c.Locals("validatedUploadInit", reqData)
		return c.Next()
	}
}

// CreateUploads validates a multipart form carrying one or more files for a chapter
func CreateUploads() fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid multipart form!", nil)
		}

		value := func(key string) string {
			if v := form.Value[key]; len(v) > 0 {
				return strings.TrimSpace(v[0])
			}
			return ""
		}

		reqData := &MultipartUpload{
			Location: models.Location{
				CourseID:  value("courseId"),
				YearID:    value("yearId"),
				SubjectID: value("subjectId"),
				ChapterID: value("chapterId"),
			},
			Files:        form.File["files"],
			Titles:       form.Value["titles"],
			Descriptions: form.Value["descriptions"],
		}

		errors := make(map[string]string)
		if reqData.Location.CourseID == "" {
			errors["courseId"] = "courseId is a required field"
		}
		if reqData.Location.YearID == "" {
			errors["yearId"] = "yearId is a required field"
		}
		if reqData.Location.SubjectID == "" {
			errors["subjectId"] = "subjectId is a required field"
		}
		if reqData.Location.ChapterID == "" {
			errors["chapterId"] = "chapterId is a required field"
		}
		if len(reqData.Files) == 0 {
			errors["files"] = "At least one file is required!"
		}
		for _, fh := range reqData.Files {
			if fh.Size == 0 {
				errors["files"] = fh.Filename + " is empty!"
			}
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedUploads", reqData)
		return c.Next()
	}
}

// ListUploads validates the upload list filters
func ListUploads() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := &ListUploadsQuery{Page: 1, Limit: 20}
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}

		if errors := middleware.ValidateStruct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedUploadList", reqData)
		return c.Next()
	}
}

// UploadID reads the :uploadId route parameter
func UploadID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Params("uploadId"))
		if id == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Upload ID is required!", nil)
		}
		c.Locals("uploadId", id)
		return c.Next()
	}
}

// Handoff validates the uploads being moved into the draft
func Handoff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(HandoffRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errors := middleware.ValidateStruct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedHandoff", reqData)
		return c.Next()
	}
}

// SetPermissions validates a public-read grant request
func SetPermissions() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(PermissionRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.FileID = strings.TrimSpace(reqData.FileID)

		if errors := middleware.ValidateStruct(reqData); errors != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "File ID is required", errors)
		}

		c.Locals("validatedPermission", reqData)
		return c.Next()
	}
}

// DriveDelete validates a Drive file deletion request
func DriveDelete() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(DriveDeleteRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.FileURL = strings.TrimSpace(reqData.FileURL)

		if errors := middleware.ValidateStruct(reqData); errors != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "File URL is required", errors)
		}

		c.Locals("validatedDriveDelete", reqData)
		return c.Next()
	}
}
