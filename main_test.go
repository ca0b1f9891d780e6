package main

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"coursehub/config"
	"coursehub/database"
	"coursehub/middleware"
	"coursehub/models"
	"coursehub/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// driveStub answers the token endpoint and records file deletions.
type driveStub struct {
	mu      sync.Mutex
	deleted []string
}

func (d *driveStub) deletedIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.deleted...)
}

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	drive *driveStub
	token string
	admin models.AdminUser
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	stub := &driveStub{}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"access"}`))
	})
	mux.HandleFunc("/drive/files/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			if strings.HasSuffix(r.URL.Path, "/drv-broken") {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":{"message":"backend error"}}`))
				return
			}
			stub.mu.Lock()
			stub.deleted = append(stub.deleted, strings.TrimPrefix(r.URL.Path, "/drive/files/"))
			stub.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/oembed", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("url"), "private") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"title":"Intro lecture","author_name":"Dept","thumbnail_url":"https://i.ytimg.com/x.jpg"}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	config.AppConfig = &config.Config{
		JWTKey:             "test-secret",
		JWTExpiry:          time.Hour,
		GoogleClientID:     "client",
		GoogleClientSecret: "secret",
		GoogleRefreshToken: "refresh",
		GoogleTokenURL:     server.URL + "/token",
		DriveAPIURL:        server.URL + "/drive",
		DriveUploadURL:     server.URL + "/upload",
		YouTubeOEmbedURL:   server.URL + "/oembed",
		UploadDir:          t.TempDir(),
		UploadChunkSize:    1024,
	}

	db, err := database.Open("sqlite", "memory")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.Database = database.DbInstance{Db: db}

	store := utils.NewMemoryStore()
	utils.Drafts = utils.NewDraftStore(store, time.Hour)
	utils.YouTube = utils.NewYouTubeClient(config.AppConfig.YouTubeOEmbedURL, store, time.Hour)
	utils.Drive = utils.NewDriveClient(config.AppConfig)
	// Not started: queued batches stay in the channel so tests can inspect rows as pending.
	utils.Uploads = utils.NewUploadWorker(db, utils.Drive, utils.NewChunkedUploader(1024), nil, 8)

	admin := createAdmin(t, db, "admin@example.com", models.RoleAdmin)
	token, err := middleware.GenerateJWT(admin)
	require.NoError(t, err)

	return &testEnv{app: SetupApp(), db: db, drive: stub, token: token, admin: admin}
}

func createAdmin(t *testing.T, db *gorm.DB, email, role string) models.AdminUser {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := models.AdminUser{Name: "Test", Email: email, Role: role, Password: string(hashed)}
	require.NoError(t, db.Create(&admin).Error)
	return admin
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) (int, apiResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.send(t, req)
}

func (e *testEnv) send(t *testing.T, req *http.Request) (int, apiResponse) {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out apiResponse
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (e *testEnv) seedChapter(t *testing.T) models.Location {
	t.Helper()
	steps := []struct{ path, name string }{
		{"/admin/catalog/courses", "Computer Science"},
		{"/admin/catalog/courses/computer-science/years", "Year 1"},
		{"/admin/catalog/courses/computer-science/years/year-1/subjects", "Networks"},
		{"/admin/catalog/courses/computer-science/years/year-1/subjects/networks/chapters", "Transport Layer"},
	}
	for _, s := range steps {
		status, resp := e.do(t, http.MethodPost, s.path, fiber.Map{"name": s.name}, e.token)
		require.Equal(t, http.StatusCreated, status, resp.Message)
	}
	return models.Location{CourseID: "computer-science", YearID: "year-1", SubjectID: "networks", ChapterID: "transport-layer"}
}

func TestAdminRoutesRequireConsoleAccount(t *testing.T) {
	env := setupTestEnv(t)

	status, _ := env.do(t, http.MethodGet, "/admin/content", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(t, http.MethodGet, "/admin/content", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, status)

	editor := createAdmin(t, env.db, "editor@example.com", models.RoleEditor)
	editorToken, err := middleware.GenerateJWT(editor)
	require.NoError(t, err)
	status, _ = env.do(t, http.MethodGet, "/admin/content", nil, editorToken)
	assert.Equal(t, http.StatusOK, status)

	viewer := createAdmin(t, env.db, "viewer@example.com", "VIEWER")
	viewerToken, err := middleware.GenerateJWT(viewer)
	require.NoError(t, err)
	status, _ = env.do(t, http.MethodGet, "/admin/content", nil, viewerToken)
	assert.Equal(t, http.StatusForbidden, status)

	require.NoError(t, env.db.Model(&editor).Update("is_blocked", true).Error)
	status, _ = env.do(t, http.MethodGet, "/admin/content", nil, editorToken)
	assert.Equal(t, http.StatusForbidden, status)

	// The public catalog needs no token.
	status, _ = env.do(t, http.MethodGet, "/courses", nil, "")
	assert.Equal(t, http.StatusOK, status)
}

func TestLoginAndLockout(t *testing.T) {
	env := setupTestEnv(t)
	createAdmin(t, env.db, "lock@example.com", models.RoleEditor)

	status, resp := env.do(t, http.MethodPost, "/auth/login", fiber.Map{"email": "admin@example.com", "password": "password123"}, "")
	require.Equal(t, http.StatusOK, status, resp.Message)

	var login struct {
		Token string           `json:"token"`
		User  models.AdminUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &login))
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "admin@example.com", login.User.Email)

	status, resp = env.do(t, http.MethodGet, "/auth/me", nil, login.Token)
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, http.MethodGet, "/auth/login/history?page=0", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, resp = env.do(t, http.MethodGet, "/auth/login/history", nil, login.Token)
	require.Equal(t, http.StatusOK, status)
	var history struct {
		LoginTracking []models.LoginTracking `json:"loginTracking"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &history))
	assert.Len(t, history.LoginTracking, 1)

	status, resp = env.do(t, http.MethodPost, "/auth/login", fiber.Map{"email": "admin@example.com", "password": "short"}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	for i := 0; i < 3; i++ {
		status, _ = env.do(t, http.MethodPost, "/auth/login", fiber.Map{"email": "lock@example.com", "password": "wrongpassword"}, "")
		assert.Equal(t, http.StatusUnauthorized, status)
	}
	status, resp = env.do(t, http.MethodPost, "/auth/login", fiber.Map{"email": "lock@example.com", "password": "password123"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, resp.Message, "temporarily locked")
}

func TestCatalogCreateAndBrowse(t *testing.T) {
	env := setupTestEnv(t)
	loc := env.seedChapter(t)

	status, resp := env.do(t, http.MethodPost, "/admin/catalog/courses", fiber.Map{"name": "computer science"}, env.token)
	assert.Equal(t, http.StatusConflict, status, resp.Message)

	status, _ = env.do(t, http.MethodPost, "/admin/catalog/courses/missing/years", fiber.Map{"name": "Year 1"}, env.token)
	assert.Equal(t, http.StatusNotFound, status)

	status, resp = env.do(t, http.MethodPost, "/admin/catalog/courses", fiber.Map{}, env.token)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, resp = env.do(t, http.MethodPut, "/admin/catalog/courses/computer-science", fiber.Map{"name": "CS"}, env.token)
	require.Equal(t, http.StatusOK, status)
	var course models.Course
	require.NoError(t, json.Unmarshal(resp.Data, &course))
	assert.Equal(t, "computer-science", course.ID)
	assert.Equal(t, "CS", course.Name)

	status, resp = env.do(t, http.MethodGet, "/courses/computer-science/years/year-1/subjects/networks/chapters/transport-layer", nil, "")
	require.Equal(t, http.StatusOK, status)
	var chapter struct {
		ID      string           `json:"id"`
		Content []models.Content `json:"content"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &chapter))
	assert.Equal(t, loc.ChapterID, chapter.ID)
	assert.Empty(t, chapter.Content)

	status, _ = env.do(t, http.MethodGet, "/courses/computer-science/years/year-9/subjects", nil, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodDelete, "/admin/catalog/courses/computer-science", nil, env.token)
	require.Equal(t, http.StatusOK, status)
	var chapters int64
	env.db.Model(&models.Chapter{}).Count(&chapters)
	assert.Zero(t, chapters)
}

func TestContentLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	loc := env.seedChapter(t)

	status, resp := env.do(t, http.MethodPost, "/admin/content/youtube-info", fiber.Map{"url": "https://youtu.be/abc123"}, env.token)
	require.Equal(t, http.StatusOK, status, resp.Message)
	var info utils.YouTubeInfo
	require.NoError(t, json.Unmarshal(resp.Data, &info))
	assert.Equal(t, models.ContentVideo, info.Type)
	assert.Equal(t, "Intro lecture", info.Title)

	status, _ = env.do(t, http.MethodPost, "/admin/content/youtube-info", fiber.Map{"url": "https://example.com/x"}, env.token)
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp = env.do(t, http.MethodPost, "/admin/content/youtube-info", fiber.Map{"url": "https://youtu.be/private1"}, env.token)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, resp.Status)

	status, resp = env.do(t, http.MethodPost, "/admin/content", fiber.Map{
		"courseId": loc.CourseID, "yearId": loc.YearID, "subjectId": loc.SubjectID, "chapterId": loc.ChapterID,
		"contents": []fiber.Map{
			{"type": "video", "title": "Intro lecture", "url": "https://youtu.be/abc123"},
			{"type": "notes", "title": "Slides", "url": "https://drive.google.com/file/d/drv42/view"},
			{"type": "notes", "title": "Open link", "url": "https://drive.google.com/open?id=drv43"},
		},
	}, env.token)
	require.Equal(t, http.StatusCreated, status, resp.Message)
	var added struct {
		Added    int              `json:"added"`
		Contents []models.Content `json:"contents"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &added))
	require.Equal(t, 3, added.Added)
	ids := map[string]string{}
	for _, item := range added.Contents {
		require.NotEmpty(t, item.ID)
		ids[item.Title] = item.ID
	}

	status, resp = env.do(t, http.MethodPost, "/admin/content", fiber.Map{
		"courseId": loc.CourseID, "yearId": loc.YearID, "subjectId": loc.SubjectID, "chapterId": loc.ChapterID,
		"contents": []fiber.Map{{"type": "audio", "title": "x", "url": "https://x.y"}},
	}, env.token)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	var fieldErrs map[string]string
	require.NoError(t, json.Unmarshal(resp.Data, &fieldErrs))
	assert.Contains(t, fieldErrs, "contents[0].type")

	status, resp = env.do(t, http.MethodGet, "/admin/content?type=notes", nil, env.token)
	require.Equal(t, http.StatusOK, status)
	var list struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.Equal(t, 2, list.Total)

	status, _ = env.do(t, http.MethodPut, "/admin/content/"+ids["Intro lecture"], fiber.Map{"title": "Lecture 1"}, env.token)
	require.Equal(t, http.StatusOK, status)

	t.Run("notes without a file id make no Drive call", func(t *testing.T) {
		status, _ := env.do(t, http.MethodDelete, "/admin/content/"+ids["Open link"], nil, env.token)
		require.Equal(t, http.StatusOK, status)
		assert.Empty(t, env.drive.deletedIDs())
	})

	t.Run("Drive notes are deleted in Drive too", func(t *testing.T) {
		status, _ := env.do(t, http.MethodDelete, "/admin/content/"+ids["Slides"], nil, env.token)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, []string{"drv42"}, env.drive.deletedIDs())
	})

	status, resp = env.do(t, http.MethodGet, "/courses/computer-science/years/year-1/subjects/networks/chapters/transport-layer", nil, "")
	require.Equal(t, http.StatusOK, status)
	var chapter struct {
		Content []models.Content `json:"content"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &chapter))
	require.Len(t, chapter.Content, 1)
	assert.Equal(t, "Lecture 1", chapter.Content[0].Title)

	status, _ = env.do(t, http.MethodDelete, "/admin/content/"+ids["Slides"], nil, env.token)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestContentIDsAreAssignedByServer(t *testing.T) {
	env := setupTestEnv(t)
	loc := env.seedChapter(t)

	for _, title := range []string{"first", "second"} {
		status, resp := env.do(t, http.MethodPost, "/admin/content", fiber.Map{
			"courseId": loc.CourseID, "yearId": loc.YearID, "subjectId": loc.SubjectID, "chapterId": loc.ChapterID,
			"contents": []fiber.Map{{"id": "dup", "type": "video", "title": title, "url": "https://youtu.be/abc123"}},
		}, env.token)
		require.Equal(t, http.StatusCreated, status, resp.Message)
	}

	var stored models.Chapter
	require.NoError(t, env.db.Where("id = ?", loc.ChapterID).First(&stored).Error)
	items, err := stored.Contents()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.NotEqual(t, "dup", items[0].ID)
	assert.NotEqual(t, "dup", items[1].ID)
	assert.NotEqual(t, items[0].ID, items[1].ID)

	status, _ := env.do(t, http.MethodDelete, "/admin/content/dup", nil, env.token)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDeleteContentKeepsGoingWhenDriveFails(t *testing.T) {
	env := setupTestEnv(t)
	loc := env.seedChapter(t)

	status, resp := env.do(t, http.MethodPost, "/admin/content", fiber.Map{
		"courseId": loc.CourseID, "yearId": loc.YearID, "subjectId": loc.SubjectID, "chapterId": loc.ChapterID,
		"contents": []fiber.Map{{"type": "notes", "title": "Broken", "url": "https://drive.google.com/file/d/drv-broken/view"}},
	}, env.token)
	require.Equal(t, http.StatusCreated, status, resp.Message)
	var added struct {
		Contents []models.Content `json:"contents"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &added))
	require.Len(t, added.Contents, 1)

	status, resp = env.do(t, http.MethodDelete, "/admin/content/"+added.Contents[0].ID, nil, env.token)
	require.Equal(t, http.StatusOK, status, resp.Message)
	var deleted struct {
		ID      string `json:"id"`
		Warning string `json:"warning"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &deleted))
	assert.Equal(t, added.Contents[0].ID, deleted.ID)
	assert.Contains(t, deleted.Warning, "Drive file could not be deleted")
	assert.Empty(t, env.drive.deletedIDs())

	var stored models.Chapter
	require.NoError(t, env.db.Where("id = ?", loc.ChapterID).First(&stored).Error)
	items, err := stored.Contents()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDraftCommit(t *testing.T) {
	env := setupTestEnv(t)
	loc := env.seedChapter(t)

	status, _ := env.do(t, http.MethodPost, "/admin/draft/commit", nil, env.token)
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp := env.do(t, http.MethodPut, "/admin/draft", fiber.Map{
		"location": loc,
		"contents": []fiber.Map{
			{"type": "playlist", "title": "Full course", "url": "https://www.youtube.com/playlist?list=PL1"},
		},
	}, env.token)
	require.Equal(t, http.StatusOK, status, resp.Message)

	status, resp = env.do(t, http.MethodGet, "/admin/draft", nil, env.token)
	require.Equal(t, http.StatusOK, status)
	var draft utils.Draft
	require.NoError(t, json.Unmarshal(resp.Data, &draft))
	require.Len(t, draft.Contents, 1)
	assert.NotEmpty(t, draft.Contents[0].ID)

	status, resp = env.do(t, http.MethodPost, "/admin/draft/commit", nil, env.token)
	require.Equal(t, http.StatusCreated, status, resp.Message)

	var stored models.Chapter
	require.NoError(t, env.db.Where("id = ?", loc.ChapterID).First(&stored).Error)
	items, err := stored.Contents()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, draft.Contents[0].ID, items[0].ID)

	status, resp = env.do(t, http.MethodGet, "/admin/draft", nil, env.token)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(resp.Data, &draft))
	assert.Empty(t, draft.Contents)
}

// postUpload sends one file with a title to POST /admin/uploads.
func (e *testEnv) postUpload(t *testing.T, loc models.Location, title, fileName string) (int, apiResponse) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{"courseId": loc.CourseID, "yearId": loc.YearID, "subjectId": loc.SubjectID, "chapterId": loc.ChapterID} {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.WriteField("titles", title))
	part, err := mw.CreateFormFile("files", fileName)
	require.NoError(t, err)
	part.Write([]byte("%PDF-1.4 fake"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+e.token)
	return e.send(t, req)
}

func TestUploadQueueAndHandoff(t *testing.T) {
	env := setupTestEnv(t)
	loc := env.seedChapter(t)

	status, resp := env.postUpload(t, loc, "Week 1 slides", "week1.pdf")
	require.Equal(t, http.StatusAccepted, status, resp.Message)

	var queued struct {
		BatchID string          `json:"batchId"`
		Uploads []models.Upload `json:"uploads"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &queued))
	require.Len(t, queued.Uploads, 1)
	upload := queued.Uploads[0]
	assert.Equal(t, models.UploadPending, upload.Status)
	assert.Equal(t, "Week 1 slides", upload.Title)
	assert.Equal(t, "Week 1 slides.pdf", upload.FileName)

	t.Run("handoff waits for completion", func(t *testing.T) {
		status, _ := env.do(t, http.MethodPost, "/admin/uploads/handoff", fiber.Map{"uploadIds": []string{upload.ID}}, env.token)
		assert.Equal(t, http.StatusConflict, status)
	})

	require.NoError(t, env.db.Model(&models.Upload{}).Where("id = ?", upload.ID).Updates(map[string]interface{}{
		"status": models.UploadCompleted,
		"url":    utils.ShareableURL("drv-week1"),
	}).Error)

	status, resp = env.do(t, http.MethodPost, "/admin/uploads/handoff", fiber.Map{"uploadIds": []string{upload.ID}}, env.token)
	require.Equal(t, http.StatusOK, status, resp.Message)
	var draft utils.Draft
	require.NoError(t, json.Unmarshal(resp.Data, &draft))
	assert.Equal(t, loc, draft.Location)
	require.Len(t, draft.Contents, 1)
	assert.Equal(t, models.ContentNotes, draft.Contents[0].Type)
	assert.Equal(t, "https://drive.google.com/file/d/drv-week1/view", draft.Contents[0].URL)

	status, _ = env.do(t, http.MethodPost, "/admin/uploads/handoff", fiber.Map{"uploadIds": []string{upload.ID}}, env.token)
	assert.Equal(t, http.StatusConflict, status)

	status, resp = env.do(t, http.MethodGet, "/admin/uploads?status=completed", nil, env.token)
	require.Equal(t, http.StatusOK, status)
	var list struct {
		Uploads []models.Upload `json:"uploads"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	require.Len(t, list.Uploads, 1)
	assert.True(t, list.Uploads[0].HandedOff)
}

func TestUploadRejectedWhenQueueIsFull(t *testing.T) {
	env := setupTestEnv(t)
	loc := env.seedChapter(t)

	utils.Uploads = utils.NewUploadWorker(env.db, utils.Drive, utils.NewChunkedUploader(1024), nil, 1)
	require.NoError(t, utils.Uploads.Enqueue(env.admin.ID, "earlier-batch", []string{"earlier-upload"}))

	status, resp := env.postUpload(t, loc, "Week 2 slides", "week2.pdf")
	require.Equal(t, http.StatusServiceUnavailable, status, resp.Message)

	var uploads []models.Upload
	require.NoError(t, env.db.Find(&uploads).Error)
	require.Len(t, uploads, 1)
	assert.Equal(t, models.UploadError, uploads[0].Status)
	assert.Equal(t, utils.ErrQueueFull.Error(), uploads[0].Error)

	staged, err := os.ReadDir(config.AppConfig.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, staged)

	// Nothing left for the next start to pick up.
	var pending int64
	env.db.Model(&models.Upload{}).Where("status = ?", models.UploadPending).Count(&pending)
	assert.Zero(t, pending)
}

func TestDeleteUpload(t *testing.T) {
	env := setupTestEnv(t)
	loc := env.seedChapter(t)

	status, resp := env.postUpload(t, loc, "Week 3 slides", "week3.pdf")
	require.Equal(t, http.StatusAccepted, status, resp.Message)
	var queued struct {
		Uploads []models.Upload `json:"uploads"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &queued))
	require.Len(t, queued.Uploads, 1)
	var upload models.Upload
	require.NoError(t, env.db.Where("id = ?", queued.Uploads[0].ID).First(&upload).Error)
	require.FileExists(t, upload.LocalPath)

	t.Run("in-flight upload is kept", func(t *testing.T) {
		require.NoError(t, env.db.Model(&models.Upload{}).Where("id = ?", upload.ID).Update("status", models.UploadUploading).Error)
		status, _ := env.do(t, http.MethodDelete, "/admin/uploads/"+upload.ID, nil, env.token)
		assert.Equal(t, http.StatusConflict, status)
	})

	require.NoError(t, env.db.Model(&models.Upload{}).Where("id = ?", upload.ID).Updates(map[string]interface{}{
		"status":    models.UploadCompleted,
		"remote_id": "drv-week3",
		"url":       utils.ShareableURL("drv-week3"),
	}).Error)

	status, resp = env.do(t, http.MethodDelete, "/admin/uploads/"+upload.ID, nil, env.token)
	require.Equal(t, http.StatusOK, status, resp.Message)
	assert.Equal(t, []string{"drv-week3"}, env.drive.deletedIDs())

	var count int64
	env.db.Model(&models.Upload{}).Where("id = ?", upload.ID).Count(&count)
	assert.Zero(t, count)
	_, err := os.Stat(upload.LocalPath)
	assert.True(t, os.IsNotExist(err))

	status, _ = env.do(t, http.MethodDelete, "/admin/uploads/"+upload.ID, nil, env.token)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDriveHelpers(t *testing.T) {
	env := setupTestEnv(t)

	status, _ := env.do(t, http.MethodPost, "/admin/drive/delete", fiber.Map{"fileUrl": "https://example.com/file/d/x/view"}, env.token)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodPost, "/admin/drive/delete", fiber.Map{"fileUrl": "https://drive.google.com/drive/folders/abc"}, env.token)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodPost, "/admin/drive/delete", fiber.Map{"fileUrl": "https://drive.google.com/file/d/zzz/view"}, env.token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"zzz"}, env.drive.deletedIDs())

	status, _ = env.do(t, http.MethodPost, "/admin/uploads/init", fiber.Map{"fileName": "a.pdf"}, env.token)
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp := env.do(t, http.MethodGet, "/admin/google/config", nil, env.token)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Status)

	req := httptest.NewRequest(http.MethodGet, "/admin/google/callback", nil)
	res, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/html")
}
