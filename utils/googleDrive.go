package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"coursehub/config"

	"github.com/go-resty/resty/v2"
)

const folderMimeType = "application/vnd.google-apps.folder"

var (
	ErrCredentialsMissing = errors.New("Google credentials not configured")

	driveFileIDPattern = regexp.MustCompile(`file/d/(.*?)/`)
)

// DriveAPIError carries the status and body of a failed Drive or OAuth call.
type DriveAPIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *DriveAPIError) Error() string {
	return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.StatusCode, e.Body)
}

// UploadInitRequest describes the file a resumable session is opened for.
type UploadInitRequest struct {
	FileName  string `json:"fileName" validate:"required"`
	MimeType  string `json:"mimeType"`
	FileSize  int64  `json:"fileSize"`
	CourseID  string `json:"courseId" validate:"required"`
	YearID    string `json:"yearId" validate:"required"`
	SubjectID string `json:"subjectId" validate:"required"`
	ChapterID string `json:"chapterId" validate:"required"`
}

// UploadSession is handed to whoever sends the chunks.
type UploadSession struct {
	UploadURL   string `json:"uploadUrl"`
	AccessToken string `json:"accessToken"`
}

// OAuthTokens is the result of an authorization-code exchange.
type OAuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// DriveClient talks to the Google OAuth token endpoint and the Drive v3 API.
type DriveClient struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	RedirectURI  string
	TokenURL     string
	APIURL       string
	UploadURL    string
	http         *resty.Client
}

// Drive is the process-wide client, set in main.
var Drive *DriveClient

func NewDriveClient(cfg *config.Config) *DriveClient {
	return &DriveClient{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RefreshToken: cfg.GoogleRefreshToken,
		RedirectURI:  cfg.GoogleRedirectURI,
		TokenURL:     cfg.GoogleTokenURL,
		APIURL:       strings.TrimRight(cfg.DriveAPIURL, "/"),
		UploadURL:    strings.TrimRight(cfg.DriveUploadURL, "/"),
		http:         resty.New().SetTimeout(60 * time.Second),
	}
}

// AccessToken exchanges the configured refresh token for a fresh access token.
func (d *DriveClient) AccessToken(ctx context.Context) (string, error) {
	if d.ClientID == "" || d.ClientSecret == "" || d.RefreshToken == "" {
		return "", ErrCredentialsMissing
	}

	resp, err := d.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"client_id":     d.ClientID,
			"client_secret": d.ClientSecret,
			"refresh_token": d.RefreshToken,
			"grant_type":    "refresh_token",
		}).
		Post(d.TokenURL)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	if !resp.IsSuccess() {
		return "", &DriveAPIError{Op: "token exchange", StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	var tok OAuthTokens
	if err := json.Unmarshal(resp.Body(), &tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("token response has no access_token")
	}
	return tok.AccessToken, nil
}

// ExchangeCode trades an OAuth authorization code for tokens. Used once to obtain the refresh token.
func (d *DriveClient) ExchangeCode(ctx context.Context, code string) (*OAuthTokens, error) {
	if d.ClientID == "" || d.ClientSecret == "" || d.RedirectURI == "" {
		return nil, ErrCredentialsMissing
	}

	resp, err := d.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"code":          code,
			"client_id":     d.ClientID,
			"client_secret": d.ClientSecret,
			"redirect_uri":  d.RedirectURI,
			"grant_type":    "authorization_code",
		}).
		Post(d.TokenURL)
	if err != nil {
		return nil, fmt.Errorf("code exchange: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &DriveAPIError{Op: "code exchange", StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	var tok OAuthTokens
	if err := json.Unmarshal(resp.Body(), &tok); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	return &tok, nil
}

// FindOrCreateFolder returns the id of the named folder under parentID (or the drive root when
// parentID is empty), creating it if no untrashed folder matches.
func (d *DriveClient) FindOrCreateFolder(ctx context.Context, token, name, parentID string) (string, error) {
	query := fmt.Sprintf("mimeType='%s' and name='%s' and trashed=false", folderMimeType, escapeQueryValue(name))
	if parentID != "" {
		query += fmt.Sprintf(" and '%s' in parents", escapeQueryValue(parentID))
	}

	var found struct {
		Files []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"files"`
	}
	resp, err := d.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(map[string]string{"q": query, "fields": "files(id, name)"}).
		Get(d.APIURL + "/files")
	if err != nil {
		return "", fmt.Errorf("search folder %q: %w", name, err)
	}
	if !resp.IsSuccess() {
		return "", &DriveAPIError{Op: "search folder " + name, StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	if err := json.Unmarshal(resp.Body(), &found); err != nil {
		return "", fmt.Errorf("decode folder search: %w", err)
	}
	if len(found.Files) > 0 {
		return found.Files[0].ID, nil
	}

	metadata := map[string]interface{}{
		"name":     name,
		"mimeType": folderMimeType,
	}
	if parentID != "" {
		metadata["parents"] = []string{parentID}
	}

	var created struct {
		ID string `json:"id"`
	}
	resp, err = d.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(metadata).
		Post(d.APIURL + "/files")
	if err != nil {
		return "", fmt.Errorf("create folder %q: %w", name, err)
	}
	if !resp.IsSuccess() {
		return "", &DriveAPIError{Op: "create folder " + name, StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	if err := json.Unmarshal(resp.Body(), &created); err != nil {
		return "", fmt.Errorf("decode created folder: %w", err)
	}
	log.Printf("[DRIVE] Created folder %q (%s)", name, created.ID)
	return created.ID, nil
}

// EnsureFolderPath resolves each segment in turn, nesting every folder under the previous one.
func (d *DriveClient) EnsureFolderPath(ctx context.Context, token string, segments ...string) (string, error) {
	parent := ""
	for _, segment := range segments {
		id, err := d.FindOrCreateFolder(ctx, token, segment, parent)
		if err != nil {
			return "", err
		}
		parent = id
	}
	return parent, nil
}

// InitResumableUpload opens a resumable upload session inside folderID and returns the session URL.
func (d *DriveClient) InitResumableUpload(ctx context.Context, token, folderID string, req UploadInitRequest, origin string) (string, error) {
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	r := d.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("X-Upload-Content-Type", mimeType).
		SetBody(map[string]interface{}{
			"name":    req.FileName,
			"parents": []string{folderID},
		})
	if req.FileSize > 0 {
		r.SetHeader("X-Upload-Content-Length", strconv.FormatInt(req.FileSize, 10))
	}
	if origin != "" {
		r.SetHeader("Origin", origin)
	}

	resp, err := r.Post(d.UploadURL + "/files?uploadType=resumable")
	if err != nil {
		return "", fmt.Errorf("initiate upload: %w", err)
	}
	if !resp.IsSuccess() {
		return "", &DriveAPIError{Op: "initiate upload", StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	location := resp.Header().Get("Location")
	if location == "" {
		return "", errors.New("initiate upload: response has no Location header")
	}
	return location, nil
}

// CreateUploadSession exchanges a token, resolves course/year/subject/chapter folders and opens
// a resumable session for the file.
func (d *DriveClient) CreateUploadSession(ctx context.Context, req UploadInitRequest, origin string) (*UploadSession, error) {
	token, err := d.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	folderID, err := d.EnsureFolderPath(ctx, token, req.CourseID, req.YearID, req.SubjectID, req.ChapterID)
	if err != nil {
		return nil, err
	}

	uploadURL, err := d.InitResumableUpload(ctx, token, folderID, req, origin)
	if err != nil {
		return nil, err
	}
	return &UploadSession{UploadURL: uploadURL, AccessToken: token}, nil
}

// GrantPublicRead lets anyone with the link read the file.
func (d *DriveClient) GrantPublicRead(ctx context.Context, token, fileID string) error {
	resp, err := d.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(map[string]string{"role": "reader", "type": "anyone"}).
		Post(d.APIURL + "/files/" + fileID + "/permissions")
	if err != nil {
		return fmt.Errorf("grant permission on %s: %w", fileID, err)
	}
	if !resp.IsSuccess() {
		return &DriveAPIError{Op: "grant permission", StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}

// SetPublic exchanges a fresh token and grants public read on fileID.
func (d *DriveClient) SetPublic(ctx context.Context, fileID string) error {
	token, err := d.AccessToken(ctx)
	if err != nil {
		return err
	}
	return d.GrantPublicRead(ctx, token, fileID)
}

// DeleteFile removes fileID. A 404 counts as success since the file is already gone.
func (d *DriveClient) DeleteFile(ctx context.Context, fileID string) error {
	token, err := d.AccessToken(ctx)
	if err != nil {
		return err
	}

	resp, err := d.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		Delete(d.APIURL + "/files/" + fileID)
	if err != nil {
		return fmt.Errorf("delete file %s: %w", fileID, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		log.Printf("[DRIVE] File %s was already deleted", fileID)
		return nil
	}
	if !resp.IsSuccess() {
		return &DriveAPIError{Op: "delete file", StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}

// ExtractDriveFileID pulls the id out of a ".../file/d/{id}/..." URL.
func ExtractDriveFileID(fileURL string) (string, bool) {
	m := driveFileIDPattern.FindStringSubmatch(fileURL)
	if len(m) < 2 || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// IsDriveURL reports whether the URL points at Google Drive.
func IsDriveURL(fileURL string) bool {
	return strings.Contains(fileURL, "drive.google.com")
}

// ShareableURL is the view link recorded for an uploaded file.
func ShareableURL(fileID string) string {
	return "https://drive.google.com/file/d/" + fileID + "/view"
}

func escapeQueryValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
