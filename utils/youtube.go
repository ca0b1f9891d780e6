package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"coursehub/models"

	"github.com/go-resty/resty/v2"
)

var ErrInvalidYouTubeURL = errors.New("invalid YouTube URL")

// YouTubeRef is the classification of a YouTube link.
type YouTubeRef struct {
	Type models.ContentType
	ID   string
}

// YouTubeInfo is what the admin console needs to attach a video or playlist.
type YouTubeInfo struct {
	Type      models.ContentType `json:"type"`
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Thumbnail string             `json:"thumbnail"`
	Author    string             `json:"author"`
}

// OEmbedError is returned when the oEmbed endpoint answers with a non-2xx status.
type OEmbedError struct {
	StatusCode int
}

func (e *OEmbedError) Error() string {
	return fmt.Sprintf("oEmbed lookup failed with status %d", e.StatusCode)
}

// DetectYouTube classifies a link. A list= parameter always makes it a playlist, even when v= is
// also present. Otherwise youtube.com?v=ID and youtu.be/ID are videos.
func DetectYouTube(raw string) (YouTubeRef, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return YouTubeRef{}, false
	}

	q := u.Query()
	if list := q.Get("list"); list != "" {
		return YouTubeRef{Type: models.ContentPlaylist, ID: list}, true
	}

	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, "youtube.com") {
		if v := q.Get("v"); v != "" {
			return YouTubeRef{Type: models.ContentVideo, ID: v}, true
		}
	}

	if host == "youtu.be" {
		if id := strings.TrimPrefix(u.Path, "/"); id != "" {
			return YouTubeRef{Type: models.ContentVideo, ID: id}, true
		}
	}

	return YouTubeRef{}, false
}

// VideoThumbnail builds the SD-quality thumbnail URL for a video id.
func VideoThumbnail(videoID string) string {
	return "https://img.youtube.com/vi/" + videoID + "/sddefault.jpg"
}

// YouTubeClient resolves links through the public oEmbed endpoint.
type YouTubeClient struct {
	OEmbedURL string
	Cache     KVStore
	CacheTTL  time.Duration
	http      *resty.Client
}

// YouTube is the process-wide client, set in main.
var YouTube *YouTubeClient

func NewYouTubeClient(oembedURL string, cache KVStore, cacheTTL time.Duration) *YouTubeClient {
	return &YouTubeClient{
		OEmbedURL: oembedURL,
		Cache:     cache,
		CacheTTL:  cacheTTL,
		http:      resty.New().SetTimeout(15 * time.Second),
	}
}

// Lookup classifies the link and fetches its title, author and thumbnail.
func (y *YouTubeClient) Lookup(ctx context.Context, rawURL string) (*YouTubeInfo, error) {
	ref, ok := DetectYouTube(rawURL)
	if !ok {
		return nil, ErrInvalidYouTubeURL
	}

	cacheKey := "oembed:" + rawURL
	if y.Cache != nil {
		if cached, found, err := y.Cache.Get(ctx, cacheKey); err == nil && found {
			var info YouTubeInfo
			if json.Unmarshal([]byte(cached), &info) == nil {
				return &info, nil
			}
		}
	}

	var body struct {
		Title        string `json:"title"`
		AuthorName   string `json:"author_name"`
		ThumbnailURL string `json:"thumbnail_url"`
	}
	resp, err := y.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"url": rawURL, "format": "json"}).
		Get(y.OEmbedURL)
	if err != nil {
		return nil, fmt.Errorf("oEmbed request: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &OEmbedError{StatusCode: resp.StatusCode()}
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("decode oEmbed response: %w", err)
	}

	info := &YouTubeInfo{
		Type:   ref.Type,
		ID:     ref.ID,
		Title:  body.Title,
		Author: body.AuthorName,
	}
	if ref.Type == models.ContentVideo {
		info.Thumbnail = VideoThumbnail(ref.ID)
	} else {
		info.Thumbnail = body.ThumbnailURL
	}

	if y.Cache != nil && y.CacheTTL > 0 {
		if raw, err := json.Marshal(info); err == nil {
			if err := y.Cache.Set(ctx, cacheKey, string(raw), y.CacheTTL); err != nil {
				log.Printf("[YOUTUBE] Failed to cache oEmbed result: %v", err)
			}
		}
	}
	return info, nil
}
