package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultChunkSize is the size of every byte range except possibly the last.
const DefaultChunkSize = 5 * 1024 * 1024

// statusResumeIncomplete is the resumable-upload "send the next range" status.
const statusResumeIncomplete = 308

// ChunkStatusError is returned when a chunk PUT answers with a status outside 308/200/201.
type ChunkStatusError struct {
	StatusCode int
	Body       string
}

func (e *ChunkStatusError) Error() string {
	return fmt.Sprintf("upload failed with status %d", e.StatusCode)
}

// ChunkedUploader sends a file to a resumable upload session one byte range at a time.
type ChunkedUploader struct {
	ChunkSize int
	http      *resty.Client
}

func NewChunkedUploader(chunkSize int) *ChunkedUploader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	client := resty.New().
		SetTimeout(5 * time.Minute).
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			// 308 is a protocol status here, never a redirect.
			return http.ErrUseLastResponse
		}))
	return &ChunkedUploader{ChunkSize: chunkSize, http: client}
}

// Upload reads total bytes from r and PUTs them to sessionURL with Content-Range headers.
// onProgress is called after every accepted chunk with the cumulative bytes sent. It returns the
// id of the created remote object.
func (u *ChunkedUploader) Upload(ctx context.Context, sessionURL string, r io.Reader, total int64, onProgress func(sent, total int64)) (string, error) {
	if total <= 0 {
		return "", errors.New("nothing to upload: file is empty")
	}

	buf := make([]byte, u.ChunkSize)
	var offset int64
	for offset < total {
		size := int64(u.ChunkSize)
		if remaining := total - offset; remaining < size {
			size = remaining
		}

		chunk := buf[:size]
		if _, err := io.ReadFull(r, chunk); err != nil {
			return "", fmt.Errorf("read bytes %d-%d: %w", offset, offset+size-1, err)
		}

		resp, err := u.http.R().
			SetContext(ctx).
			SetHeader("Content-Range", fmt.Sprintf("bytes %d-%d/%d", offset, offset+size-1, total)).
			SetBody(chunk).
			Put(sessionURL)
		if err != nil {
			return "", fmt.Errorf("send bytes %d-%d: %w", offset, offset+size-1, err)
		}

		status := resp.StatusCode()
		if status != statusResumeIncomplete && status != http.StatusOK && status != http.StatusCreated {
			return "", &ChunkStatusError{StatusCode: status, Body: resp.String()}
		}

		offset += size
		if onProgress != nil {
			onProgress(offset, total)
		}

		if status == http.StatusOK || status == http.StatusCreated {
			var result struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(resp.Body(), &result); err != nil {
				return "", fmt.Errorf("decode final response: %w", err)
			}
			if result.ID == "" {
				return "", errors.New("file id not found in response")
			}
			return result.ID, nil
		}
	}

	return "", fmt.Errorf("upload session never completed after %d bytes", offset)
}
