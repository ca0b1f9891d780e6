package utils

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chunkRecorder struct {
	mu     sync.Mutex
	ranges []string
	bodies [][]byte
}

func (r *chunkRecorder) record(req *http.Request) int {
	body, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ranges = append(r.ranges, req.Header.Get("Content-Range"))
	r.bodies = append(r.bodies, body)
	return len(r.ranges)
}

func TestChunkedUploader_SendsRangesInOrder(t *testing.T) {
	rec := &chunkRecorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, http.MethodPut, req.Method)
		n := rec.record(req)
		if n < 3 {
			w.WriteHeader(statusResumeIncomplete)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"file-123","name":"notes.pdf"}`))
	}))
	defer server.Close()

	data := []byte("abcdefghij")
	uploader := NewChunkedUploader(4)

	var progress []int64
	id, err := uploader.Upload(context.Background(), server.URL, bytes.NewReader(data), int64(len(data)), func(sent, total int64) {
		assert.Equal(t, int64(10), total)
		progress = append(progress, sent)
	})
	require.NoError(t, err)
	assert.Equal(t, "file-123", id)

	assert.Equal(t, []string{"bytes 0-3/10", "bytes 4-7/10", "bytes 8-9/10"}, rec.ranges)
	assert.Equal(t, "abcd", string(rec.bodies[0]))
	assert.Equal(t, "efgh", string(rec.bodies[1]))
	assert.Equal(t, "ij", string(rec.bodies[2]))
	assert.Equal(t, []int64{4, 8, 10}, progress)
}

func TestChunkedUploader_SingleChunkCreated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "bytes 0-4/5", req.Header.Get("Content-Range"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"small"}`))
	}))
	defer server.Close()

	id, err := NewChunkedUploader(0).Upload(context.Background(), server.URL, strings.NewReader("hello"), 5, nil)
	require.NoError(t, err)
	assert.Equal(t, "small", id)
}

func TestChunkedUploader_Errors(t *testing.T) {
	t.Run("unexpected status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte("quota exceeded"))
		}))
		defer server.Close()

		_, err := NewChunkedUploader(4).Upload(context.Background(), server.URL, strings.NewReader("abcdef"), 6, nil)
		var statusErr *ChunkStatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
		assert.Equal(t, "quota exceeded", statusErr.Body)
	})

	t.Run("final response without id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"name":"x"}`))
		}))
		defer server.Close()

		_, err := NewChunkedUploader(4).Upload(context.Background(), server.URL, strings.NewReader("ab"), 2, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "file id not found")
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := NewChunkedUploader(4).Upload(context.Background(), "http://unused", strings.NewReader(""), 0, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	})

	t.Run("short reader", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(statusResumeIncomplete)
		}))
		defer server.Close()

		_, err := NewChunkedUploader(4).Upload(context.Background(), server.URL, strings.NewReader("abcdef"), 10, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("cancelled context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(statusResumeIncomplete)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewChunkedUploader(4).Upload(ctx, server.URL, strings.NewReader("abcdef"), 6, nil)
		assert.Error(t, err)
	})
}
