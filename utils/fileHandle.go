package utils

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// SaveUploadedFile copies a multipart file into destDir as baseName plus the original extension
// and returns the written path.
func SaveUploadedFile(file *multipart.FileHeader, destDir, baseName string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	// Create destination directory if it doesn't exist
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}

	filePath := filepath.Join(destDir, baseName+filepath.Ext(file.Filename))

	dst, err := os.Create(filePath)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(filePath)
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(filePath)
		return "", err
	}

	return filePath, nil
}
