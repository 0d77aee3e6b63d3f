package storage

import (
	"context"
	"io"
)

// UploadResult - результат загрузки объекта в хранилище.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader - хранилище файлов (аватары пользователей).
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}
