package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"cloud-lab/internal/domain"
	"cloud-lab/internal/storage"
)

const textContentTypePrefix = "text/"

type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	Read(ctx context.Context, key string) ([]byte, error)
}

type FileService struct {
	store ObjectStore
}

type UploadInput struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

type UploadOutput struct {
	Message string
}

func NewFileService(s ObjectStore) (*FileService, error) {
	if s == nil {
		return nil, errors.New("usecase: object store must not be nil")
	}
	return &FileService{store: s}, nil
}

// Upload stores a text file under its own name. Anything whose declared
// content type is not text/* is rejected before reaching the store.
func (s *FileService) Upload(ctx context.Context, in UploadInput) (UploadOutput, error) {
	if in.FileName == "" || in.Body == nil {
		return UploadOutput{}, newError(ErrorInvalidInput, "A file is required.", nil)
	}
	if !strings.HasPrefix(in.ContentType, textContentTypePrefix) {
		return UploadOutput{}, newError(ErrorUnsupportedMedia, "Only text files are allowed.", nil)
	}

	if err := s.store.Upload(ctx, in.FileName, in.Body, in.ContentType); err != nil {
		return UploadOutput{}, newError(ErrorInternal, err.Error(), err)
	}
	return UploadOutput{Message: fmt.Sprintf("File '%s' uploaded successfully.", in.FileName)}, nil
}

// Read returns the stored file decoded as UTF-8 text.
func (s *FileService) Read(ctx context.Context, fileName string) (domain.File, error) {
	if fileName == "" {
		return domain.File{}, newError(ErrorInvalidInput, "A file name is required.", nil)
	}

	buf, err := s.store.Read(ctx, fileName)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.File{}, newError(ErrorNotFound, "File not found.", err)
	}
	if err != nil {
		return domain.File{}, newError(ErrorInternal, err.Error(), err)
	}
	if !utf8.Valid(buf) {
		return domain.File{}, newError(ErrorInternal, fmt.Sprintf("File '%s' is not valid UTF-8 text.", fileName), nil)
	}
	return domain.File{Name: fileName, Content: buf}, nil
}
