package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"nanogen/internal/domain"
	"nanogen/internal/infra"
	"nanogen/internal/storage"
)

const uploadPrefix = "uploads"

// UploadService validates and stores reference images ahead of
// image-to-image jobs.
type UploadService struct {
	uploads domain.UploadRepository
	store   *storage.FileStore
	baseURL string
	logger  infra.Logger
}

// NewUploadService wires the service. baseURL prefixes the client-facing
// URL of each stored file.
func NewUploadService(uploads domain.UploadRepository, store *storage.FileStore, baseURL string, logger infra.Logger) *UploadService {
	return &UploadService{
		uploads: uploads,
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Save validates the upload, writes the bytes to the blob store and
// records the file. Validation happens before any storage write.
func (s *UploadService) Save(ctx context.Context, data []byte, originalName, contentType, sessionID string) (*domain.UploadedFile, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrValidation)
	}
	if err := domain.ValidateUpload(int64(len(data)), contentType); err != nil {
		return nil, err
	}

	width, height, err := decodeBounds(data, contentType)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(path.Ext(originalName))
	if ext == "" {
		ext = domain.AllowedUploadTypes[contentType]
	}
	id := uuid.NewString()
	storedName := id + ext

	if _, err := s.store.Write(ctx, path.Join(uploadPrefix, storedName), data); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	file := &domain.UploadedFile{
		ID:           id,
		StoredName:   storedName,
		OriginalName: originalName,
		SizeBytes:    int64(len(data)),
		ContentType:  contentType,
		Width:        width,
		Height:       height,
		SessionID:    sessionID,
		URL:          s.baseURL + "/" + storedName,
		UploadedAt:   time.Now().UTC(),
	}
	if err := s.uploads.Create(ctx, file); err != nil {
		return nil, fmt.Errorf("record upload: %w", err)
	}

	s.logger.Info().Str("file", storedName).Int64("bytes", file.SizeBytes).Msg("upload: file stored")
	return file, nil
}

// Get returns the stored bytes and content type for a file name.
func (s *UploadService) Get(ctx context.Context, storedName string) ([]byte, string, error) {
	data, err := s.store.Read(ctx, path.Join(uploadPrefix, storedName))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", err
	}
	contentType := contentTypeByExt(storedName)
	if file, err := s.uploads.GetByStoredName(ctx, storedName); err == nil {
		contentType = file.ContentType
	}
	return data, contentType, nil
}

// Delete removes the stored bytes and the record. Best-effort: deleting an
// absent file succeeds.
func (s *UploadService) Delete(ctx context.Context, storedName string) error {
	if err := s.store.Delete(ctx, path.Join(uploadPrefix, storedName)); err != nil {
		return err
	}
	if file, err := s.uploads.GetByStoredName(ctx, storedName); err == nil {
		if err := s.uploads.Delete(ctx, file.ID); err != nil {
			return err
		}
	}
	return nil
}

// CleanupOlderThan deletes uploads older than the given number of days,
// regardless of job linkage, and reports how many were removed.
func (s *UploadService) CleanupOlderThan(ctx context.Context, days int) (int, error) {
	if days <= 0 {
		days = 7
	}
	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)

	files, err := s.uploads.ListOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, file := range files {
		if err := s.store.Delete(ctx, path.Join(uploadPrefix, file.StoredName)); err != nil {
			s.logger.Warn().Err(err).Str("file", file.StoredName).Msg("cleanup: delete blob failed")
			continue
		}
		if err := s.uploads.Delete(ctx, file.ID); err != nil {
			s.logger.Warn().Err(err).Str("file", file.StoredName).Msg("cleanup: delete record failed")
			continue
		}
		removed++
	}
	s.logger.Info().Int("removed", removed).Int("days", days).Msg("cleanup: sweep finished")
	return removed, nil
}

// StorageStats describes the upload store for the admin endpoint.
type StorageStats struct {
	FileCount  int    `json:"fileCount"`
	TotalBytes int64  `json:"totalBytes"`
	BasePath   string `json:"basePath"`
}

// Stats reports upload count and combined size.
func (s *UploadService) Stats(ctx context.Context) (*StorageStats, error) {
	count, total, err := s.uploads.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &StorageStats{FileCount: count, TotalBytes: total, BasePath: s.store.BasePath()}, nil
}

// decodeBounds confirms the payload is a decodable image and captures its
// dimensions. webp has no decoder registered here, so only size and type
// checks apply to it.
func decodeBounds(data []byte, contentType string) (int, int, error) {
	if contentType == "image/webp" {
		return 0, 0, nil
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: file is not a decodable image", domain.ErrUploadRejected)
	}
	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy(), nil
}

func contentTypeByExt(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
