package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/tieubaoca/finsight-be/logger"
	"github.com/tieubaoca/finsight-be/types"
	"github.com/tieubaoca/finsight-be/utils"
)

const MaxUploadSize = 10 << 20

// BlobStorage keeps uploaded statements under "<owner>/<filename>" keys.
type BlobStorage interface {
	Upload(ctx context.Context, key string, r io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

type Ingester interface {
	Ingest(ctx context.Context, req types.IngestRequest) (string, error)
}

type FileService struct {
	uploadDir string
	blobs     BlobStorage
	ingester  Ingester
	now       func() time.Time
	logger    *slog.Logger
}

func NewFileService(uploadDir string, blobs BlobStorage, ingester Ingester) (*FileService, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileService{
		uploadDir: uploadDir,
		blobs:     blobs,
		ingester:  ingester,
		now:       time.Now,
		logger:    logger.NewModuleLogger("service", "file"),
	}, nil
}

// UploadFile stores an uploaded statement and indexes it, returning the new
// document ID. The local copy stays on disk even if indexing fails.
func (s *FileService) UploadFile(ctx context.Context, ownerID string, file *multipart.FileHeader) (string, error) {
	if file == nil || file.Filename == "" {
		return "", fmt.Errorf("%w: No selected file", types.ErrValidation)
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		return "", fmt.Errorf("%w: unsupported file type %q", types.ErrValidation, filepath.Ext(file.Filename))
	}
	if file.Size > MaxUploadSize {
		return "", fmt.Errorf("%w: file exceeds %d bytes", types.ErrValidation, MaxUploadSize)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	return s.store(ctx, ownerID, file.Filename, src)
}

// IngestLocal runs a file already on disk through the same path as an upload.
func (s *FileService) IngestLocal(ctx context.Context, ownerID, filePath string) (string, error) {
	if !strings.EqualFold(filepath.Ext(filePath), ".pdf") {
		return "", fmt.Errorf("%w: unsupported file type %q", types.ErrValidation, filepath.Ext(filePath))
	}
	src, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrValidation, err)
	}
	defer src.Close()

	return s.store(ctx, ownerID, filepath.Base(filePath), src)
}

func (s *FileService) store(ctx context.Context, ownerID, filename string, src io.Reader) (string, error) {
	if ownerID == "" {
		ownerID = types.AnonymousOwner
	}
	safeName := utils.SanitizeFilename(filename)
	if safeName == "" {
		return "", fmt.Errorf("%w: invalid filename %q", types.ErrValidation, filename)
	}
	storedName := utils.TimestampedName(safeName, s.now())

	localPath, err := utils.SaveFile(src, s.uploadDir, storedName)
	if err != nil {
		return "", err
	}
	s.pushBlob(ctx, ownerID, storedName, localPath)

	id, err := s.ingester.Ingest(ctx, types.IngestRequest{
		OwnerID:  ownerID,
		Filename: storedName,
		Path:     localPath,
	})
	if err != nil {
		s.logger.Error("indexing failed, local file kept", "path", localPath, "error", err)
		return "", err
	}
	return id, nil
}

func (s *FileService) pushBlob(ctx context.Context, ownerID, storedName, localPath string) {
	if s.blobs == nil {
		return
	}
	f, err := os.Open(localPath)
	if err != nil {
		s.logger.Error("blob upload skipped", "path", localPath, "error", err)
		return
	}
	defer f.Close()

	key := BlobKey(ownerID, storedName)
	if err := s.blobs.Upload(ctx, key, f); err != nil {
		s.logger.Error("blob upload failed", "key", key, "error", err)
		return
	}
	s.logger.Info("blob uploaded", "key", key)
}

// ListFiles returns the filenames stored for ownerID.
func (s *FileService) ListFiles(ctx context.Context, ownerID string) ([]string, error) {
	if s.blobs == nil {
		return []string{}, nil
	}
	prefix := ownerID + "/"
	keys, err := s.blobs.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: list blobs: %w", types.ErrUpstream, err)
	}
	files := make([]string, 0, len(keys))
	for _, key := range keys {
		files = append(files, strings.TrimPrefix(key, prefix))
	}
	return files, nil
}

// Download opens a stored file. Missing blobs yield types.ErrNotFound.
func (s *FileService) Download(ctx context.Context, ownerID, filename string) (io.ReadCloser, error) {
	safeName := utils.SanitizeFilename(filename)
	if safeName == "" || safeName != filename {
		return nil, fmt.Errorf("%w: invalid filename %q", types.ErrValidation, filename)
	}
	if s.blobs == nil {
		return nil, fmt.Errorf("file %s: %w", filename, types.ErrNotFound)
	}
	return s.blobs.Download(ctx, BlobKey(ownerID, safeName))
}

func BlobKey(ownerID, filename string) string {
	return path.Join(ownerID, filename)
}
