package services

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/yoockh/mockmate/internal/models"
	pgrepo "github.com/yoockh/mockmate/internal/repositories/postgres"
	"github.com/yoockh/mockmate/internal/storage"
	"github.com/yoockh/mockmate/internal/utils"
)

type CVUpload struct {
	UserID     string
	ResumeID   string
	Kind       string // models.FileKindResume | models.FileKindJD
	FileName   string
	FileSize   int
	MimeType   string
	ObjectName string
	Body       io.Reader
}

// CVFileService stores uploaded documents and keeps a metadata row per file.
type CVFileService interface {
	Upload(ctx context.Context, in CVUpload) (*models.CVFile, error)
	ListByResume(ctx context.Context, resumeID string) ([]models.CVFile, error)
}

type cvFileService struct {
	repo     pgrepo.CVFileRepository
	uploader storage.Uploader
}

func NewCVFileService(repo pgrepo.CVFileRepository, uploader storage.Uploader) CVFileService {
	return &cvFileService{repo: repo, uploader: uploader}
}

func (s *cvFileService) Upload(ctx context.Context, in CVUpload) (*models.CVFile, error) {
	const op = "CVFileService.Upload"

	if in.UserID == "" || in.ObjectName == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and object_name are required", nil)
	}
	if s.uploader == nil {
		return nil, utils.E(utils.CodeInternal, op, "uploader is not configured", nil)
	}

	storedPath, err := s.uploader.Upload(ctx, in.ObjectName, in.MimeType, in.Body)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to upload file", err)
	}

	kind := in.Kind
	if kind == "" {
		kind = models.FileKindResume
	}
	row := &models.CVFile{
		ID:       uuid.NewString(),
		UserID:   in.UserID,
		ResumeID: in.ResumeID,
		Kind:     kind,
		FileName: in.FileName,
		FilePath: storedPath,
		FileSize: in.FileSize,
		MimeType: in.MimeType,
		UploadAt: time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to persist cv file metadata", err)
	}
	return row, nil
}

func (s *cvFileService) ListByResume(ctx context.Context, resumeID string) ([]models.CVFile, error) {
	const op = "CVFileService.ListByResume"

	rows, err := s.repo.ListByResume(ctx, resumeID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list files", err)
	}
	return rows, nil
}
