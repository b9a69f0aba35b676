package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/devbuild/doctorate-api/internal/models"
	appErrors "github.com/devbuild/doctorate-api/pkg/errors"
)

type documentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, id string) (*models.Document, error)
	ListByParent(ctx context.Context, parentType models.DocumentParent, parentID string) ([]models.Document, error)
	Delete(ctx context.Context, id string) error
}

type documentBlobs interface {
	Store(id string, data []byte) error
	Fetch(id string) ([]byte, error)
	Delete(id string) error
}

type enrollmentLookup interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
}

type defenseLookup interface {
	FindByID(ctx context.Context, id string) (*models.DefenseRequest, error)
}

// DocumentService manages uploaded files of both workflows. Metadata lives
// in the database, payloads in the blob store keyed by document id.
type DocumentService struct {
	docs        documentRepository
	blobs       documentBlobs
	enrollments enrollmentLookup
	defenses    defenseLookup
	maxSize     int64
	logger      *zap.Logger
}

// NewDocumentService constructs DocumentService.
func NewDocumentService(docs documentRepository, blobs documentBlobs, enrollments enrollmentLookup, defenses defenseLookup, maxSize int64, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxSize <= 0 {
		maxSize = 10 << 20
	}
	return &DocumentService{
		docs:        docs,
		blobs:       blobs,
		enrollments: enrollments,
		defenses:    defenses,
		maxSize:     maxSize,
		logger:      logger,
	}
}

// Upload attaches a file to a workflow entity. The parent must exist and
// the kind must belong to the parent's workflow.
func (s *DocumentService) Upload(ctx context.Context, parent models.DocumentParent, parentID string, kind models.DocumentKind, fileName, contentType string, data []byte) (*models.Document, error) {
	if len(data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "empty file")
	}
	if int64(len(data)) > s.maxSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds the %d byte limit", s.maxSize))
	}
	if !models.ValidDocumentKind(parent, kind) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("document kind %s is not valid for %s", kind, parent))
	}
	if err := s.checkParent(ctx, parent, parentID); err != nil {
		return nil, err
	}

	doc := &models.Document{
		ParentType:  parent,
		ParentID:    parentID,
		Kind:        kind,
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(data)),
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save document metadata")
	}
	if err := s.blobs.Store(doc.ID, data); err != nil {
		if delErr := s.docs.Delete(ctx, doc.ID); delErr != nil {
			s.logger.Error("orphaned document row after blob failure",
				zap.String("document_id", doc.ID),
				zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document payload")
	}
	return doc, nil
}

// Fetch returns metadata and payload of a document.
func (s *DocumentService) Fetch(ctx context.Context, id string) (*models.Document, []byte, error) {
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	data, err := s.blobs.Fetch(id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "document payload missing")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read document payload")
	}
	return doc, data, nil
}

// List returns the document metadata of a workflow entity.
func (s *DocumentService) List(ctx context.Context, parent models.DocumentParent, parentID string) ([]models.Document, error) {
	docs, err := s.docs.ListByParent(ctx, parent, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return docs, nil
}

// Delete removes metadata and payload. A missing blob after the row is
// gone only gets logged.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete document")
	}
	if err := s.blobs.Delete(id); err != nil {
		s.logger.Warn("orphaned document blob", zap.String("document_id", id), zap.Error(err))
	}
	return nil
}

func (s *DocumentService) checkParent(ctx context.Context, parent models.DocumentParent, parentID string) error {
	var err error
	switch parent {
	case models.DocumentParentEnrollment:
		_, err = s.enrollments.FindByID(ctx, parentID)
	case models.DocumentParentDefense:
		_, err = s.defenses.FindByID(ctx, parentID)
	default:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown document parent %s", parent))
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s %s not found", parent, parentID))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check document parent")
	}
	return nil
}
