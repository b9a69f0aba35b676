package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devbuild/doctorate-api/internal/models"
	appErrors "github.com/devbuild/doctorate-api/pkg/errors"
)

type mockDocumentRepo struct {
	docs    map[string]models.Document
	deleted []string
}

func (m *mockDocumentRepo) Create(ctx context.Context, doc *models.Document) error {
	if m.docs == nil {
		m.docs = make(map[string]models.Document)
	}
	if doc.ID == "" {
		doc.ID = "new-doc"
	}
	m.docs[doc.ID] = *doc
	return nil
}

func (m *mockDocumentRepo) FindByID(ctx context.Context, id string) (*models.Document, error) {
	if d, ok := m.docs[id]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDocumentRepo) ListByParent(ctx context.Context, parentType models.DocumentParent, parentID string) ([]models.Document, error) {
	var list []models.Document
	for _, d := range m.docs {
		if d.ParentType == parentType && d.ParentID == parentID {
			list = append(list, d)
		}
	}
	return list, nil
}

func (m *mockDocumentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.docs[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.docs, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockDocumentBlobs struct {
	stored   map[string][]byte
	deleted  []string
	storeErr error
}

func (m *mockDocumentBlobs) Store(id string, data []byte) error {
	if m.storeErr != nil {
		return m.storeErr
	}
	if m.stored == nil {
		m.stored = make(map[string][]byte)
	}
	m.stored[id] = data
	return nil
}

func (m *mockDocumentBlobs) Fetch(id string) ([]byte, error) {
	if data, ok := m.stored[id]; ok {
		return data, nil
	}
	return nil, os.ErrNotExist
}

func (m *mockDocumentBlobs) Delete(id string) error {
	delete(m.stored, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func newDocumentService(repo *mockDocumentRepo, blobs *mockDocumentBlobs, enrollments *mockEnrollmentRepo, defenses *mockDefenseRepo) *DocumentService {
	if blobs == nil {
		blobs = &mockDocumentBlobs{}
	}
	if enrollments == nil {
		enrollments = &mockEnrollmentRepo{}
	}
	if defenses == nil {
		defenses = &mockDefenseRepo{}
	}
	return NewDocumentService(repo, blobs, enrollments, defenses, 1<<20, zap.NewNop())
}

func TestDocumentServiceUploadAndFetch(t *testing.T) {
	repo := &mockDocumentRepo{}
	blobs := &mockDocumentBlobs{}
	enrollments := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", Status: models.EnrollmentStatusSubmitted},
	}}
	svc := newDocumentService(repo, blobs, enrollments, nil)

	doc, err := svc.Upload(context.Background(), models.DocumentParentEnrollment, "e1",
		models.DocumentKindDegreeCopy, "degree.pdf", "application/pdf", []byte("pdf-bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(9), doc.Size)

	fetched, data, err := svc.Fetch(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "degree.pdf", fetched.FileName)
	assert.Equal(t, []byte("pdf-bytes"), data)
}

func TestDocumentServiceUploadUnknownParent(t *testing.T) {
	svc := newDocumentService(&mockDocumentRepo{}, nil, &mockEnrollmentRepo{}, nil)

	_, err := svc.Upload(context.Background(), models.DocumentParentEnrollment, "missing",
		models.DocumentKindDegreeCopy, "degree.pdf", "application/pdf", []byte("pdf"))
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestDocumentServiceUploadWrongKindForWorkflow(t *testing.T) {
	enrollments := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1"},
	}}
	svc := newDocumentService(&mockDocumentRepo{}, nil, enrollments, nil)

	_, err := svc.Upload(context.Background(), models.DocumentParentEnrollment, "e1",
		models.DocumentKindThesisReport, "report.pdf", "application/pdf", []byte("pdf"))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestDocumentServiceUploadTooLarge(t *testing.T) {
	enrollments := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1"},
	}}
	repo := &mockDocumentRepo{}
	svc := NewDocumentService(repo, &mockDocumentBlobs{}, enrollments, &mockDefenseRepo{}, 4, zap.NewNop())

	_, err := svc.Upload(context.Background(), models.DocumentParentEnrollment, "e1",
		models.DocumentKindDegreeCopy, "degree.pdf", "application/pdf", []byte("too large"))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestDocumentServiceUploadBlobFailureRollsBackRow(t *testing.T) {
	enrollments := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1"},
	}}
	repo := &mockDocumentRepo{}
	blobs := &mockDocumentBlobs{storeErr: errors.New("disk full")}
	svc := newDocumentService(repo, blobs, enrollments, nil)

	_, err := svc.Upload(context.Background(), models.DocumentParentEnrollment, "e1",
		models.DocumentKindDegreeCopy, "degree.pdf", "application/pdf", []byte("pdf"))
	require.Error(t, err)
	assert.Empty(t, repo.docs)
}

func TestDocumentServiceFetchMissing(t *testing.T) {
	svc := newDocumentService(&mockDocumentRepo{}, nil, nil, nil)

	_, _, err := svc.Fetch(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestDocumentServiceDeleteRemovesBlob(t *testing.T) {
	repo := &mockDocumentRepo{docs: map[string]models.Document{
		"doc-1": {ID: "doc-1", ParentType: models.DocumentParentEnrollment, ParentID: "e1"},
	}}
	blobs := &mockDocumentBlobs{stored: map[string][]byte{"doc-1": []byte("pdf")}}
	svc := newDocumentService(repo, blobs, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "doc-1"))
	assert.Contains(t, repo.deleted, "doc-1")
	assert.Contains(t, blobs.deleted, "doc-1")
}
