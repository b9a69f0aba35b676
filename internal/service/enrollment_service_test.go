package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devbuild/doctorate-api/internal/models"
	appErrors "github.com/devbuild/doctorate-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollments map[string]models.Enrollment
	created     *models.Enrollment
	deleted     []string
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.Enrollment)
	}
	if enrollment.ID == "" {
		enrollment.ID = "new-enrollment"
	}
	m.enrollments[enrollment.ID] = *enrollment
	m.created = enrollment
	return nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	var list []models.Enrollment
	for _, e := range m.enrollments {
		list = append(list, e)
	}
	return list, len(list), nil
}

func (m *mockEnrollmentRepo) Update(ctx context.Context, enrollment *models.Enrollment) error {
	if _, ok := m.enrollments[enrollment.ID]; !ok {
		return sql.ErrNoRows
	}
	m.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (m *mockEnrollmentRepo) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, supervisorComment, adminComment *string, validatedAt *time.Time) error {
	e, ok := m.enrollments[id]
	if !ok {
		return sql.ErrNoRows
	}
	e.Status = status
	if supervisorComment != nil {
		e.SupervisorComment = supervisorComment
	}
	if adminComment != nil {
		e.AdminComment = adminComment
	}
	if validatedAt != nil {
		e.ValidatedAt = validatedAt
	}
	m.enrollments[id] = e
	return nil
}

func (m *mockEnrollmentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.enrollments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.enrollments, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockDocumentLister struct {
	docs map[string][]models.Document
}

func (m *mockDocumentLister) ListByParent(ctx context.Context, parentType models.DocumentParent, parentID string) ([]models.Document, error) {
	return m.docs[parentID], nil
}

func (m *mockDocumentLister) ListIDsByParent(ctx context.Context, parentType models.DocumentParent, parentID string) ([]string, error) {
	var ids []string
	for _, d := range m.docs[parentID] {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

type mockCampaignGate struct {
	campaign *models.Campaign
	err      error
}

func (m *mockCampaignGate) FindOpen(ctx context.Context, enrollmentType models.EnrollmentType, asOf time.Time) (*models.Campaign, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.campaign, nil
}

type mockDirectory struct {
	users map[string]models.DirectoryUser
	err   error
}

func (m *mockDirectory) Lookup(ctx context.Context, id string) (*models.DirectoryUser, error) {
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found in directory")
}

type mockBlobRemover struct {
	deleted []string
	err     error
}

func (m *mockBlobRemover) Delete(id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func openCampaign(enrollmentType models.EnrollmentType) *models.Campaign {
	return &models.Campaign{
		ID:           "camp-1",
		AcademicYear: "2026-2027",
		Type:         enrollmentType,
		StartsAt:     time.Now().Add(-24 * time.Hour),
		EndsAt:       time.Now().Add(24 * time.Hour),
		Open:         true,
	}
}

func newEnrollmentService(repo *mockEnrollmentRepo, gate *mockCampaignGate, dir *mockDirectory, blobs *mockBlobRemover, docs *mockDocumentLister) *EnrollmentService {
	if docs == nil {
		docs = &mockDocumentLister{}
	}
	if blobs == nil {
		blobs = &mockBlobRemover{}
	}
	return NewEnrollmentService(repo, docs, gate, dir, blobs, nil, validator.New(), zap.NewNop())
}

func TestEnrollmentServiceCreateWithoutCampaign(t *testing.T) {
	gate := &mockCampaignGate{err: appErrors.Clone(appErrors.ErrNotFound, "no open INITIAL campaign")}
	svc := newEnrollmentService(&mockEnrollmentRepo{}, gate, &mockDirectory{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateEnrollmentRequest{
		CandidateID:   "cand-1",
		SupervisorID:  "sup-1",
		ThesisSubject: "Distributed systems",
		Lab:           "LIMS",
		Specialty:     "Computer Science",
	})
	assert.ErrorIs(t, err, appErrors.ErrNoActiveCampaign)
}

func TestEnrollmentServiceCreateResolvesIdentity(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	dir := &mockDirectory{users: map[string]models.DirectoryUser{
		"cand-1": {ID: "cand-1", Email: "amina@univ.ma", FirstName: "Amina", LastName: "Berrada"},
		"sup-1":  {ID: "sup-1", Email: "prof@univ.ma", FirstName: "Karim", LastName: "Tazi"},
	}}
	svc := newEnrollmentService(repo, &mockCampaignGate{campaign: openCampaign(models.EnrollmentTypeInitial)}, dir, nil, nil)

	enrollment, err := svc.Create(context.Background(), CreateEnrollmentRequest{
		CandidateID:   "cand-1",
		SupervisorID:  "sup-1",
		ThesisSubject: "Distributed systems",
		Lab:           "LIMS",
		Specialty:     "Computer Science",
	})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusSubmitted, enrollment.Status)
	assert.Equal(t, "2026-2027", enrollment.AcademicYear)
	assert.Equal(t, "Amina Berrada", enrollment.CandidateName)
	assert.Equal(t, "amina@univ.ma", enrollment.CandidateEmail)
	assert.Equal(t, "Karim Tazi", enrollment.SupervisorName)
	assert.NotNil(t, repo.created)
}

func TestEnrollmentServiceCreateDirectoryDown(t *testing.T) {
	dir := &mockDirectory{err: appErrors.Clone(appErrors.ErrCollaboratorDown, "")}
	svc := newEnrollmentService(&mockEnrollmentRepo{}, &mockCampaignGate{campaign: openCampaign(models.EnrollmentTypeInitial)}, dir, nil, nil)

	enrollment, err := svc.Create(context.Background(), CreateEnrollmentRequest{
		CandidateID:   "cand-1",
		SupervisorID:  "sup-1",
		ThesisSubject: "Distributed systems",
		Lab:           "LIMS",
		Specialty:     "Computer Science",
	})
	require.NoError(t, err)
	assert.Equal(t, models.UnknownCandidateName, enrollment.CandidateName)
	assert.Equal(t, models.UnknownCandidateEmail, enrollment.CandidateEmail)
	assert.Equal(t, models.UnknownCandidateName, enrollment.SupervisorName)
}

func TestEnrollmentServiceSupervisorDecision(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", Status: models.EnrollmentStatusSubmitted},
		"e2": {ID: "e2", Status: models.EnrollmentStatusPendingSupervisor},
	}}
	svc := newEnrollmentService(repo, &mockCampaignGate{}, &mockDirectory{}, nil, nil)

	approved, err := svc.ApproveBySupervisor(context.Background(), "e1", true, "solid proposal")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusApprovedSupervisor, approved.Status)
	require.NotNil(t, approved.SupervisorComment)
	assert.Equal(t, "solid proposal", *approved.SupervisorComment)

	rejected, err := svc.ApproveBySupervisor(context.Background(), "e2", false, "out of scope")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusRejected, rejected.Status)
}

func TestEnrollmentServiceSupervisorDecisionWrongStatus(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", Status: models.EnrollmentStatusValidated},
	}}
	svc := newEnrollmentService(repo, &mockCampaignGate{}, &mockDirectory{}, nil, nil)

	_, err := svc.ApproveBySupervisor(context.Background(), "e1", true, "")
	assert.ErrorIs(t, err, appErrors.ErrInvalidStateTransition)
}

func TestEnrollmentServiceAdminValidation(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", Status: models.EnrollmentStatusApprovedSupervisor},
	}}
	svc := newEnrollmentService(repo, &mockCampaignGate{}, &mockDirectory{}, nil, nil)

	enrollment, err := svc.ApproveByAdmin(context.Background(), "e1", true, "")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusValidated, enrollment.Status)
	assert.NotNil(t, enrollment.ValidatedAt)
}

func TestEnrollmentServiceAdminDecisionBeforeSupervisor(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", Status: models.EnrollmentStatusSubmitted},
	}}
	svc := newEnrollmentService(repo, &mockCampaignGate{}, &mockDirectory{}, nil, nil)

	_, err := svc.ApproveByAdmin(context.Background(), "e1", true, "")
	assert.ErrorIs(t, err, appErrors.ErrInvalidStateTransition)
}

func TestEnrollmentServiceRenewalCopiesPrevious(t *testing.T) {
	previous := models.Enrollment{
		ID:             "e1",
		CandidateID:    "cand-1",
		CandidateEmail: "amina@univ.ma",
		CandidateName:  "Amina Berrada",
		SupervisorID:   "sup-1",
		SupervisorName: "Karim Tazi",
		Type:           models.EnrollmentTypeInitial,
		Status:         models.EnrollmentStatusValidated,
		AcademicYear:   "2025-2026",
		ThesisSubject:  "Distributed systems",
		Lab:            "LIMS",
		Specialty:      "Computer Science",
	}
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{"e1": previous}}
	gate := &mockCampaignGate{campaign: openCampaign(models.EnrollmentTypeRenewal)}
	svc := newEnrollmentService(repo, gate, &mockDirectory{}, nil, nil)

	subject := "Distributed systems, year two"
	renewal, err := svc.CreateRenewal(context.Background(), RenewalRequest{PreviousID: "e1", ThesisSubject: &subject})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentTypeRenewal, renewal.Type)
	assert.Equal(t, models.EnrollmentStatusSubmitted, renewal.Status)
	assert.Equal(t, "2026-2027", renewal.AcademicYear)
	assert.Equal(t, subject, renewal.ThesisSubject)
	assert.Equal(t, previous.CandidateName, renewal.CandidateName)
	assert.Equal(t, previous.Lab, renewal.Lab)
}

func TestEnrollmentServiceUpdatePartialMerge(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", Status: models.EnrollmentStatusSubmitted, ThesisSubject: "Old", Lab: "LIMS", Specialty: "CS"},
	}}
	svc := newEnrollmentService(repo, &mockCampaignGate{}, &mockDirectory{}, nil, nil)

	subject := "New subject"
	updated, err := svc.Update(context.Background(), "e1", UpdateEnrollmentRequest{ThesisSubject: &subject})
	require.NoError(t, err)
	assert.Equal(t, "New subject", updated.ThesisSubject)
	assert.Equal(t, "LIMS", updated.Lab)
	assert.Equal(t, "CS", updated.Specialty)
}

func TestEnrollmentServiceDeleteCascadesBlobs(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", Status: models.EnrollmentStatusDraft},
	}}
	docs := &mockDocumentLister{docs: map[string][]models.Document{
		"e1": {{ID: "d1"}, {ID: "d2"}},
	}}
	blobs := &mockBlobRemover{}
	svc := newEnrollmentService(repo, &mockCampaignGate{}, &mockDirectory{}, blobs, docs)

	require.NoError(t, svc.Delete(context.Background(), "e1"))
	assert.Contains(t, repo.deleted, "e1")
	assert.ElementsMatch(t, []string{"d1", "d2"}, blobs.deleted)
}

func TestEnrollmentServiceStatusProjection(t *testing.T) {
	updated := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", Status: models.EnrollmentStatusPendingSupervisor, UpdatedAt: updated},
	}}
	svc := newEnrollmentService(repo, &mockCampaignGate{}, &mockDirectory{}, nil, nil)

	info, err := svc.Status(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusPendingSupervisor, info.Status)
	assert.Equal(t, "Awaiting thesis supervisor approval", info.Message)
	assert.Equal(t, updated, info.LastUpdate)
}
