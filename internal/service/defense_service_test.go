package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devbuild/doctorate-api/internal/models"
	"github.com/devbuild/doctorate-api/internal/notify"
	appErrors "github.com/devbuild/doctorate-api/pkg/errors"
)

type mockDefenseRepo struct {
	defenses  map[string]models.DefenseRequest
	jury      map[string][]models.JuryMember
	created   *models.DefenseRequest
	scheduled map[string]time.Time
}

func (m *mockDefenseRepo) Create(ctx context.Context, defense *models.DefenseRequest) error {
	if m.defenses == nil {
		m.defenses = make(map[string]models.DefenseRequest)
	}
	if defense.ID == "" {
		defense.ID = "new-defense"
	}
	m.defenses[defense.ID] = *defense
	m.created = defense
	return nil
}

func (m *mockDefenseRepo) FindByID(ctx context.Context, id string) (*models.DefenseRequest, error) {
	if d, ok := m.defenses[id]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDefenseRepo) List(ctx context.Context, filter models.DefenseFilter) ([]models.DefenseRequest, int, error) {
	var list []models.DefenseRequest
	for _, d := range m.defenses {
		list = append(list, d)
	}
	return list, len(list), nil
}

func (m *mockDefenseRepo) UpdateStatus(ctx context.Context, id string, status models.DefenseStatus) error {
	d, ok := m.defenses[id]
	if !ok {
		return sql.ErrNoRows
	}
	d.Status = status
	m.defenses[id] = d
	return nil
}

func (m *mockDefenseRepo) RecordDecision(ctx context.Context, id string, status models.DefenseStatus, prereqApproved bool, comment *string) error {
	d, ok := m.defenses[id]
	if !ok {
		return sql.ErrNoRows
	}
	d.Status = status
	d.PrereqAdminApproved = prereqApproved
	d.AdminComment = comment
	m.defenses[id] = d
	return nil
}

func (m *mockDefenseRepo) Schedule(ctx context.Context, id string, when time.Time, venue string) error {
	d, ok := m.defenses[id]
	if !ok {
		return sql.ErrNoRows
	}
	d.Status = models.DefenseStatusScheduled
	d.ScheduledAt = &when
	d.Venue = &venue
	m.defenses[id] = d
	if m.scheduled == nil {
		m.scheduled = make(map[string]time.Time)
	}
	m.scheduled[id] = when
	return nil
}

func (m *mockDefenseRepo) ReplaceJury(ctx context.Context, defenseID string, members []models.JuryMember) error {
	d, ok := m.defenses[defenseID]
	if !ok {
		return sql.ErrNoRows
	}
	if m.jury == nil {
		m.jury = make(map[string][]models.JuryMember)
	}
	m.jury[defenseID] = members
	d.Status = models.DefenseStatusJuryProposed
	m.defenses[defenseID] = d
	return nil
}

func (m *mockDefenseRepo) ListJury(ctx context.Context, defenseID string) ([]models.JuryMember, error) {
	return m.jury[defenseID], nil
}

type mockDefenseDocs struct {
	created []models.Document
}

func (m *mockDefenseDocs) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = "new-doc"
	}
	m.created = append(m.created, *doc)
	return nil
}

func (m *mockDefenseDocs) Delete(ctx context.Context, id string) error {
	for i, doc := range m.created {
		if doc.ID == id {
			m.created = append(m.created[:i], m.created[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockDefenseDocs) ListByParent(ctx context.Context, parentType models.DocumentParent, parentID string) ([]models.Document, error) {
	return nil, nil
}

type mockBlobWriter struct {
	stored map[string][]byte
	err    error
}

func (m *mockBlobWriter) Store(id string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	if m.stored == nil {
		m.stored = make(map[string][]byte)
	}
	m.stored[id] = data
	return nil
}

type mockDispatcher struct {
	messages []notify.Message
}

func (m *mockDispatcher) Dispatch(ctx context.Context, msg notify.Message) {
	m.messages = append(m.messages, msg)
}

func newDefenseService(repo *mockDefenseRepo, docs *mockDefenseDocs, blobs *mockBlobWriter, dir *mockDirectory, disp *mockDispatcher) *DefenseService {
	if docs == nil {
		docs = &mockDefenseDocs{}
	}
	if blobs == nil {
		blobs = &mockBlobWriter{}
	}
	if dir == nil {
		dir = &mockDirectory{}
	}
	if disp == nil {
		disp = &mockDispatcher{}
	}
	return NewDefenseService(repo, docs, blobs, dir, disp, "admin@univ.ma", nil, validator.New(), zap.NewNop())
}

func validInitiateRequest() InitiateDefenseRequest {
	return InitiateDefenseRequest{
		CandidateID:         "cand-1",
		EnrollmentID:        "enr-1",
		ArticleCountQ1Q2:    2,
		ConferenceCount:     3,
		TrainingCreditHours: 210,
	}
}

func TestDefenseServiceInitiateBelowThresholds(t *testing.T) {
	svc := newDefenseService(&mockDefenseRepo{}, nil, nil, nil, nil)

	cases := []struct {
		name   string
		mutate func(*InitiateDefenseRequest)
		want   string
	}{
		{"articles", func(r *InitiateDefenseRequest) { r.ArticleCountQ1Q2 = 1 }, "Q1/Q2 articles"},
		{"conferences", func(r *InitiateDefenseRequest) { r.ConferenceCount = 1 }, "conference communications"},
		{"training", func(r *InitiateDefenseRequest) { r.TrainingCreditHours = 150 }, "training credit hours"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validInitiateRequest()
			tc.mutate(&req)
			_, err := svc.Initiate(context.Background(), req)
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrPrerequisitesNotMet)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestDefenseServiceInitiateNotifiesAdmin(t *testing.T) {
	repo := &mockDefenseRepo{}
	disp := &mockDispatcher{}
	svc := newDefenseService(repo, nil, nil, nil, disp)

	defense, err := svc.Initiate(context.Background(), validInitiateRequest())
	require.NoError(t, err)
	assert.Equal(t, models.DefenseStatusInitiated, defense.Status)
	require.Len(t, disp.messages, 1)
	assert.Equal(t, "admin@univ.ma", disp.messages[0].To)
	assert.Equal(t, "New defense request", disp.messages[0].Subject)
}

func TestDefenseServiceAddDocumentBumpsStatus(t *testing.T) {
	repo := &mockDefenseRepo{defenses: map[string]models.DefenseRequest{
		"d1": {ID: "d1", Status: models.DefenseStatusInitiated},
	}}
	docs := &mockDefenseDocs{}
	blobs := &mockBlobWriter{}
	svc := newDefenseService(repo, docs, blobs, nil, nil)

	doc, err := svc.AddDocument(context.Background(), "d1", models.DocumentKindThesisReport, "report.pdf", "application/pdf", []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, models.DefenseStatusPrereqsToVerify, repo.defenses["d1"].Status)
	assert.Contains(t, blobs.stored, doc.ID)
	require.Len(t, docs.created, 1)
	assert.Equal(t, models.DocumentKindThesisReport, docs.created[0].Kind)
}

func TestDefenseServiceAddDocumentWrongKind(t *testing.T) {
	repo := &mockDefenseRepo{defenses: map[string]models.DefenseRequest{
		"d1": {ID: "d1", Status: models.DefenseStatusInitiated},
	}}
	svc := newDefenseService(repo, nil, nil, nil, nil)

	_, err := svc.AddDocument(context.Background(), "d1", models.DocumentKindApplicationForm, "form.pdf", "application/pdf", []byte("pdf"))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestDefenseServiceAddDocumentBlobFailure(t *testing.T) {
	repo := &mockDefenseRepo{defenses: map[string]models.DefenseRequest{
		"d1": {ID: "d1", Status: models.DefenseStatusInitiated},
	}}
	docs := &mockDefenseDocs{}
	blobs := &mockBlobWriter{err: errors.New("disk full")}
	svc := newDefenseService(repo, docs, blobs, nil, nil)

	_, err := svc.AddDocument(context.Background(), "d1", models.DocumentKindThesisReport, "report.pdf", "application/pdf", []byte("pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Equal(t, models.DefenseStatusInitiated, repo.defenses["d1"].Status)
	assert.Empty(t, docs.created, "metadata row must not outlive a failed payload write")
}

func TestDefenseServiceValidateByAdmin(t *testing.T) {
	repo := &mockDefenseRepo{defenses: map[string]models.DefenseRequest{
		"d1": {ID: "d1", CandidateID: "cand-1", Status: models.DefenseStatusPrereqsToVerify},
	}}
	dir := &mockDirectory{users: map[string]models.DirectoryUser{
		"cand-1": {ID: "cand-1", Email: "amina@univ.ma"},
	}}
	disp := &mockDispatcher{}
	svc := newDefenseService(repo, nil, nil, dir, disp)

	defense, err := svc.ValidateByAdmin(context.Background(), "d1", true, "")
	require.NoError(t, err)
	assert.Equal(t, models.DefenseStatusValidatedAdmin, defense.Status)
	assert.True(t, defense.PrereqAdminApproved)
	require.Len(t, disp.messages, 1)
	assert.Equal(t, "amina@univ.ma", disp.messages[0].To)
	assert.Equal(t, "Defense request update", disp.messages[0].Subject)
}

func TestDefenseServiceRejectUsesPlaceholderWhenDirectoryDown(t *testing.T) {
	repo := &mockDefenseRepo{defenses: map[string]models.DefenseRequest{
		"d1": {ID: "d1", CandidateID: "cand-1", Status: models.DefenseStatusPrereqsToVerify},
	}}
	dir := &mockDirectory{err: appErrors.Clone(appErrors.ErrCollaboratorDown, "")}
	disp := &mockDispatcher{}
	svc := newDefenseService(repo, nil, nil, dir, disp)

	defense, err := svc.ValidateByAdmin(context.Background(), "d1", false, "missing plagiarism report")
	require.NoError(t, err)
	assert.Equal(t, models.DefenseStatusRejected, defense.Status)
	assert.False(t, defense.PrereqAdminApproved)
	require.Len(t, disp.messages, 1)
	assert.Equal(t, models.UnknownCandidateEmail, disp.messages[0].To)
	assert.Contains(t, disp.messages[0].Body, "missing plagiarism report")
}

func validJury() ProposeJuryRequest {
	return ProposeJuryRequest{Members: []JuryMemberInput{
		{FullName: "Pr. Alaoui", Email: "alaoui@univ.ma", Institution: "UM5", Role: models.JuryRolePresident},
		{FullName: "Pr. Bennis", Email: "bennis@univ.ma", Institution: "UIR", Role: models.JuryRoleReviewer},
		{FullName: "Pr. Tazi", Email: "tazi@univ.ma", Institution: "UM5", Role: models.JuryRoleSupervisor},
	}}
}

func TestDefenseServiceProposeJuryRequiresValidation(t *testing.T) {
	repo := &mockDefenseRepo{defenses: map[string]models.DefenseRequest{
		"d1": {ID: "d1", Status: models.DefenseStatusPrereqsToVerify},
	}}
	svc := newDefenseService(repo, nil, nil, nil, nil)

	_, err := svc.ProposeJury(context.Background(), "d1", validJury())
	assert.ErrorIs(t, err, appErrors.ErrInvalidStateTransition)
}

func TestDefenseServiceProposeJuryReplacesSet(t *testing.T) {
	repo := &mockDefenseRepo{defenses: map[string]models.DefenseRequest{
		"d1": {ID: "d1", Status: models.DefenseStatusValidatedAdmin},
	}}
	disp := &mockDispatcher{}
	svc := newDefenseService(repo, nil, nil, nil, disp)

	members, err := svc.ProposeJury(context.Background(), "d1", validJury())
	require.NoError(t, err)
	assert.Len(t, members, 3)
	assert.Equal(t, models.DefenseStatusJuryProposed, repo.defenses["d1"].Status)
	assert.Len(t, repo.jury["d1"], 3)
	require.Len(t, disp.messages, 1)
	assert.Equal(t, "admin@univ.ma", disp.messages[0].To)
	assert.Equal(t, "Jury proposal for request d1", disp.messages[0].Subject)
}

func TestDefenseServiceScheduleRequiresJury(t *testing.T) {
	repo := &mockDefenseRepo{defenses: map[string]models.DefenseRequest{
		"d1": {ID: "d1", Status: models.DefenseStatusValidatedAdmin},
	}}
	svc := newDefenseService(repo, nil, nil, nil, nil)

	_, err := svc.Schedule(context.Background(), "d1", ScheduleDefenseRequest{
		When:  time.Date(2026, 12, 10, 10, 0, 0, 0, time.UTC),
		Venue: "Amphi A",
	})
	assert.ErrorIs(t, err, appErrors.ErrInvalidStateTransition)
}

func TestDefenseServiceScheduleConvokesJuryAndCandidate(t *testing.T) {
	repo := &mockDefenseRepo{
		defenses: map[string]models.DefenseRequest{
			"d1": {ID: "d1", CandidateID: "cand-1", Status: models.DefenseStatusJuryProposed},
		},
		jury: map[string][]models.JuryMember{
			"d1": {
				{Email: "alaoui@univ.ma", Role: models.JuryRolePresident},
				{Email: "bennis@univ.ma", Role: models.JuryRoleReviewer},
			},
		},
	}
	dir := &mockDirectory{users: map[string]models.DirectoryUser{
		"cand-1": {ID: "cand-1", Email: "amina@univ.ma"},
	}}
	disp := &mockDispatcher{}
	svc := newDefenseService(repo, nil, nil, dir, disp)

	defense, err := svc.Schedule(context.Background(), "d1", ScheduleDefenseRequest{
		When:  time.Date(2026, 12, 10, 10, 0, 0, 0, time.UTC),
		Venue: "Amphi A",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefenseStatusScheduled, defense.Status)
	require.NotNil(t, defense.ScheduledAt)
	require.Len(t, disp.messages, 3)

	var recipients []string
	for _, msg := range disp.messages {
		assert.Equal(t, "Thesis defense convocation", msg.Subject)
		assert.Contains(t, msg.Body, "Amphi A")
		recipients = append(recipients, msg.To)
	}
	assert.ElementsMatch(t, []string{"alaoui@univ.ma", "bennis@univ.ma", "amina@univ.ma"}, recipients)
}
