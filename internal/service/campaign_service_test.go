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
	appErrors "github.com/devbuild/doctorate-api/pkg/errors"
)

type mockCampaignRepo struct {
	campaigns map[string]models.Campaign
	opened    []string
	closed    []string
}

func (m *mockCampaignRepo) Create(ctx context.Context, campaign *models.Campaign) error {
	if m.campaigns == nil {
		m.campaigns = make(map[string]models.Campaign)
	}
	if campaign.ID == "" {
		campaign.ID = "new-campaign"
	}
	m.campaigns[campaign.ID] = *campaign
	return nil
}

func (m *mockCampaignRepo) FindByID(ctx context.Context, id string) (*models.Campaign, error) {
	if c, ok := m.campaigns[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCampaignRepo) FindOpen(ctx context.Context, enrollmentType models.EnrollmentType, asOf time.Time) (*models.Campaign, error) {
	for _, c := range m.campaigns {
		if c.Type == enrollmentType && c.Eligible(asOf) {
			match := c
			return &match, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCampaignRepo) SetOpen(ctx context.Context, id string, open bool) error {
	c, ok := m.campaigns[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.Open = open
	m.campaigns[id] = c
	if open {
		m.opened = append(m.opened, id)
	} else {
		m.closed = append(m.closed, id)
	}
	return nil
}

func (m *mockCampaignRepo) List(ctx context.Context) ([]models.Campaign, error) {
	var list []models.Campaign
	for _, c := range m.campaigns {
		list = append(list, c)
	}
	return list, nil
}

func newCampaignService(repo *mockCampaignRepo) *CampaignService {
	return NewCampaignService(repo, nil, time.Minute, validator.New(), zap.NewNop(), nil)
}

func TestCampaignServiceCreateStartsClosed(t *testing.T) {
	repo := &mockCampaignRepo{}
	svc := newCampaignService(repo)

	campaign, err := svc.Create(context.Background(), CreateCampaignRequest{
		AcademicYear: "2026-2027",
		Type:         models.EnrollmentTypeInitial,
		StartsAt:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:       time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.False(t, campaign.Open)
	assert.Equal(t, models.EnrollmentTypeInitial, repo.campaigns[campaign.ID].Type)
}

func TestCampaignServiceCreateRejectsInvertedWindow(t *testing.T) {
	svc := newCampaignService(&mockCampaignRepo{})

	_, err := svc.Create(context.Background(), CreateCampaignRequest{
		AcademicYear: "2026-2027",
		Type:         models.EnrollmentTypeInitial,
		StartsAt:     time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
		EndsAt:       time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestCampaignServiceOpenExpired(t *testing.T) {
	repo := &mockCampaignRepo{campaigns: map[string]models.Campaign{
		"c1": {ID: "c1", Type: models.EnrollmentTypeInitial,
			StartsAt: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
			EndsAt:   time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)},
	}}
	svc := newCampaignService(repo)
	svc.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	_, err := svc.Open(context.Background(), "c1")
	assert.ErrorIs(t, err, appErrors.ErrCampaignExpired)
	assert.Empty(t, repo.opened)
}

func TestCampaignServiceOpenIsIdempotent(t *testing.T) {
	repo := &mockCampaignRepo{campaigns: map[string]models.Campaign{
		"c1": {ID: "c1", Type: models.EnrollmentTypeInitial,
			StartsAt: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			EndsAt:   time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)},
	}}
	svc := newCampaignService(repo)
	svc.now = func() time.Time { return time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC) }

	first, err := svc.Open(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, first.Open)

	second, err := svc.Open(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, second.Open)
	assert.Len(t, repo.opened, 1)
}

func TestCampaignServiceClose(t *testing.T) {
	repo := &mockCampaignRepo{campaigns: map[string]models.Campaign{
		"c1": {ID: "c1", Type: models.EnrollmentTypeRenewal, Open: true,
			StartsAt: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			EndsAt:   time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)},
	}}
	svc := newCampaignService(repo)

	campaign, err := svc.Close(context.Background(), "c1")
	require.NoError(t, err)
	assert.False(t, campaign.Open)
	assert.Contains(t, repo.closed, "c1")
}

func TestCampaignServiceFindOpenMiss(t *testing.T) {
	repo := &mockCampaignRepo{campaigns: map[string]models.Campaign{
		"c1": {ID: "c1", Type: models.EnrollmentTypeInitial, Open: true,
			StartsAt: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			EndsAt:   time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)},
	}}
	svc := newCampaignService(repo)

	_, err := svc.FindOpen(context.Background(), models.EnrollmentTypeInitial, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	campaign, err := svc.FindOpen(context.Background(), models.EnrollmentTypeInitial, time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "c1", campaign.ID)
}

func TestCampaignServiceGetNotFound(t *testing.T) {
	svc := newCampaignService(&mockCampaignRepo{})

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
