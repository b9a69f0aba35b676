package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/devbuild/doctorate-api/internal/models"
	appErrors "github.com/devbuild/doctorate-api/pkg/errors"
)

type campaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	FindByID(ctx context.Context, id string) (*models.Campaign, error)
	FindOpen(ctx context.Context, enrollmentType models.EnrollmentType, asOf time.Time) (*models.Campaign, error)
	SetOpen(ctx context.Context, id string, open bool) error
	List(ctx context.Context) ([]models.Campaign, error)
}

type cacheMetrics interface {
	RecordCacheOperation(hit bool, duration time.Duration)
}

// CreateCampaignRequest describes campaign creation payload.
type CreateCampaignRequest struct {
	AcademicYear string                `json:"academicYear" validate:"required"`
	Type         models.EnrollmentType `json:"type" validate:"required,oneof=INITIAL RENEWAL"`
	StartsAt     time.Time             `json:"startsAt" validate:"required"`
	EndsAt       time.Time             `json:"endsAt" validate:"required"`
}

// CampaignService manages enrollment submission windows.
type CampaignService struct {
	repo      campaignRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
	metrics   cacheMetrics
	now       func() time.Time
}

// NewCampaignService constructs CampaignService. The cache client is
// optional; without it every open-window lookup hits the store.
func NewCampaignService(repo campaignRepository, cache *redis.Client, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger, metrics cacheMetrics) *CampaignService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &CampaignService{
		repo:      repo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create persists a new campaign. Campaigns are created closed and must be
// opened explicitly by an administrator.
func (s *CampaignService) Create(ctx context.Context, req CreateCampaignRequest) (*models.Campaign, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid campaign payload")
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "campaign window must end after it starts")
	}
	campaign := &models.Campaign{
		AcademicYear: req.AcademicYear,
		Type:         req.Type,
		StartsAt:     req.StartsAt,
		EndsAt:       req.EndsAt,
		Open:         false,
	}
	if err := s.repo.Create(ctx, campaign); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create campaign")
	}
	return campaign, nil
}

// Open marks a campaign as accepting submissions. Opening an expired
// window is refused; opening an already open campaign is a no-op.
func (s *CampaignService) Open(ctx context.Context, id string) (*models.Campaign, error) {
	campaign, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.EndsAt.Before(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrCampaignExpired, "")
	}
	if !campaign.Open {
		if err := s.repo.SetOpen(ctx, id, true); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open campaign")
		}
		campaign.Open = true
	}
	s.invalidate(ctx, campaign.Type)
	return campaign, nil
}

// Close marks a campaign as closed, unconditionally.
func (s *CampaignService) Close(ctx context.Context, id string) (*models.Campaign, error) {
	campaign, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.Open {
		if err := s.repo.SetOpen(ctx, id, false); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close campaign")
		}
		campaign.Open = false
	}
	s.invalidate(ctx, campaign.Type)
	return campaign, nil
}

// Get returns a campaign by id.
func (s *CampaignService) Get(ctx context.Context, id string) (*models.Campaign, error) {
	return s.load(ctx, id)
}

// List returns all campaigns.
func (s *CampaignService) List(ctx context.Context) ([]models.Campaign, error) {
	campaigns, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list campaigns")
	}
	return campaigns, nil
}

// FindOpen returns the campaign accepting submissions of the given type at
// the given instant. Cached entries are re-checked against asOf so a stale
// hit can never extend a window.
func (s *CampaignService) FindOpen(ctx context.Context, enrollmentType models.EnrollmentType, asOf time.Time) (*models.Campaign, error) {
	if cached := s.fromCache(ctx, enrollmentType); cached != nil && cached.Eligible(asOf) {
		return cached, nil
	}

	campaign, err := s.repo.FindOpen(ctx, enrollmentType, asOf)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no open %s campaign", enrollmentType))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up open campaign")
	}
	s.toCache(ctx, campaign)
	return campaign, nil
}

func (s *CampaignService) load(ctx context.Context, id string) (*models.Campaign, error) {
	campaign, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "campaign not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campaign")
	}
	return campaign, nil
}

func cacheKey(enrollmentType models.EnrollmentType) string {
	return fmt.Sprintf("campaigns:open:%s", enrollmentType)
}

func (s *CampaignService) fromCache(ctx context.Context, enrollmentType models.EnrollmentType) *models.Campaign {
	if s.cache == nil {
		return nil
	}
	start := time.Now()
	raw, err := s.cache.Get(ctx, cacheKey(enrollmentType)).Result()
	hit := err == nil
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(hit, time.Since(start))
	}
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("campaign cache read failed", zap.Error(err))
		}
		return nil
	}
	var campaign models.Campaign
	if err := json.Unmarshal([]byte(raw), &campaign); err != nil {
		s.logger.Warn("campaign cache entry corrupt", zap.Error(err))
		return nil
	}
	return &campaign
}

func (s *CampaignService) toCache(ctx context.Context, campaign *models.Campaign) {
	if s.cache == nil || campaign == nil {
		return
	}
	raw, err := json.Marshal(campaign)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(campaign.Type), raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("campaign cache write failed", zap.Error(err))
	}
}

func (s *CampaignService) invalidate(ctx context.Context, enrollmentType models.EnrollmentType) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(enrollmentType)).Err(); err != nil {
		s.logger.Warn("campaign cache invalidation failed", zap.Error(err))
	}
}
