package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/devbuild/doctorate-api/internal/models"
)

// CampaignRepository handles persistence of enrollment campaigns.
type CampaignRepository struct {
	db *sqlx.DB
}

// NewCampaignRepository constructs the repository.
func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Create persists a new campaign. Campaigns start closed.
func (r *CampaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	if campaign.ID == "" {
		campaign.ID = uuid.NewString()
	}
	if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO campaigns (id, academic_year, type, starts_at, ends_at, open, created_at)
        VALUES (:id, :academic_year, :type, :starts_at, :ends_at, :open, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, campaign); err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

// FindByID returns a campaign by its ID.
func (r *CampaignRepository) FindByID(ctx context.Context, id string) (*models.Campaign, error) {
	const query = `SELECT id, academic_year, type, starts_at, ends_at, open, created_at FROM campaigns WHERE id = $1`
	var campaign models.Campaign
	if err := r.db.GetContext(ctx, &campaign, query, id); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// FindOpen returns the campaign accepting submissions of the given type at asOf.
func (r *CampaignRepository) FindOpen(ctx context.Context, enrollmentType models.EnrollmentType, asOf time.Time) (*models.Campaign, error) {
	const query = `SELECT id, academic_year, type, starts_at, ends_at, open, created_at
        FROM campaigns
        WHERE type = $1 AND open = TRUE AND starts_at <= $2 AND ends_at >= $2
        ORDER BY starts_at DESC LIMIT 1`
	var campaign models.Campaign
	if err := r.db.GetContext(ctx, &campaign, query, enrollmentType, asOf); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// SetOpen toggles the admin flag for a campaign.
func (r *CampaignRepository) SetOpen(ctx context.Context, id string, open bool) error {
	const query = `UPDATE campaigns SET open = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, open)
	if err != nil {
		return fmt.Errorf("toggle campaign: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns all campaigns, newest windows first.
func (r *CampaignRepository) List(ctx context.Context) ([]models.Campaign, error) {
	const query = `SELECT id, academic_year, type, starts_at, ends_at, open, created_at FROM campaigns ORDER BY starts_at DESC`
	var campaigns []models.Campaign
	if err := r.db.SelectContext(ctx, &campaigns, query); err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return campaigns, nil
}
