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

// DocumentRepository handles document metadata rows.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create persists document metadata.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO documents (id, parent_type, parent_id, kind, file_name, content_type, size, created_at)
        VALUES (:id, :parent_type, :parent_id, :kind, :file_name, :content_type, :size, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// FindByID returns document metadata by its ID.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	const query = `SELECT id, parent_type, parent_id, kind, file_name, content_type, size, created_at FROM documents WHERE id = $1`
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByParent returns the documents owned by a workflow entity.
func (r *DocumentRepository) ListByParent(ctx context.Context, parentType models.DocumentParent, parentID string) ([]models.Document, error) {
	const query = `SELECT id, parent_type, parent_id, kind, file_name, content_type, size, created_at
        FROM documents WHERE parent_type = $1 AND parent_id = $2 ORDER BY created_at`
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, parentType, parentID); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// ListIDsByParent returns only the ids, used for blob cleanup on cascade delete.
func (r *DocumentRepository) ListIDsByParent(ctx context.Context, parentType models.DocumentParent, parentID string) ([]string, error) {
	const query = `SELECT id FROM documents WHERE parent_type = $1 AND parent_id = $2`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, parentType, parentID); err != nil {
		return nil, fmt.Errorf("list document ids: %w", err)
	}
	return ids, nil
}

// Delete removes a single document row.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
