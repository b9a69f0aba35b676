package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/devbuild/doctorate-api/internal/client"
	"github.com/devbuild/doctorate-api/internal/models"
	appErrors "github.com/devbuild/doctorate-api/pkg/errors"
)

type enrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error)
	Update(ctx context.Context, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, supervisorComment, adminComment *string, validatedAt *time.Time) error
	Delete(ctx context.Context, id string) error
}

type enrollmentDocuments interface {
	ListByParent(ctx context.Context, parentType models.DocumentParent, parentID string) ([]models.Document, error)
	ListIDsByParent(ctx context.Context, parentType models.DocumentParent, parentID string) ([]string, error)
}

type campaignGate interface {
	FindOpen(ctx context.Context, enrollmentType models.EnrollmentType, asOf time.Time) (*models.Campaign, error)
}

type blobRemover interface {
	Delete(id string) error
}

type transitionRecorder interface {
	RecordTransition(workflow, status string)
}

// CreateEnrollmentRequest is the payload for a first enrollment.
type CreateEnrollmentRequest struct {
	CandidateID    string  `json:"candidateId" validate:"required"`
	SupervisorID   string  `json:"supervisorId" validate:"required"`
	CoSupervisorID *string `json:"coSupervisorId,omitempty"`
	ThesisSubject  string  `json:"thesisSubject" validate:"required"`
	Lab            string  `json:"lab" validate:"required"`
	Specialty      string  `json:"specialty" validate:"required"`
}

// UpdateEnrollmentRequest carries a partial update; nil fields are left untouched.
type UpdateEnrollmentRequest struct {
	ThesisSubject  *string `json:"thesisSubject,omitempty"`
	Lab            *string `json:"lab,omitempty"`
	Specialty      *string `json:"specialty,omitempty"`
	CoSupervisorID *string `json:"coSupervisorId,omitempty"`
}

// RenewalRequest re-enrolls a candidate for a new academic year based on a
// previous record.
type RenewalRequest struct {
	PreviousID    string  `json:"previousId" validate:"required"`
	ThesisSubject *string `json:"thesisSubject,omitempty"`
}

// EnrollmentService drives the enrollment approval workflow.
type EnrollmentService struct {
	repo      enrollmentRepository
	documents enrollmentDocuments
	campaigns campaignGate
	directory client.Directory
	blobs     blobRemover
	metrics   transitionRecorder
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, documents enrollmentDocuments, campaigns campaignGate, directory client.Directory, blobs blobRemover, metrics transitionRecorder, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:      repo,
		documents: documents,
		campaigns: campaigns,
		directory: directory,
		blobs:     blobs,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create registers a first enrollment request. Requires an open INITIAL
// campaign; the candidate and supervisor identities come from the user
// directory with a degraded placeholder when the directory is unreachable.
func (s *EnrollmentService) Create(ctx context.Context, req CreateEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	campaign, err := s.campaigns.FindOpen(ctx, models.EnrollmentTypeInitial, s.now())
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNoActiveCampaign, "")
		}
		return nil, err
	}

	enrollment := &models.Enrollment{
		CandidateID:    req.CandidateID,
		SupervisorID:   req.SupervisorID,
		CoSupervisorID: req.CoSupervisorID,
		Type:           models.EnrollmentTypeInitial,
		Status:         models.EnrollmentStatusSubmitted,
		AcademicYear:   campaign.AcademicYear,
		ThesisSubject:  req.ThesisSubject,
		Lab:            req.Lab,
		Specialty:      req.Specialty,
	}
	s.resolveIdentities(ctx, enrollment)

	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	s.recordTransition(enrollment.Status)
	s.logger.Info("enrollment created",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("candidate_id", enrollment.CandidateID),
		zap.String("academic_year", enrollment.AcademicYear))
	return enrollment, nil
}

// CreateRenewal re-enrolls a candidate for the academic year of the open
// RENEWAL campaign, copying the biography of the previous record. The
// thesis subject may be overridden.
func (s *EnrollmentService) CreateRenewal(ctx context.Context, req RenewalRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid renewal payload")
	}

	campaign, err := s.campaigns.FindOpen(ctx, models.EnrollmentTypeRenewal, s.now())
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNoActiveCampaign, "")
		}
		return nil, err
	}

	previous, err := s.load(ctx, req.PreviousID)
	if err != nil {
		return nil, err
	}

	subject := previous.ThesisSubject
	if req.ThesisSubject != nil && *req.ThesisSubject != "" {
		subject = *req.ThesisSubject
	}

	enrollment := &models.Enrollment{
		CandidateID:    previous.CandidateID,
		CandidateEmail: previous.CandidateEmail,
		CandidateName:  previous.CandidateName,
		SupervisorID:   previous.SupervisorID,
		SupervisorName: previous.SupervisorName,
		CoSupervisorID: previous.CoSupervisorID,
		Type:           models.EnrollmentTypeRenewal,
		Status:         models.EnrollmentStatusSubmitted,
		AcademicYear:   campaign.AcademicYear,
		ThesisSubject:  subject,
		Lab:            previous.Lab,
		Specialty:      previous.Specialty,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create renewal")
	}
	s.recordTransition(enrollment.Status)
	s.logger.Info("renewal created",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("previous_id", previous.ID),
		zap.String("academic_year", enrollment.AcademicYear))
	return enrollment, nil
}

// Update merges the non-nil fields into the record. Finalised requests can
// no longer be edited.
func (s *EnrollmentService) Update(ctx context.Context, id string, req UpdateEnrollmentRequest) (*models.Enrollment, error) {
	enrollment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if enrollment.Status == models.EnrollmentStatusValidated || enrollment.Status == models.EnrollmentStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrInvalidStateTransition, "enrollment already finalised")
	}

	if req.ThesisSubject != nil {
		enrollment.ThesisSubject = *req.ThesisSubject
	}
	if req.Lab != nil {
		enrollment.Lab = *req.Lab
	}
	if req.Specialty != nil {
		enrollment.Specialty = *req.Specialty
	}
	if req.CoSupervisorID != nil {
		enrollment.CoSupervisorID = req.CoSupervisorID
	}

	if err := s.repo.Update(ctx, enrollment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}
	return enrollment, nil
}

// ApproveBySupervisor records the supervisor's decision.
func (s *EnrollmentService) ApproveBySupervisor(ctx context.Context, id string, approved bool, comment string) (*models.Enrollment, error) {
	enrollment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch enrollment.Status {
	case models.EnrollmentStatusSubmitted, models.EnrollmentStatusPendingSupervisor:
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidStateTransition, "enrollment is not awaiting supervisor decision")
	}

	status := models.EnrollmentStatusApprovedSupervisor
	if !approved {
		status = models.EnrollmentStatusRejected
	}
	var commentPtr *string
	if comment != "" {
		commentPtr = &comment
	}
	if err := s.repo.UpdateStatus(ctx, id, status, commentPtr, nil, nil); err != nil {
		return nil, s.statusUpdateError(err)
	}
	enrollment.Status = status
	if commentPtr != nil {
		enrollment.SupervisorComment = commentPtr
	}
	s.recordTransition(status)
	s.logger.Info("supervisor decision recorded",
		zap.String("enrollment_id", id),
		zap.Bool("approved", approved))
	return enrollment, nil
}

// ApproveByAdmin records the final administrative decision. Validation
// stamps validatedAt.
func (s *EnrollmentService) ApproveByAdmin(ctx context.Context, id string, approved bool, comment string) (*models.Enrollment, error) {
	enrollment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch enrollment.Status {
	case models.EnrollmentStatusApprovedSupervisor, models.EnrollmentStatusPendingAdmin:
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidStateTransition, "enrollment is not awaiting administrative decision")
	}

	status := models.EnrollmentStatusValidated
	var validatedAt *time.Time
	if approved {
		ts := s.now()
		validatedAt = &ts
	} else {
		status = models.EnrollmentStatusRejected
	}
	var commentPtr *string
	if comment != "" {
		commentPtr = &comment
	}
	if err := s.repo.UpdateStatus(ctx, id, status, nil, commentPtr, validatedAt); err != nil {
		return nil, s.statusUpdateError(err)
	}
	enrollment.Status = status
	enrollment.ValidatedAt = validatedAt
	if commentPtr != nil {
		enrollment.AdminComment = commentPtr
	}
	s.recordTransition(status)
	s.logger.Info("administrative decision recorded",
		zap.String("enrollment_id", id),
		zap.Bool("approved", approved))
	return enrollment, nil
}

// Get returns an enrollment with its document metadata.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	enrollment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.ListByParent(ctx, models.DocumentParentEnrollment, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment documents")
	}
	return &models.EnrollmentDetail{Enrollment: *enrollment, Documents: docs}, nil
}

// List returns enrollments matching the filter along with the total count.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, total, nil
}

// Status returns the candidate-facing status projection.
func (s *EnrollmentService) Status(ctx context.Context, id string) (*models.EnrollmentStatusInfo, error) {
	enrollment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.EnrollmentStatusInfo{
		ID:         enrollment.ID,
		Status:     enrollment.Status,
		Message:    models.StatusMessage(enrollment.Status),
		LastUpdate: enrollment.UpdatedAt,
	}, nil
}

// Delete removes the enrollment with its document rows, then cleans up
// blobs. Blob removal failures are logged; the rows are already gone.
func (s *EnrollmentService) Delete(ctx context.Context, id string) error {
	blobIDs, err := s.documents.ListIDsByParent(ctx, models.DocumentParentEnrollment, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollment documents")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	for _, blobID := range blobIDs {
		if err := s.blobs.Delete(blobID); err != nil {
			s.logger.Warn("orphaned document blob",
				zap.String("enrollment_id", id),
				zap.String("document_id", blobID),
				zap.Error(err))
		}
	}
	s.logger.Info("enrollment deleted", zap.String("enrollment_id", id))
	return nil
}

// resolveIdentities fills candidate and supervisor identity from the
// directory, degrading to placeholders when the lookup fails.
func (s *EnrollmentService) resolveIdentities(ctx context.Context, enrollment *models.Enrollment) {
	if candidate, err := s.directory.Lookup(ctx, enrollment.CandidateID); err == nil {
		enrollment.CandidateName = candidate.FullName()
		enrollment.CandidateEmail = candidate.Email
	} else {
		s.logger.Warn("candidate lookup failed, using placeholder identity",
			zap.String("candidate_id", enrollment.CandidateID),
			zap.Error(err))
		enrollment.CandidateName = models.UnknownCandidateName
		enrollment.CandidateEmail = models.UnknownCandidateEmail
	}
	if supervisor, err := s.directory.Lookup(ctx, enrollment.SupervisorID); err == nil {
		enrollment.SupervisorName = supervisor.FullName()
	} else {
		s.logger.Warn("supervisor lookup failed, using placeholder identity",
			zap.String("supervisor_id", enrollment.SupervisorID),
			zap.Error(err))
		enrollment.SupervisorName = models.UnknownCandidateName
	}
}

func (s *EnrollmentService) recordTransition(status models.EnrollmentStatus) {
	if s.metrics != nil {
		s.metrics.RecordTransition("enrollment", string(status))
	}
}

func (s *EnrollmentService) load(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

func (s *EnrollmentService) statusUpdateError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment status")
}
