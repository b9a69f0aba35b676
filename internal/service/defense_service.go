package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/devbuild/doctorate-api/internal/client"
	"github.com/devbuild/doctorate-api/internal/models"
	"github.com/devbuild/doctorate-api/internal/notify"
	appErrors "github.com/devbuild/doctorate-api/pkg/errors"
)

// Publication and training thresholds a candidate must meet before a
// defense request is accepted.
const (
	minArticlesQ1Q2        = 2
	minConferences         = 2
	minTrainingCreditHours = 200
)

type defenseRepository interface {
	Create(ctx context.Context, defense *models.DefenseRequest) error
	FindByID(ctx context.Context, id string) (*models.DefenseRequest, error)
	List(ctx context.Context, filter models.DefenseFilter) ([]models.DefenseRequest, int, error)
	UpdateStatus(ctx context.Context, id string, status models.DefenseStatus) error
	RecordDecision(ctx context.Context, id string, status models.DefenseStatus, prereqApproved bool, comment *string) error
	Schedule(ctx context.Context, id string, when time.Time, venue string) error
	ReplaceJury(ctx context.Context, defenseID string, members []models.JuryMember) error
	ListJury(ctx context.Context, defenseID string) ([]models.JuryMember, error)
}

type defenseDocuments interface {
	Create(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, id string) error
	ListByParent(ctx context.Context, parentType models.DocumentParent, parentID string) ([]models.Document, error)
}

type blobWriter interface {
	Store(id string, data []byte) error
}

type dispatcher interface {
	Dispatch(ctx context.Context, msg notify.Message)
}

// InitiateDefenseRequest is the payload opening a defense request.
type InitiateDefenseRequest struct {
	CandidateID         string `json:"candidateId" validate:"required"`
	EnrollmentID        string `json:"enrollmentId" validate:"required"`
	ArticleCountQ1Q2    int    `json:"articleCountQ1Q2" validate:"gte=0"`
	ConferenceCount     int    `json:"conferenceCount" validate:"gte=0"`
	TrainingCreditHours int    `json:"trainingCreditHours" validate:"gte=0"`
}

// JuryMemberInput describes one proposed jury member.
type JuryMemberInput struct {
	FullName    string          `json:"fullName" validate:"required"`
	Email       string          `json:"email" validate:"required,email"`
	Institution string          `json:"institution" validate:"required"`
	Role        models.JuryRole `json:"role" validate:"required,oneof=PRESIDENT REVIEWER EXAMINER SUPERVISOR"`
}

// ProposeJuryRequest replaces the jury of a defense request wholesale.
type ProposeJuryRequest struct {
	Members []JuryMemberInput `json:"members" validate:"required,min=1,dive"`
}

// ScheduleDefenseRequest fixes date and venue.
type ScheduleDefenseRequest struct {
	When  time.Time `json:"when" validate:"required"`
	Venue string    `json:"venue" validate:"required"`
}

// DefenseService drives the thesis-defense workflow. Every notification is
// best effort; a failed send never affects the persisted transition.
type DefenseService struct {
	repo       defenseRepository
	documents  defenseDocuments
	blobs      blobWriter
	directory  client.Directory
	notify     dispatcher
	adminEmail string
	metrics    transitionRecorder
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewDefenseService constructs DefenseService.
func NewDefenseService(repo defenseRepository, documents defenseDocuments, blobs blobWriter, directory client.Directory, notifier dispatcher, adminEmail string, metrics transitionRecorder, validate *validator.Validate, logger *zap.Logger) *DefenseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefenseService{
		repo:       repo,
		documents:  documents,
		blobs:      blobs,
		directory:  directory,
		notify:     notifier,
		adminEmail: adminEmail,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Initiate opens a defense request after checking the publication and
// training thresholds. The first unmet threshold is named in the error.
func (s *DefenseService) Initiate(ctx context.Context, req InitiateDefenseRequest) (*models.DefenseRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid defense payload")
	}
	if err := checkPrerequisites(req); err != nil {
		return nil, err
	}

	defense := &models.DefenseRequest{
		CandidateID:         req.CandidateID,
		EnrollmentID:        req.EnrollmentID,
		Status:              models.DefenseStatusInitiated,
		ArticleCountQ1Q2:    req.ArticleCountQ1Q2,
		ConferenceCount:     req.ConferenceCount,
		TrainingCreditHours: req.TrainingCreditHours,
	}
	if err := s.repo.Create(ctx, defense); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create defense request")
	}
	s.recordTransition(defense.Status)

	s.notify.Dispatch(ctx, notify.Message{
		To:      s.adminEmail,
		Subject: "New defense request",
		Body:    fmt.Sprintf("Candidate %s has submitted defense request %s.", defense.CandidateID, defense.ID),
	})
	s.logger.Info("defense request initiated",
		zap.String("defense_id", defense.ID),
		zap.String("candidate_id", defense.CandidateID))
	return defense, nil
}

// AddDocument stores a supporting file and moves the request to
// PREREQUISITES_TO_VALIDATE. A blob-store failure aborts the upload.
func (s *DefenseService) AddDocument(ctx context.Context, id string, kind models.DocumentKind, fileName, contentType string, data []byte) (*models.Document, error) {
	if !models.ValidDocumentKind(models.DocumentParentDefense, kind) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("document kind %s is not valid for a defense request", kind))
	}
	defense, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		ParentType:  models.DocumentParentDefense,
		ParentID:    defense.ID,
		Kind:        kind,
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(data)),
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save document metadata")
	}
	if err := s.blobs.Store(doc.ID, data); err != nil {
		if delErr := s.documents.Delete(ctx, doc.ID); delErr != nil {
			s.logger.Error("orphaned document row after blob failure",
				zap.String("document_id", doc.ID),
				zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document payload")
	}

	if defense.Status == models.DefenseStatusInitiated {
		if err := s.repo.UpdateStatus(ctx, defense.ID, models.DefenseStatusPrereqsToVerify); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update defense status")
		}
		s.recordTransition(models.DefenseStatusPrereqsToVerify)
	}
	return doc, nil
}

// ValidateByAdmin records the administrative decision on the prerequisites.
// The candidate is notified best effort.
func (s *DefenseService) ValidateByAdmin(ctx context.Context, id string, approved bool, comment string) (*models.DefenseRequest, error) {
	defense, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	status := models.DefenseStatusValidatedAdmin
	if !approved {
		status = models.DefenseStatusRejected
	}
	var commentPtr *string
	if comment != "" {
		commentPtr = &comment
	}
	if err := s.repo.RecordDecision(ctx, id, status, approved, commentPtr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "defense request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record defense decision")
	}
	defense.Status = status
	defense.PrereqAdminApproved = approved
	defense.AdminComment = commentPtr
	s.recordTransition(status)

	body := fmt.Sprintf("Your defense request %s has been validated by the administration.", id)
	if !approved {
		body = fmt.Sprintf("Your defense request %s has been rejected.", id)
		if comment != "" {
			body += " Reason: " + comment
		}
	}
	s.notify.Dispatch(ctx, notify.Message{
		To:      s.candidateEmail(ctx, defense.CandidateID),
		Subject: "Defense request update",
		Body:    body,
	})
	s.logger.Info("defense decision recorded",
		zap.String("defense_id", id),
		zap.Bool("approved", approved))
	return defense, nil
}

// ProposeJury replaces the jury of a validated request. The previous set,
// if any, is discarded.
func (s *DefenseService) ProposeJury(ctx context.Context, id string, req ProposeJuryRequest) ([]models.JuryMember, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid jury payload")
	}
	defense, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if defense.Status != models.DefenseStatusValidatedAdmin {
		return nil, appErrors.Clone(appErrors.ErrInvalidStateTransition, "jury can only be proposed after administrative validation")
	}

	members := make([]models.JuryMember, len(req.Members))
	for i, m := range req.Members {
		members[i] = models.JuryMember{
			FullName:    m.FullName,
			Email:       m.Email,
			Institution: m.Institution,
			Role:        m.Role,
		}
	}
	if err := s.repo.ReplaceJury(ctx, id, members); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "defense request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace jury")
	}

	s.recordTransition(models.DefenseStatusJuryProposed)

	s.notify.Dispatch(ctx, notify.Message{
		To:      s.adminEmail,
		Subject: fmt.Sprintf("Jury proposal for request %s", id),
		Body:    fmt.Sprintf("A jury of %d members has been proposed for defense request %s.", len(members), id),
	})
	s.logger.Info("jury proposed",
		zap.String("defense_id", id),
		zap.Int("members", len(members)))
	return members, nil
}

// Schedule fixes date and venue of a defense with a proposed jury, then
// sends a convocation to every jury member and to the candidate.
func (s *DefenseService) Schedule(ctx context.Context, id string, req ScheduleDefenseRequest) (*models.DefenseRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	defense, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if defense.Status != models.DefenseStatusJuryProposed {
		return nil, appErrors.Clone(appErrors.ErrInvalidStateTransition, "defense can only be scheduled once a jury is proposed")
	}

	if err := s.repo.Schedule(ctx, id, req.When, req.Venue); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "defense request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule defense")
	}
	defense.Status = models.DefenseStatusScheduled
	defense.ScheduledAt = &req.When
	defense.Venue = &req.Venue
	s.recordTransition(models.DefenseStatusScheduled)

	body := fmt.Sprintf("The defense for request %s is scheduled on %s at %s.",
		id, req.When.Format("2006-01-02 15:04"), req.Venue)

	jury, err := s.repo.ListJury(ctx, id)
	if err != nil {
		s.logger.Warn("failed to load jury for convocations", zap.String("defense_id", id), zap.Error(err))
	}
	for _, member := range jury {
		s.notify.Dispatch(ctx, notify.Message{
			To:      member.Email,
			Subject: "Thesis defense convocation",
			Body:    body,
		})
	}
	s.notify.Dispatch(ctx, notify.Message{
		To:      s.candidateEmail(ctx, defense.CandidateID),
		Subject: "Thesis defense convocation",
		Body:    body,
	})
	s.logger.Info("defense scheduled",
		zap.String("defense_id", id),
		zap.Time("when", req.When),
		zap.String("venue", req.Venue))
	return defense, nil
}

// Get returns a defense request with jury and document metadata.
func (s *DefenseService) Get(ctx context.Context, id string) (*models.DefenseDetail, error) {
	defense, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	jury, err := s.repo.ListJury(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load jury")
	}
	docs, err := s.documents.ListByParent(ctx, models.DocumentParentDefense, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load defense documents")
	}
	return &models.DefenseDetail{DefenseRequest: *defense, Jury: jury, Documents: docs}, nil
}

// List returns defense requests matching the filter along with the total count.
func (s *DefenseService) List(ctx context.Context, filter models.DefenseFilter) ([]models.DefenseRequest, int, error) {
	defenses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list defense requests")
	}
	return defenses, total, nil
}

func checkPrerequisites(req InitiateDefenseRequest) error {
	switch {
	case req.ArticleCountQ1Q2 < minArticlesQ1Q2:
		return appErrors.Clone(appErrors.ErrPrerequisitesNotMet,
			fmt.Sprintf("at least %d Q1/Q2 articles required, got %d", minArticlesQ1Q2, req.ArticleCountQ1Q2))
	case req.ConferenceCount < minConferences:
		return appErrors.Clone(appErrors.ErrPrerequisitesNotMet,
			fmt.Sprintf("at least %d conference communications required, got %d", minConferences, req.ConferenceCount))
	case req.TrainingCreditHours < minTrainingCreditHours:
		return appErrors.Clone(appErrors.ErrPrerequisitesNotMet,
			fmt.Sprintf("at least %d training credit hours required, got %d", minTrainingCreditHours, req.TrainingCreditHours))
	}
	return nil
}

func (s *DefenseService) recordTransition(status models.DefenseStatus) {
	if s.metrics != nil {
		s.metrics.RecordTransition("defense", string(status))
	}
}

// candidateEmail resolves the candidate address via the directory,
// degrading to the placeholder on failure.
func (s *DefenseService) candidateEmail(ctx context.Context, candidateID string) string {
	user, err := s.directory.Lookup(ctx, candidateID)
	if err != nil {
		s.logger.Warn("candidate lookup failed for notification",
			zap.String("candidate_id", candidateID),
			zap.Error(err))
		return models.UnknownCandidateEmail
	}
	return user.Email
}

func (s *DefenseService) load(ctx context.Context, id string) (*models.DefenseRequest, error) {
	defense, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "defense request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load defense request")
	}
	return defense, nil
}
