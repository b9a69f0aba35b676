package models

import "time"

// EnrollmentStatus tracks an enrollment request through its approval stages.
type EnrollmentStatus string

const (
	EnrollmentStatusDraft              EnrollmentStatus = "DRAFT"
	EnrollmentStatusSubmitted          EnrollmentStatus = "SUBMITTED"
	EnrollmentStatusPendingSupervisor  EnrollmentStatus = "PENDING_SUPERVISOR"
	EnrollmentStatusApprovedSupervisor EnrollmentStatus = "APPROVED_SUPERVISOR"
	EnrollmentStatusPendingAdmin       EnrollmentStatus = "PENDING_ADMIN"
	EnrollmentStatusValidated          EnrollmentStatus = "VALIDATED"
	EnrollmentStatusRejected           EnrollmentStatus = "REJECTED"
)

// Placeholder identity used when the user directory cannot be reached.
const (
	UnknownCandidateName  = "(unknown)"
	UnknownCandidateEmail = "(unknown)"
)

// Enrollment is a doctoral candidate's registration request for one academic year.
type Enrollment struct {
	ID                string           `db:"id" json:"id"`
	CandidateID       string           `db:"candidate_id" json:"candidateId"`
	CandidateEmail    string           `db:"candidate_email" json:"candidateEmail"`
	CandidateName     string           `db:"candidate_name" json:"candidateName"`
	SupervisorID      string           `db:"supervisor_id" json:"supervisorId"`
	SupervisorName    string           `db:"supervisor_name" json:"supervisorName"`
	CoSupervisorID    *string          `db:"co_supervisor_id" json:"coSupervisorId,omitempty"`
	Type              EnrollmentType   `db:"type" json:"type"`
	Status            EnrollmentStatus `db:"status" json:"status"`
	AcademicYear      string           `db:"academic_year" json:"academicYear"`
	ThesisSubject     string           `db:"thesis_subject" json:"thesisSubject"`
	Lab               string           `db:"lab" json:"lab"`
	Specialty         string           `db:"specialty" json:"specialty"`
	SupervisorComment *string          `db:"supervisor_comment" json:"supervisorComment,omitempty"`
	AdminComment      *string          `db:"admin_comment" json:"adminComment,omitempty"`
	CreatedAt         time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updatedAt"`
	ValidatedAt       *time.Time       `db:"validated_at" json:"validatedAt,omitempty"`
}

// EnrollmentDetail extends an enrollment with its document metadata.
type EnrollmentDetail struct {
	Enrollment
	Documents []Document `json:"documents"`
}

// EnrollmentFilter constrains listing queries.
type EnrollmentFilter struct {
	CandidateID  string
	Status       EnrollmentStatus
	Type         EnrollmentType
	AcademicYear string
	Page         int
	PageSize     int
}

// EnrollmentStatusInfo is the status projection returned to candidates.
type EnrollmentStatusInfo struct {
	ID         string           `json:"id"`
	Status     EnrollmentStatus `json:"status"`
	Message    string           `json:"message"`
	LastUpdate time.Time        `json:"lastUpdate"`
}

// StatusMessage returns the human-readable description for a status.
func StatusMessage(status EnrollmentStatus) string {
	switch status {
	case EnrollmentStatusDraft:
		return "Application file under preparation"
	case EnrollmentStatusSubmitted:
		return "Application submitted, awaiting processing"
	case EnrollmentStatusPendingSupervisor:
		return "Awaiting thesis supervisor approval"
	case EnrollmentStatusApprovedSupervisor:
		return "Approved by supervisor, awaiting administrative validation"
	case EnrollmentStatusPendingAdmin:
		return "Awaiting administrative validation"
	case EnrollmentStatusValidated:
		return "Enrollment validated"
	case EnrollmentStatusRejected:
		return "Application rejected"
	default:
		return "Unknown status"
	}
}
