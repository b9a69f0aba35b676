package models

import "time"

// DefenseStatus tracks a thesis-defense request through its stages.
// The order is strict: INITIATED -> PREREQUISITES_TO_VALIDATE ->
// VALIDATED_BY_ADMIN -> JURY_PROPOSED -> SCHEDULED. REJECTED is reachable
// only from the administrative decision.
type DefenseStatus string

const (
	DefenseStatusInitiated       DefenseStatus = "INITIATED"
	DefenseStatusPrereqsToVerify DefenseStatus = "PREREQUISITES_TO_VALIDATE"
	DefenseStatusValidatedAdmin  DefenseStatus = "VALIDATED_BY_ADMIN"
	DefenseStatusJuryProposed    DefenseStatus = "JURY_PROPOSED"
	DefenseStatusScheduled       DefenseStatus = "SCHEDULED"
	DefenseStatusRejected        DefenseStatus = "REJECTED"
)

// JuryRole enumerates the roles a jury member can hold.
type JuryRole string

const (
	JuryRolePresident  JuryRole = "PRESIDENT"
	JuryRoleReviewer   JuryRole = "REVIEWER"
	JuryRoleExaminer   JuryRole = "EXAMINER"
	JuryRoleSupervisor JuryRole = "SUPERVISOR"
)

// DefenseRequest is a candidate's request to defend, gated on publication
// and training prerequisites.
type DefenseRequest struct {
	ID                  string        `db:"id" json:"id"`
	CandidateID         string        `db:"candidate_id" json:"candidateId"`
	EnrollmentID        string        `db:"enrollment_id" json:"enrollmentId"`
	Status              DefenseStatus `db:"status" json:"status"`
	ArticleCountQ1Q2    int           `db:"article_count_q1q2" json:"articleCountQ1Q2"`
	ConferenceCount     int           `db:"conference_count" json:"conferenceCount"`
	TrainingCreditHours int           `db:"training_credit_hours" json:"trainingCreditHours"`
	PrereqAdminApproved bool          `db:"prereq_admin_approved" json:"prerequisitesAdminApproved"`
	AdminComment        *string       `db:"admin_comment" json:"adminComment,omitempty"`
	ScheduledAt         *time.Time    `db:"scheduled_at" json:"scheduledAt,omitempty"`
	Venue               *string       `db:"venue" json:"venue,omitempty"`
	CreatedAt           time.Time     `db:"created_at" json:"createdAt"`
}

// JuryMember belongs to exactly one defense request; the whole set is
// replaced on re-proposal.
type JuryMember struct {
	ID          string   `db:"id" json:"id"`
	DefenseID   string   `db:"defense_id" json:"-"`
	FullName    string   `db:"full_name" json:"fullName"`
	Email       string   `db:"email" json:"email"`
	Institution string   `db:"institution" json:"institution"`
	Role        JuryRole `db:"role" json:"role"`
}

// DefenseDetail extends a defense request with jury and document metadata.
type DefenseDetail struct {
	DefenseRequest
	Jury      []JuryMember `json:"jury"`
	Documents []Document   `json:"documents"`
}

// DefenseFilter constrains listing queries.
type DefenseFilter struct {
	CandidateID string
	Status      DefenseStatus
	Page        int
	PageSize    int
}
