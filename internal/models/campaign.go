package models

import "time"

// EnrollmentType distinguishes first enrollments from yearly renewals.
type EnrollmentType string

const (
	EnrollmentTypeInitial EnrollmentType = "INITIAL"
	EnrollmentTypeRenewal EnrollmentType = "RENEWAL"
)

// Campaign is an administrator-controlled submission window for one
// enrollment type. A campaign is usable only while it is open and the
// current time falls inside [StartsAt, EndsAt].
type Campaign struct {
	ID           string         `db:"id" json:"id"`
	AcademicYear string         `db:"academic_year" json:"academicYear"`
	Type         EnrollmentType `db:"type" json:"type"`
	StartsAt     time.Time      `db:"starts_at" json:"startsAt"`
	EndsAt       time.Time      `db:"ends_at" json:"endsAt"`
	Open         bool           `db:"open" json:"open"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
}

// Eligible reports whether the campaign accepts submissions at the given instant.
func (c *Campaign) Eligible(asOf time.Time) bool {
	return c.Open && !asOf.Before(c.StartsAt) && !asOf.After(c.EndsAt)
}
