package service

import (
	"context"
	"time"

	"github.com/devbuild/doctorate-api/internal/models"
	appErrors "github.com/devbuild/doctorate-api/pkg/errors"
	"github.com/devbuild/doctorate-api/pkg/export"
)

type enrollmentLister interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error)
}

type defenseDetailReader interface {
	Get(ctx context.Context, id string) (*models.DefenseDetail, error)
}

// ExportService produces the administrative exports: enrollment CSV
// listings and convocation PDFs for scheduled defenses.
type ExportService struct {
	enrollments enrollmentLister
	records     enrollmentLookup
	defenses    defenseDetailReader
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
}

// NewExportService constructs ExportService.
func NewExportService(enrollments enrollmentLister, records enrollmentLookup, defenses defenseDetailReader) *ExportService {
	return &ExportService{
		enrollments: enrollments,
		records:     records,
		defenses:    defenses,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
	}
}

var enrollmentCSVHeaders = []string{
	"ID", "Candidate", "Email", "Supervisor", "Type", "Status", "AcademicYear", "ThesisSubject", "Lab", "CreatedAt",
}

// EnrollmentsCSV renders the enrollments matching the filter as CSV.
func (s *ExportService) EnrollmentsCSV(ctx context.Context, filter models.EnrollmentFilter) ([]byte, error) {
	enrollments, _, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]string, 0, len(enrollments))
	for _, e := range enrollments {
		rows = append(rows, map[string]string{
			"ID":            e.ID,
			"Candidate":     e.CandidateName,
			"Email":         e.CandidateEmail,
			"Supervisor":    e.SupervisorName,
			"Type":          string(e.Type),
			"Status":        string(e.Status),
			"AcademicYear":  e.AcademicYear,
			"ThesisSubject": e.ThesisSubject,
			"Lab":           e.Lab,
			"CreatedAt":     e.CreatedAt.Format(time.RFC3339),
		})
	}
	data, err := s.csv.Render(export.Dataset{Headers: enrollmentCSVHeaders, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render enrollment export")
	}
	return data, nil
}

// ConvocationPDF renders the convocation document of a scheduled defense.
func (s *ExportService) ConvocationPDF(ctx context.Context, defenseID string) ([]byte, error) {
	detail, err := s.defenses.Get(ctx, defenseID)
	if err != nil {
		return nil, err
	}
	if detail.Status != models.DefenseStatusScheduled {
		return nil, appErrors.Clone(appErrors.ErrInvalidStateTransition, "convocation is only available for a scheduled defense")
	}

	data := export.ConvocationData{CandidateName: detail.CandidateID}
	if enrollment, lookupErr := s.records.FindByID(ctx, detail.EnrollmentID); lookupErr == nil {
		data.CandidateName = enrollment.CandidateName
		data.ThesisSubject = enrollment.ThesisSubject
	}
	if detail.Venue != nil {
		data.Venue = *detail.Venue
	}
	if detail.ScheduledAt != nil {
		data.Date = detail.ScheduledAt.Format("2006-01-02 15:04")
	}
	for _, member := range detail.Jury {
		data.Jury = append(data.Jury, export.ConvocationJuryRow{
			FullName:    member.FullName,
			Institution: member.Institution,
			Role:        string(member.Role),
		})
	}

	pdf, err := s.pdf.RenderConvocation(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render convocation")
	}
	return pdf, nil
}
