package models

import "time"

// DocumentParent identifies which workflow owns a document.
type DocumentParent string

const (
	DocumentParentEnrollment DocumentParent = "ENROLLMENT"
	DocumentParentDefense    DocumentParent = "DEFENSE"
)

// DocumentKind is the type tag of an uploaded file, per workflow.
type DocumentKind string

// Enrollment document kinds.
const (
	DocumentKindApplicationForm  DocumentKind = "APPLICATION_FORM"
	DocumentKindDegreeCopy       DocumentKind = "DEGREE_COPY"
	DocumentKindResearchProposal DocumentKind = "RESEARCH_PROPOSAL"
)

// Defense document kinds.
const (
	DocumentKindManuscriptRequest  DocumentKind = "MANUSCRIPT_REQUEST"
	DocumentKindThesisReport       DocumentKind = "THESIS_REPORT"
	DocumentKindPlagiarismReport   DocumentKind = "PLAGIARISM_REPORT"
	DocumentKindPublicationsReport DocumentKind = "PUBLICATIONS_REPORT"
	DocumentKindTrainingCert       DocumentKind = "TRAINING_CERTIFICATE"
	DocumentKindDefenseAuth        DocumentKind = "DEFENSE_AUTHORIZATION"
)

// ValidDocumentKind reports whether the kind belongs to the given workflow.
func ValidDocumentKind(parent DocumentParent, kind DocumentKind) bool {
	switch parent {
	case DocumentParentEnrollment:
		switch kind {
		case DocumentKindApplicationForm, DocumentKindDegreeCopy, DocumentKindResearchProposal:
			return true
		}
	case DocumentParentDefense:
		switch kind {
		case DocumentKindManuscriptRequest, DocumentKindThesisReport, DocumentKindPlagiarismReport,
			DocumentKindPublicationsReport, DocumentKindTrainingCert, DocumentKindDefenseAuth:
			return true
		}
	}
	return false
}

// Document is the persisted metadata of an uploaded file. The payload
// itself lives in the blob store keyed by the document id.
type Document struct {
	ID          string         `db:"id" json:"id"`
	ParentType  DocumentParent `db:"parent_type" json:"-"`
	ParentID    string         `db:"parent_id" json:"-"`
	Kind        DocumentKind   `db:"kind" json:"kind"`
	FileName    string         `db:"file_name" json:"fileName"`
	ContentType string         `db:"content_type" json:"contentType"`
	Size        int64          `db:"size" json:"size"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}
