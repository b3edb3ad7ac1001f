package assessment

import "time"

type Status string

const (
	StatusDraft            Status = "draft"
	StatusSelfSubmitted    Status = "self_submitted"
	StatusManagerReviewed  Status = "manager_reviewed"
	StatusDirectorApproved Status = "director_approved"
	StatusRejected         Status = "rejected"
	StatusAdminReviewed    Status = "admin_reviewed"
	StatusAcknowledged     Status = "acknowledged"
)

var Statuses = []Status{
	StatusDraft,
	StatusSelfSubmitted,
	StatusManagerReviewed,
	StatusDirectorApproved,
	StatusRejected,
	StatusAdminReviewed,
	StatusAcknowledged,
}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

type Assessment struct {
	ID                 string            `json:"id"`
	StaffID            string            `json:"staffId"`
	ManagerID          string            `json:"managerId,omitempty"`
	DirectorID         string            `json:"directorId,omitempty"`
	TemplateID         string            `json:"templateId"`
	Period             string            `json:"period"`
	Status             Status            `json:"status"`
	StaffScores        map[string]int    `json:"staffScores"`
	StaffEvidence      map[string]string `json:"staffEvidence"`
	ManagerScores      map[string]int    `json:"managerScores"`
	ManagerEvidence    map[string]string `json:"managerEvidence"`
	ManagerNotes       string            `json:"managerNotes"`
	DirectorComments   string            `json:"directorComments"`
	ReturnedBy         string            `json:"returnedBy,omitempty"`
	FinalScore         *float64          `json:"finalScore"`
	FinalGrade         string            `json:"finalGrade,omitempty"`
	StaffSubmittedAt   *time.Time        `json:"staffSubmittedAt"`
	ManagerReviewedAt  *time.Time        `json:"managerReviewedAt"`
	DirectorReviewedAt *time.Time        `json:"directorReviewedAt"`
	ReleasedAt         *time.Time        `json:"releasedAt"`
	AcknowledgedAt     *time.Time        `json:"acknowledgedAt"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

// Detail is an assessment with the display names of everyone involved.
type Detail struct {
	Assessment
	StaffName    string `json:"staffName"`
	StaffEmail   string `json:"staffEmail"`
	ManagerName  string `json:"managerName,omitempty"`
	DirectorName string `json:"directorName,omitempty"`
	TemplateName string `json:"templateName"`
	Department   string `json:"department,omitempty"`
}

type Filter struct {
	StaffID    string
	ManagerID  string
	DirectorID string
	// IncludeUnassigned widens a manager or director filter to rows whose
	// slot is still empty.
	IncludeUnassigned bool
	Status            Status
	Period            string
	TemplateID        string
}

type NewAssessment struct {
	TemplateID string `json:"templateId" validate:"required"`
	Period     string `json:"period" validate:"required,max=100"`
}

// Reviewers is who an assessment is routed to at creation.
type Reviewers struct {
	ManagerID  string
	DirectorID string
}

// SelfAssessmentPatch is applied by the staff owner. A nil score clears the
// indicator; absent keys are left alone.
type SelfAssessmentPatch struct {
	Scores   map[string]*int    `json:"scores"`
	Evidence map[string]*string `json:"evidence"`
}

type ManagerReviewPatch struct {
	Scores   map[string]*int    `json:"scores"`
	Evidence map[string]*string `json:"evidence"`
	Notes    *string            `json:"notes" validate:"omitempty,max=10000"`
}

type DirectorPatch struct {
	Comments *string `json:"comments" validate:"omitempty,max=10000"`
}

type ReleaseResult struct {
	Released []string `json:"released"`
	Count    int      `json:"count"`
}

func (a Assessment) clone() Assessment {
	out := a
	out.StaffScores = cloneMap(a.StaffScores)
	out.ManagerScores = cloneMap(a.ManagerScores)
	out.StaffEvidence = cloneMap(a.StaffEvidence)
	out.ManagerEvidence = cloneMap(a.ManagerEvidence)
	return out
}

func cloneMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
