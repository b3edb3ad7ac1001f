package notifications

type Type string

const (
	TypeAssessmentSubmitted    Type = "assessment_submitted"
	TypeManagerReviewCompleted Type = "manager_review_completed"
	TypeDirectorApproved       Type = "director_approved"
	TypeAdminReleased          Type = "admin_released"
	TypeAssessmentReturned     Type = "assessment_returned"
	TypeAssessmentAcknowledged Type = "assessment_acknowledged"
)

var Types = []Type{
	TypeAssessmentSubmitted,
	TypeManagerReviewCompleted,
	TypeDirectorApproved,
	TypeAdminReleased,
	TypeAssessmentReturned,
	TypeAssessmentAcknowledged,
}

func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

type Result string

const (
	ResultSent    Result = "sent"
	ResultFailed  Result = "failed"
	ResultSkipped Result = "skipped"
)
