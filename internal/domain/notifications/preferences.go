package notifications

type Preference struct {
	EmailEnabled           bool `json:"emailEnabled"`
	AssessmentSubmitted    bool `json:"assessmentSubmitted"`
	ManagerReviewCompleted bool `json:"managerReviewCompleted"`
	DirectorApproved       bool `json:"directorApproved"`
	AdminReleased          bool `json:"adminReleased"`
	AssessmentReturned     bool `json:"assessmentReturned"`
	AssessmentAcknowledged bool `json:"assessmentAcknowledged"`
}

type PreferencePatch struct {
	EmailEnabled           *bool `json:"emailEnabled"`
	AssessmentSubmitted    *bool `json:"assessmentSubmitted"`
	ManagerReviewCompleted *bool `json:"managerReviewCompleted"`
	DirectorApproved       *bool `json:"directorApproved"`
	AdminReleased          *bool `json:"adminReleased"`
	AssessmentReturned     *bool `json:"assessmentReturned"`
	AssessmentAcknowledged *bool `json:"assessmentAcknowledged"`
}

// DefaultPreference applies to users without a stored row.
func DefaultPreference() Preference {
	return Preference{
		EmailEnabled:           true,
		AssessmentSubmitted:    true,
		ManagerReviewCompleted: true,
		DirectorApproved:       true,
		AdminReleased:          true,
		AssessmentReturned:     true,
		AssessmentAcknowledged: true,
	}
}

// Allows checks the master switch first, then the per-type flag.
func (p Preference) Allows(t Type) bool {
	if !p.EmailEnabled {
		return false
	}
	switch t {
	case TypeAssessmentSubmitted:
		return p.AssessmentSubmitted
	case TypeManagerReviewCompleted:
		return p.ManagerReviewCompleted
	case TypeDirectorApproved:
		return p.DirectorApproved
	case TypeAdminReleased:
		return p.AdminReleased
	case TypeAssessmentReturned:
		return p.AssessmentReturned
	case TypeAssessmentAcknowledged:
		return p.AssessmentAcknowledged
	}
	return false
}

func (p Preference) Apply(patch PreferencePatch) Preference {
	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.EmailEnabled, patch.EmailEnabled)
	set(&p.AssessmentSubmitted, patch.AssessmentSubmitted)
	set(&p.ManagerReviewCompleted, patch.ManagerReviewCompleted)
	set(&p.DirectorApproved, patch.DirectorApproved)
	set(&p.AdminReleased, patch.AdminReleased)
	set(&p.AssessmentReturned, patch.AssessmentReturned)
	set(&p.AssessmentAcknowledged, patch.AssessmentAcknowledged)
	return p
}
