package auth

const (
	RoleStaff    = "staff"
	RoleManager  = "manager"
	RoleDirector = "director"
	RoleAdmin    = "admin"
)

const (
	PermTemplatesRead      = "rubric.templates.read"
	PermTemplatesWrite     = "rubric.templates.write"
	PermAssessmentsRead    = "assessments.read"
	PermAssessmentsSelf    = "assessments.self"
	PermAssessmentsReview  = "assessments.review"
	PermAssessmentsApprove = "assessments.approve"
	PermAssessmentsRelease = "assessments.release"
	PermNotificationsAdmin = "notifications.admin"
	PermAuditRead          = "audit.read"
)

var Roles = []string{RoleStaff, RoleManager, RoleDirector, RoleAdmin}

var RolePermissions = map[string][]string{
	RoleStaff: {
		PermTemplatesRead,
		PermAssessmentsRead,
		PermAssessmentsSelf,
	},
	RoleManager: {
		PermTemplatesRead,
		PermAssessmentsRead,
		PermAssessmentsSelf,
		PermAssessmentsReview,
	},
	RoleDirector: {
		PermTemplatesRead,
		PermAssessmentsRead,
		PermAssessmentsSelf,
		PermAssessmentsApprove,
	},
	RoleAdmin: {
		PermTemplatesRead,
		PermTemplatesWrite,
		PermAssessmentsRead,
		PermAssessmentsRelease,
		PermNotificationsAdmin,
		PermAuditRead,
	},
}

func HasPermission(role, permission string) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}
