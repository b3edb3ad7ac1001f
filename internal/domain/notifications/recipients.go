package notifications

// Recipients resolves who hears about a transition. It depends only on the
// type: the assigned manager/director, every active admin, or the staff
// member. Duplicate users are collapsed.
func Recipients(t Type, view View, admins []Recipient) []Recipient {
	var out []Recipient
	switch t {
	case TypeAssessmentSubmitted:
		out = appendPerson(out, view.Manager)
	case TypeManagerReviewCompleted:
		out = appendPerson(out, view.Director)
	case TypeDirectorApproved:
		out = append(out, admins...)
	case TypeAdminReleased, TypeAssessmentReturned:
		out = appendPerson(out, view.Staff)
	case TypeAssessmentAcknowledged:
		out = appendPerson(out, view.Manager)
		out = appendPerson(out, view.Director)
	}
	return dedupe(out)
}

// targetsStaff reports whether the type is addressed to the staff member.
func targetsStaff(t Type) bool {
	return t == TypeAdminReleased || t == TypeAssessmentReturned
}

func appendPerson(out []Recipient, p Person) []Recipient {
	if !p.Assigned() {
		return out
	}
	return append(out, Recipient{UserID: p.ID, Name: p.Name, Email: p.Email})
}

func dedupe(in []Recipient) []Recipient {
	if len(in) < 2 {
		return in
	}
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, r := range in {
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		out = append(out, r)
	}
	return out
}
