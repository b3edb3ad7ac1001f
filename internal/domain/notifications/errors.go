package notifications

import "errors"

var (
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrUnknownType        = errors.New("unknown notification type")
)
