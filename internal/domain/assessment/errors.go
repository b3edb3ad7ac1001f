package assessment

import (
	"errors"

	"appraisal/internal/domain/auth"
)

var (
	ErrNotFound          = errors.New("assessment not found")
	ErrForbidden         = auth.ErrForbidden
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrValidation        = errors.New("validation failed")
)
