package assessment

import (
	"fmt"
	"sort"
	"strings"

	"appraisal/internal/domain/rubric"
)

// ValidationError carries per-field problems and matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func fieldError(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// applyScores merges patch into dst after checking every key against tmpl.
// dst is untouched when any entry is rejected.
func applyScores(tmpl rubric.Template, field string, dst map[string]int, patch map[string]*int) error {
	problems := map[string]string{}
	for id, value := range patch {
		indicator, ok := tmpl.Indicator(id)
		if !ok {
			problems[field+"."+id] = "unknown indicator"
			continue
		}
		if value != nil && !indicator.Allows(*value) {
			problems[field+"."+id] = fmt.Sprintf("score %d is not allowed", *value)
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Fields: problems}
	}
	for id, value := range patch {
		if value == nil {
			delete(dst, id)
			continue
		}
		dst[id] = *value
	}
	return nil
}

func applyEvidence(tmpl rubric.Template, field string, dst map[string]string, patch map[string]*string) error {
	problems := map[string]string{}
	for id := range patch {
		if _, ok := tmpl.Indicator(id); !ok {
			problems[field+"."+id] = "unknown indicator"
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Fields: problems}
	}
	for id, value := range patch {
		if value == nil || strings.TrimSpace(*value) == "" {
			delete(dst, id)
			continue
		}
		dst[id] = *value
	}
	return nil
}
