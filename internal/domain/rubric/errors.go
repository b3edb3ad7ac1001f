package rubric

import "errors"

var ErrTemplateNotFound = errors.New("rubric template not found")
