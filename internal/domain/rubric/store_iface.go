package rubric

import "context"

type StoreAPI interface {
	ListTemplates(ctx context.Context, activeOnly bool) ([]TemplateSummary, error)
	GetTemplate(ctx context.Context, templateID string) (Template, error)
	CreateTemplate(ctx context.Context, tmpl NewTemplate) (string, error)
}
