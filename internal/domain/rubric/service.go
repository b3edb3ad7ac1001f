package rubric

import "context"

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]TemplateSummary, error) {
	return s.store.ListTemplates(ctx, activeOnly)
}

func (s *Service) Get(ctx context.Context, templateID string) (Template, error) {
	return s.store.GetTemplate(ctx, templateID)
}

func (s *Service) Create(ctx context.Context, tmpl NewTemplate) (string, error) {
	return s.store.CreateTemplate(ctx, tmpl)
}
