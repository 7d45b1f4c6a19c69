package service

const (
	QueryFilters           = queryFilters
	MutationReorderFilters = mutationReorderFilters
)

// ExportedSaveGuard lets the external test package drive the guard.
type ExportedSaveGuard = saveGuard

// SaveGuard exposes the service's guard so tests can hold a template busy.
func (s *EditorService) SaveGuard() *ExportedSaveGuard { return &s.saves }
