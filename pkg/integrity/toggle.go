package integrity

import "context"

// FeatureToggle reports whether large file support is enabled for a
// repository.
type FeatureToggle interface {
	EnabledFor(ctx context.Context, repoID string) (bool, error)
}

// ToggleFunc adapts a function to FeatureToggle.
type ToggleFunc func(ctx context.Context, repoID string) (bool, error)

// EnabledFor implements FeatureToggle.
func (f ToggleFunc) EnabledFor(ctx context.Context, repoID string) (bool, error) {
	return f(ctx, repoID)
}

// StaticToggle answers from fixed configuration: Overrides first, then
// Default.
type StaticToggle struct {
	Default   bool
	Overrides map[string]bool
}

// EnabledFor implements FeatureToggle.
func (s StaticToggle) EnabledFor(ctx context.Context, repoID string) (bool, error) {
	if v, ok := s.Overrides[repoID]; ok {
		return v, nil
	}
	return s.Default, nil
}

// AllToggles enables a repository only when every toggle does. Toggles are
// consulted in order and evaluation stops at the first that disables.
func AllToggles(toggles ...FeatureToggle) FeatureToggle {
	return ToggleFunc(func(ctx context.Context, repoID string) (bool, error) {
		for _, t := range toggles {
			on, err := t.EnabledFor(ctx, repoID)
			if err != nil || !on {
				return false, err
			}
		}
		return true, nil
	})
}
