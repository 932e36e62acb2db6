package storage

import (
	"context"
	"fmt"

	"github.com/y0lz/backend-json/internal/apperr"
	"github.com/y0lz/backend-json/internal/domain"
	"github.com/y0lz/backend-json/internal/naming"
)

// GetSettings returns the settings document; a missing one reads as empty.
func (v *View) GetSettings(ctx context.Context) (domain.Settings, error) {
	if v.r.settings == nil {
		return nil, fmt.Errorf("settings: %w", apperr.ErrBackendUnavailable)
	}
	rec, err := v.r.settings.LoadSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	out := naming.ToInternal(rec)
	if out == nil {
		out = map[string]any{}
	}
	return domain.Settings(out), nil
}

// UpdateSettings merges changes into the settings document and returns the result.
func (v *View) UpdateSettings(ctx context.Context, changes domain.Settings) (domain.Settings, error) {
	current, err := v.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	for k, val := range changes {
		current[k] = val
	}
	if err := v.r.settings.SaveSettings(ctx, naming.ToExternal(current)); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	return current, nil
}
