package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/y0lz/backend-json/internal/apperr"
	"github.com/y0lz/backend-json/internal/domain"
)

// GetBranches returns every branch.
func (v *View) GetBranches(ctx context.Context) ([]domain.Branch, error) {
	return list[domain.Branch](ctx, v, Branches, nil)
}

// GetBranchByID returns one branch.
func (v *View) GetBranchByID(ctx context.Context, id string) (domain.Branch, error) {
	return get[domain.Branch](ctx, v, Branches, id)
}

// AddBranch stores a new branch.
func (v *View) AddBranch(ctx context.Context, b domain.Branch) (domain.Branch, error) {
	if strings.TrimSpace(b.Name) == "" {
		return domain.Branch{}, fmt.Errorf("branch name: %w", apperr.ErrInvalid)
	}
	return insert[domain.Branch](ctx, v, Branches, b)
}

// UpdateBranch overwrites the branch with b's attributes.
func (v *View) UpdateBranch(ctx context.Context, b domain.Branch) (domain.Branch, error) {
	return update[domain.Branch](ctx, v, Branches, b.ID, b)
}

// DeleteBranch removes a branch.
func (v *View) DeleteBranch(ctx context.Context, id string) error {
	return remove(ctx, v, Branches, id)
}
