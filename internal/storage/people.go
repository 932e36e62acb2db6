package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/y0lz/backend-json/internal/apperr"
	"github.com/y0lz/backend-json/internal/domain"
)

// GetPeople returns every person.
func (v *View) GetPeople(ctx context.Context) ([]domain.Person, error) {
	return list[domain.Person](ctx, v, People, nil)
}

// GetPeopleByRole returns people with role, optionally limited to one branch.
func (v *View) GetPeopleByRole(ctx context.Context, role domain.Role, branchID string) ([]domain.Person, error) {
	f := Where("role", string(role))
	if branchID != "" {
		f = f.And("branch_id", branchID)
	}
	return list[domain.Person](ctx, v, People, f)
}

// GetPersonByID returns one person.
func (v *View) GetPersonByID(ctx context.Context, id string) (domain.Person, error) {
	return get[domain.Person](ctx, v, People, id)
}

// GetPersonByExternalID finds a person by the id of their external contact.
func (v *View) GetPersonByExternalID(ctx context.Context, externalID string) (domain.Person, error) {
	return first[domain.Person](ctx, v, People, Where("external_contact_id", externalID))
}

// AddPerson stores a new person. The external contact id must be unique.
func (v *View) AddPerson(ctx context.Context, p domain.Person) (domain.Person, error) {
	if err := validatePerson(p); err != nil {
		return domain.Person{}, err
	}
	saved, err := insert[domain.Person](ctx, v, People, p, "external_contact_id")
	if err != nil {
		return domain.Person{}, err
	}
	v.mirror(ctx, saved.ID, false)
	return saved, nil
}

// UpdatePerson overwrites the person with p's attributes.
func (v *View) UpdatePerson(ctx context.Context, p domain.Person) (domain.Person, error) {
	if err := validatePerson(p); err != nil {
		return domain.Person{}, err
	}
	saved, err := update[domain.Person](ctx, v, People, p.ID, p)
	if err != nil {
		return domain.Person{}, err
	}
	v.mirror(ctx, saved.ID, false)
	return saved, nil
}

// PatchPerson changes only the given attributes, named in camelCase.
func (v *View) PatchPerson(ctx context.Context, id string, fields map[string]any) (domain.Person, error) {
	saved, err := patch[domain.Person](ctx, v, People, id, fields)
	if err != nil {
		return domain.Person{}, err
	}
	v.mirror(ctx, saved.ID, false)
	return saved, nil
}

// RemovePerson deletes the person record only. Use the lifecycle manager for
// a cascading delete.
func (v *View) RemovePerson(ctx context.Context, id string) error {
	if err := remove(ctx, v, People, id); err != nil {
		return err
	}
	v.mirror(ctx, id, true)
	return nil
}

func validatePerson(p domain.Person) error {
	if strings.TrimSpace(p.ExternalContactID) == "" {
		return fmt.Errorf("person external contact id: %w", apperr.ErrInvalid)
	}
	if !p.Role.Valid() {
		return fmt.Errorf("person role %q: %w", p.Role, apperr.ErrInvalid)
	}
	if p.WorkUntil != "" && !domain.ValidClock(p.WorkUntil) {
		return fmt.Errorf("person work until %q: %w", p.WorkUntil, apperr.ErrInvalid)
	}
	return nil
}
