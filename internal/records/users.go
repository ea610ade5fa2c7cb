package records

import (
	"context"
	"strings"

	"campussecurity/internal/model"
)

// UserAPI manages operator accounts (security personnel and admins).
type UserAPI struct {
	rt   *runtime
	repo UserRepository
}

// UserPatch carries the editable fields of an account. An empty Password
// keeps the current one.
type UserPatch struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

func (a *UserAPI) GetAll(ctx context.Context) ([]model.User, error) {
	if err := a.rt.wait(ctx, a.rt.latency.Read); err != nil {
		return nil, err
	}
	return a.repo.List(ctx)
}

// GetByID returns nil without error when no user has id.
func (a *UserAPI) GetByID(ctx context.Context, id string) (*model.User, error) {
	if err := a.rt.wait(ctx, a.rt.latency.Read); err != nil {
		return nil, err
	}
	return a.repo.Get(ctx, id)
}

// Search matches term case-insensitively against name and email. An empty
// term returns everyone.
func (a *UserAPI) Search(ctx context.Context, term string) ([]model.User, error) {
	all, err := a.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return all, nil
	}
	return filter(all, func(u model.User) bool {
		return strings.Contains(strings.ToLower(u.Name), term) ||
			strings.Contains(strings.ToLower(u.Email), term)
	}), nil
}

// Add creates an account; role defaults to security.
func (a *UserAPI) Add(ctx context.Context, u model.User) (model.User, error) {
	u.ID = ""
	u.LastLogin = nil
	if u.Role == "" {
		u.Role = model.RoleSecurity
	}
	if err := validateUser(u); err != nil {
		return model.User{}, err
	}
	if err := a.rt.wait(ctx, a.rt.latency.Write); err != nil {
		return model.User{}, err
	}
	return a.repo.Add(ctx, u)
}

// Update edits the account with id.
func (a *UserAPI) Update(ctx context.Context, id string, patch UserPatch) (model.User, error) {
	if err := a.rt.wait(ctx, a.rt.latency.Write); err != nil {
		return model.User{}, err
	}
	current, err := a.repo.Get(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if current == nil {
		return model.User{}, ErrNotFound
	}
	next := *current
	if patch.Name != "" {
		next.Name = patch.Name
	}
	if patch.Email != "" {
		next.Email = patch.Email
	}
	if patch.Password != "" {
		next.Password = patch.Password
	}
	if patch.Role != "" {
		next.Role = patch.Role
	}
	if err := validateUser(next); err != nil {
		return model.User{}, err
	}
	return a.repo.Update(ctx, next)
}

func (a *UserAPI) Delete(ctx context.Context, id string) error {
	if err := a.rt.wait(ctx, a.rt.latency.Write); err != nil {
		return err
	}
	return a.repo.Delete(ctx, id)
}
