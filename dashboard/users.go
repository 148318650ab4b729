package dashboard

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"coconut-supply/models"
)

// UserInput is the admin user form. Password is required on create and
// optional on update.
type UserInput struct {
	Name     string          `json:"name" validate:"required"`
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password,omitempty"`
	Role     models.UserRole `json:"role" validate:"required"`
	Location string          `json:"location" validate:"required"`
}

func (u *Users) check(in UserInput, creating bool) error {
	in.Name = strings.TrimSpace(in.Name)
	if err := u.s.client.validate.Struct(in); err != nil {
		return &ValidationError{Message: "name, email, role and location are required"}
	}
	if !in.Role.Valid() {
		return invalid("role", "role must be admin, vendor or driver")
	}
	if creating && len(in.Password) < 6 {
		return invalid("password", "password must be at least 6 characters")
	}
	if !creating && in.Password != "" && len(in.Password) < 6 {
		return invalid("password", "password must be at least 6 characters")
	}
	return nil
}

// Users is the admin user-management surface.
type Users struct {
	s *Session
}

func NewUsers(s *Session) *Users { return &Users{s: s} }

// List returns all users; a non-empty role narrows the result.
func (u *Users) List(ctx context.Context, role models.UserRole) ([]models.User, error) {
	id, err := u.s.Require(models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	path := "/admin/users"
	if role != "" {
		path += "?" + url.Values{"role": {string(role)}}.Encode()
	}
	var users []models.User
	err = u.s.client.do(ctx, "GET", path, id.Token, nil, &users)
	return users, err
}

func (u *Users) Drivers(ctx context.Context) ([]models.User, error) {
	id, err := u.s.Require(models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	var drivers []models.User
	err = u.s.client.do(ctx, "GET", "/admin/drivers", id.Token, nil, &drivers)
	return drivers, err
}

func (u *Users) Create(ctx context.Context, in UserInput) (models.User, error) {
	id, err := u.s.Require(models.RoleAdmin)
	if err != nil {
		return models.User{}, err
	}
	if err := u.check(in, true); err != nil {
		return models.User{}, err
	}
	var created models.User
	err = u.s.client.do(ctx, "POST", "/admin/users", id.Token, in, &created)
	return created, err
}

func (u *Users) Update(ctx context.Context, userID uint, in UserInput) (models.User, error) {
	id, err := u.s.Require(models.RoleAdmin)
	if err != nil {
		return models.User{}, err
	}
	if userID == 0 {
		return models.User{}, invalid("id", "user is required")
	}
	if err := u.check(in, false); err != nil {
		return models.User{}, err
	}
	var updated models.User
	err = u.s.client.do(ctx, "PUT", "/admin/users/"+strconv.FormatUint(uint64(userID), 10), id.Token, in, &updated)
	return updated, err
}

func (u *Users) Delete(ctx context.Context, userID uint) error {
	id, err := u.s.Require(models.RoleAdmin)
	if err != nil {
		return err
	}
	if userID == 0 {
		return invalid("id", "user is required")
	}
	return u.s.client.do(ctx, "DELETE", "/admin/users/"+strconv.FormatUint(uint64(userID), 10), id.Token, nil, nil)
}
