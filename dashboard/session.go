package dashboard

import (
	"context"
	"strings"
	"sync"

	"coconut-supply/models"
)

// Identity is the logged-in user's projection plus the bearer token.
type Identity struct {
	ID    uint
	Name  string
	Email string
	Role  models.UserRole
	Token string
}

// Session holds at most one identity. It is created empty, filled by Login
// and cleared by Logout, and handed to every component that calls the API.
type Session struct {
	client *Client

	mu       sync.RWMutex
	identity *Identity
}

func (c *Client) NewSession() *Session {
	return &Session{client: c}
}

type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    uint            `json:"id"`
		Name  string          `json:"name"`
		Email string          `json:"email"`
		Role  models.UserRole `json:"role"`
	} `json:"user"`
}

func (s *Session) Login(ctx context.Context, email, password string) (Identity, error) {
	email = strings.TrimSpace(email)
	if err := s.client.validate.Var(email, "required,email"); err != nil {
		return Identity{}, invalid("email", "a valid email address is required")
	}
	if password == "" {
		return Identity{}, invalid("password", "password is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.client.loginTimeout)
	defer cancel()

	var resp loginResponse
	err := s.client.do(ctx, "POST", "/users/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return Identity{}, err
	}

	id := Identity{
		ID:    resp.User.ID,
		Name:  resp.User.Name,
		Email: resp.User.Email,
		Role:  resp.User.Role,
		Token: resp.Token,
	}
	s.mu.Lock()
	s.identity = &id
	s.mu.Unlock()
	s.client.log.Info().Uint("user_id", id.ID).Str("role", string(id.Role)).Msg("logged in")
	return id, nil
}

func (s *Session) Logout() {
	s.mu.Lock()
	s.identity = nil
	s.mu.Unlock()
}

func (s *Session) Current() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

// Require returns the identity when it holds one of roles. With no roles any
// logged-in user passes.
func (s *Session) Require(roles ...models.UserRole) (Identity, error) {
	id, ok := s.Current()
	if !ok {
		return Identity{}, ErrNotAuthenticated
	}
	if len(roles) == 0 {
		return id, nil
	}
	for _, r := range roles {
		if id.Role == r {
			return id, nil
		}
	}
	return Identity{}, ErrForbiddenRole
}
