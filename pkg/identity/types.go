// Package identity is the client for the identity block: users, their roles
// and the groups they belong to.
package identity

import (
	"time"

	"github.com/fivetwenty-io/blocks-sdk/pkg/jsonapi"
)

// Resource type names used by the identity block.
const (
	ResourceTypeUser  = "users"
	ResourceTypeRole  = "roles"
	ResourceTypeGroup = "groups"
)

// User is a user account.
type User struct {
	ID            string                   `json:"id" yaml:"id"`
	Email         string                   `json:"email" yaml:"email"`
	Username      string                   `json:"username,omitempty" yaml:"username,omitempty"`
	FirstName     string                   `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	LastName      string                   `json:"last_name,omitempty" yaml:"last_name,omitempty"`
	Status        jsonapi.Status           `json:"status" yaml:"status"`
	EmailVerified bool                     `json:"email_verified" yaml:"email_verified"`
	Metadata      map[string]any           `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	LastLoginAt   *time.Time               `json:"last_login_at,omitempty" yaml:"last_login_at,omitempty"`
	CreatedAt     *time.Time               `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt     *time.Time               `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Role          jsonapi.Related[Role]    `json:"role,omitzero" yaml:"-"`
	Groups        jsonapi.Related[[]Group] `json:"groups,omitzero" yaml:"-"`
}

// FullName joins the first and last name, falling back to the username.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	default:
		return u.Username
	}
}

// Role is a named set of permissions.
type Role struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Permissions []string   `json:"permissions" yaml:"permissions"`
	IsSystem    bool       `json:"is_system" yaml:"is_system"`
	CreatedAt   *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Group is a collection of users.
type Group struct {
	ID          string                  `json:"id" yaml:"id"`
	Name        string                  `json:"name" yaml:"name"`
	Description string                  `json:"description,omitempty" yaml:"description,omitempty"`
	Status      jsonapi.Status          `json:"status" yaml:"status"`
	Members     jsonapi.Related[[]User] `json:"members,omitzero" yaml:"-"`
}

// UserCreateRequest is the payload of CreateUser.
type UserCreateRequest struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
	RoleID    string
	Metadata  map[string]any
}

// UserUpdateRequest is the payload of UpdateUser. Nil fields are left
// unchanged.
type UserUpdateRequest struct {
	Email     *string
	Username  *string
	FirstName *string
	LastName  *string
	Status    *jsonapi.Status
	RoleID    *string
	Metadata  map[string]any
}
