package identity

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/blocks-sdk/internal/constants"
	"github.com/fivetwenty-io/blocks-sdk/pkg/blocks"
	"github.com/fivetwenty-io/blocks-sdk/pkg/jsonapi"
)

// Service is the identity block client.
type Service struct {
	transport blocks.Transport
}

// NewService creates an identity client on top of transport.
func NewService(transport blocks.Transport) *Service {
	return &Service{transport: transport}
}

// GetUser fetches one user. Use params to side-load relationships, e.g.
// WithInclude("role", "groups").
func (s *Service) GetUser(ctx context.Context, id string, params *blocks.QueryParams) (*User, error) {
	resp, err := s.transport.Get(ctx, "/users/"+url.PathEscape(id), queryOptions(params))
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	user, err := jsonapi.UnmarshalOne(resp.Body, MapUser)
	if err != nil {
		return nil, fmt.Errorf("parsing user response: %w", err)
	}

	return &user, nil
}

// ListUsers fetches one page of users.
func (s *Service) ListUsers(ctx context.Context, params *blocks.QueryParams) (*jsonapi.PageResult[User], error) {
	resp, err := s.transport.Get(ctx, "/users", queryOptions(params))
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	page, err := jsonapi.UnmarshalPage(resp.Body, MapUser)
	if err != nil {
		return nil, fmt.Errorf("parsing users list response: %w", err)
	}

	return page, nil
}

// IterateUsers walks all users page by page.
func (s *Service) IterateUsers(ctx context.Context, params *blocks.QueryParams) *jsonapi.PageIterator[User] {
	perPage := constants.DefaultPageSize
	if params != nil && params.PerPage > 0 {
		perPage = params.PerPage
	}

	return jsonapi.NewPageIterator(ctx, s.userPages(params), perPage)
}

// ListAllUsers fetches every page of users, the remaining pages concurrently
// once the first one reports the total.
func (s *Service) ListAllUsers(ctx context.Context, params *blocks.QueryParams, opts *jsonapi.FetchAllOptions) ([]User, error) {
	return jsonapi.FetchAllPages(ctx, s.userPages(params), opts)
}

func (s *Service) userPages(params *blocks.QueryParams) jsonapi.PageFetcher[User] {
	return func(ctx context.Context, page, perPage int) (*jsonapi.PageResult[User], error) {
		return s.ListUsers(ctx, params.Clone().WithPage(page).WithPerPage(perPage))
	}
}

// CreateUser creates a user.
func (s *Service) CreateUser(ctx context.Context, request *UserCreateRequest) (*User, error) {
	doc := jsonapi.NewResourceDocument(ResourceTypeUser, "", request.attributes())
	if request.RoleID != "" {
		doc.Data.Relationships = roleRelationship(request.RoleID)
	}

	resp, err := s.transport.Post(ctx, "/users", doc, nil)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	user, err := jsonapi.UnmarshalOne(resp.Body, MapUser)
	if err != nil {
		return nil, fmt.Errorf("parsing user response: %w", err)
	}

	return &user, nil
}

// UpdateUser changes the fields set in request.
func (s *Service) UpdateUser(ctx context.Context, id string, request *UserUpdateRequest) (*User, error) {
	doc := jsonapi.NewResourceDocument(ResourceTypeUser, id, request.attributes())
	if request.RoleID != nil {
		doc.Data.Relationships = roleRelationship(*request.RoleID)
	}

	resp, err := s.transport.Patch(ctx, "/users/"+url.PathEscape(id), doc, nil)
	if err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}

	user, err := jsonapi.UnmarshalOne(resp.Body, MapUser)
	if err != nil {
		return nil, fmt.Errorf("parsing user response: %w", err)
	}

	return &user, nil
}

// DeleteUser deletes a user.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	_, err := s.transport.Delete(ctx, "/users/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	return nil
}

// GetRole fetches one role.
func (s *Service) GetRole(ctx context.Context, id string) (*Role, error) {
	resp, err := s.transport.Get(ctx, "/roles/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("getting role: %w", err)
	}

	role, err := jsonapi.UnmarshalOne(resp.Body, MapRole)
	if err != nil {
		return nil, fmt.Errorf("parsing role response: %w", err)
	}

	return &role, nil
}

// ListRoles fetches one page of roles.
func (s *Service) ListRoles(ctx context.Context, params *blocks.QueryParams) (*jsonapi.PageResult[Role], error) {
	resp, err := s.transport.Get(ctx, "/roles", queryOptions(params))
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}

	page, err := jsonapi.UnmarshalPage(resp.Body, MapRole)
	if err != nil {
		return nil, fmt.Errorf("parsing roles list response: %w", err)
	}

	return page, nil
}

// GetGroup fetches one group.
func (s *Service) GetGroup(ctx context.Context, id string, params *blocks.QueryParams) (*Group, error) {
	resp, err := s.transport.Get(ctx, "/groups/"+url.PathEscape(id), queryOptions(params))
	if err != nil {
		return nil, fmt.Errorf("getting group: %w", err)
	}

	group, err := jsonapi.UnmarshalOne(resp.Body, MapGroup)
	if err != nil {
		return nil, fmt.Errorf("parsing group response: %w", err)
	}

	return &group, nil
}

func queryOptions(params *blocks.QueryParams) *blocks.RequestOptions {
	if params == nil {
		return nil
	}

	return &blocks.RequestOptions{Params: params.ToParams()}
}

func roleRelationship(roleID string) map[string]*jsonapi.Relationship {
	if roleID == "" {
		return map[string]*jsonapi.Relationship{"role": {HasData: true}}
	}

	return map[string]*jsonapi.Relationship{
		"role": {
			HasData: true,
			One:     &jsonapi.Identifier{Type: ResourceTypeRole, ID: roleID},
		},
	}
}

func (r *UserCreateRequest) attributes() map[string]any {
	attrs := map[string]any{"email": r.Email}

	setString(attrs, "username", r.Username)
	setString(attrs, "firstName", r.FirstName)
	setString(attrs, "lastName", r.LastName)
	setString(attrs, "password", r.Password)

	if len(r.Metadata) > 0 {
		attrs["metadata"] = r.Metadata
	}

	return attrs
}

func (r *UserUpdateRequest) attributes() map[string]any {
	attrs := map[string]any{}

	if r.Email != nil {
		attrs["email"] = *r.Email
	}

	if r.Username != nil {
		attrs["username"] = *r.Username
	}

	if r.FirstName != nil {
		attrs["firstName"] = *r.FirstName
	}

	if r.LastName != nil {
		attrs["lastName"] = *r.LastName
	}

	if r.Status != nil {
		attrs["status"] = string(*r.Status)
	}

	if r.Metadata != nil {
		attrs["metadata"] = r.Metadata
	}

	return attrs
}

func setString(attrs map[string]any, key, value string) {
	if value != "" {
		attrs[key] = value
	}
}
