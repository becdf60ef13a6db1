package identity

import (
	"github.com/fivetwenty-io/blocks-sdk/pkg/jsonapi"
)

// MapUser maps a users resource. The role and groups relationships are
// resolved from the included set when present.
func MapUser(res *jsonapi.Resource, idx *jsonapi.Index) User {
	return User{
		ID:            res.ID,
		Email:         jsonapi.ParseString(res.Attr("email")),
		Username:      jsonapi.ParseString(res.Attr("username")),
		FirstName:     jsonapi.ParseString(res.AttrAny("firstName", "first_name")),
		LastName:      jsonapi.ParseString(res.AttrAny("lastName", "last_name")),
		Status:        jsonapi.ParseStatus(res.Attr("status")),
		EmailVerified: jsonapi.ParseBoolean(res.AttrAny("emailVerified", "email_verified")),
		Metadata:      jsonapi.ParseMap(res.Attr("metadata")),
		LastLoginAt:   jsonapi.ParseDate(res.AttrAny("lastLoginAt", "last_login_at")),
		CreatedAt:     jsonapi.ParseDate(res.AttrAny("createdAt", "created_at")),
		UpdatedAt:     jsonapi.ParseDate(res.AttrAny("updatedAt", "updated_at")),
		Role:          jsonapi.ResolveOne(res, "role", idx, MapRole),
		Groups:        jsonapi.ResolveMany(res, "groups", idx, MapGroup),
	}
}

// MapRole maps a roles resource.
func MapRole(res *jsonapi.Resource, _ *jsonapi.Index) Role {
	return Role{
		ID:          res.ID,
		Name:        jsonapi.ParseString(res.Attr("name")),
		Description: jsonapi.ParseString(res.Attr("description")),
		Permissions: jsonapi.ParseStringArray(res.Attr("permissions")),
		IsSystem:    jsonapi.ParseBoolean(res.AttrAny("isSystem", "is_system")),
		CreatedAt:   jsonapi.ParseDate(res.AttrAny("createdAt", "created_at")),
	}
}

// MapGroup maps a groups resource. Members link back to users, which may in
// turn reference the group; the back reference resolves as missing.
func MapGroup(res *jsonapi.Resource, idx *jsonapi.Index) Group {
	return Group{
		ID:          res.ID,
		Name:        jsonapi.ParseString(res.Attr("name")),
		Description: jsonapi.ParseString(res.Attr("description")),
		Status:      jsonapi.ParseStatus(res.Attr("status")),
		Members:     jsonapi.ResolveMany(res, "members", idx, MapUser),
	}
}
