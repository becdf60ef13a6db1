// Package jsonapi decodes JSON:API style documents into typed values.
//
// Each domain type supplies a Mapper. Mappers read attributes through the
// tolerant coercion helpers and resolve relationships against the document's
// included set:
//
//	func MapUser(res *jsonapi.Resource, idx *jsonapi.Index) User {
//		return User{
//			ID:    res.ID,
//			Email: jsonapi.ParseString(res.Attr("email")),
//			Role:  jsonapi.ResolveOne(res, "role", idx, MapRole),
//		}
//	}
//
//	user, err := jsonapi.UnmarshalOne(resp.Body, MapUser)
//
// A resolved relationship distinguishes a key that was never sent
// (IsAbsent), one sent as null (IsNull), and a resolved value (Get).
package jsonapi
