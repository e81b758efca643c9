// Package fieldmap projects values out of an arbitrarily nested provider response
// into a nested canonical structure using a declarative mapping table.
//
// A path is a dotted list of map keys such as "location.name" or
// "site-standard-profile-request.url". Segments are resolved left to right
// through maps only; lists are never indexed. A path that cannot be resolved
// is not an error: the destination is simply left absent.
//
// # Usage
//
//	table := fieldmap.Table{
//		{To: "uid", From: "id"},
//		{To: "name", From: "formatted-name"},
//		{To: "info.email", From: "email-address"},
//	}
//
//	out := fieldmap.Project(raw, table)
//	// out == map[string]any{"uid": "42", "name": "Jane Doe", "info": map[string]any{"email": "jane@x.com"}}
//
// # YAML
//
// Table decodes from a YAML mapping and keeps the declaration order:
//
//	response_map:
//	  uid: id
//	  info.email: email-address
package fieldmap
