package entity

import "strings"

// Ref is a stable reference to one entity: the absolute path of its
// document plus its persistent hexadecimal handle. A Ref survives process
// restarts and is re-resolved against the store whenever a live entity is
// needed; in-memory identity is never carried across passes.
type Ref struct {
	DocumentPath string `json:"document_path"`
	Handle       string `json:"handle"`
}

// Equal compares two refs. Document paths compare case-insensitively
// (Windows filesystem semantics).
func (r Ref) Equal(other Ref) bool {
	return strings.EqualFold(r.DocumentPath, other.DocumentPath) && r.Handle == other.Handle
}

// IsZero reports whether the ref is empty.
func (r Ref) IsZero() bool {
	return r.DocumentPath == "" && r.Handle == ""
}

// String renders the ref as "path#handle".
func (r Ref) String() string {
	return r.DocumentPath + "#" + r.Handle
}
