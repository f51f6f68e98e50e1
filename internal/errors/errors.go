package errors

import "fmt"

// ErrorCode represents a cadsel error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"     // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"           // 404
	ErrDocumentNotOpen   ErrorCode = "DOCUMENT_NOT_OPEN"   // 404
	ErrNoSelection       ErrorCode = "NO_SELECTION"        // 404
	ErrNoStoredSelection ErrorCode = "NO_STORED_SELECTION" // 404
	ErrEntityResolution  ErrorCode = "ENTITY_RESOLUTION"   // 409
	ErrUnsupportedEdit   ErrorCode = "UNSUPPORTED_EDIT"    // 422
	ErrNameConflict      ErrorCode = "NAME_CONFLICT"       // 409
	ErrUniqueConstraint  ErrorCode = "UNIQUE_CONSTRAINT"   // 409
	ErrFileNotFound      ErrorCode = "FILE_NOT_FOUND"      // 404
	ErrCancelled         ErrorCode = "CANCELLED"           // 499
	ErrInternal          ErrorCode = "INTERNAL"            // 500
)

// CadselError represents a structured error with code, status, and details.
type CadselError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *CadselError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *CadselError {
	return &CadselError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when an entity or document cannot be found.
func NewNotFound(identifier string) *CadselError {
	return &CadselError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewDocumentNotOpen creates a 404 error for when a document is not in the open set.
func NewDocumentNotOpen(path string) *CadselError {
	return &CadselError{
		Code:    ErrDocumentNotOpen,
		Status:  404,
		Message: fmt.Sprintf("document is not open: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewNoSelection creates a 404 error for when view scope has nothing picked.
func NewNoSelection() *CadselError {
	return &CadselError{
		Code:    ErrNoSelection,
		Status:  404,
		Message: "nothing is picked; set a pick-set before filtering in view scope",
	}
}

// NewNoStoredSelection creates a 404 error for an empty stored selection.
// The filtered flag distinguishes "never stored" from "stored but filtered
// to empty for this session".
func NewNoStoredSelection(bucket string, filtered bool) *CadselError {
	msg := fmt.Sprintf("no selection has been stored for %q", bucket)
	if filtered {
		msg = fmt.Sprintf("a selection is stored for %q but none of it belongs to this session", bucket)
	}
	return &CadselError{
		Code:    ErrNoStoredSelection,
		Status:  404,
		Message: msg,
		Details: map[string]any{"bucket": bucket, "session_filtered": filtered},
	}
}

// NewEntityResolution creates a 409 error for a stable reference that no
// longer resolves to a live entity.
func NewEntityResolution(documentPath, handle string) *CadselError {
	return &CadselError{
		Code:    ErrEntityResolution,
		Status:  409,
		Message: fmt.Sprintf("handle %s does not resolve in document %s", handle, documentPath),
		Details: map[string]any{"document_path": documentPath, "handle": handle},
	}
}

// NewUnsupportedEdit creates a 422 error for a column/kind combination with
// no registered setter.
func NewUnsupportedEdit(column, kind string) *CadselError {
	return &CadselError{
		Code:    ErrUnsupportedEdit,
		Status:  422,
		Message: fmt.Sprintf("column %q is not editable for entity kind %q", column, kind),
		Details: map[string]any{"column": column, "kind": kind},
	}
}

// NewNameConflict creates a 409 error for a rename that could not be
// de-duplicated.
func NewNameConflict(name string) *CadselError {
	return &CadselError{
		Code:    ErrNameConflict,
		Status:  409,
		Message: fmt.Sprintf("name %q is already in use", name),
		Details: map[string]any{"name": name},
	}
}

// NewFileNotFound creates a 404 error for a missing file.
func NewFileNotFound(path string) *CadselError {
	return &CadselError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewCancelled creates a 499 error for a context-cancelled operation.
func NewCancelled(operation string) *CadselError {
	return &CadselError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", operation),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *CadselError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &CadselError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a CadselError with the given code.
func Is(err error, code ErrorCode) bool {
	if cErr, ok := err.(*CadselError); ok {
		return cErr.Code == code
	}
	return false
}
