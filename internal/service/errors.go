package service

import (
	"errors"
	"strings"
)

var (
	ErrForbidden = errors.New("forbidden: insufficient permissions")

	// ErrReferenceUnavailable wraps a reference table load failure. No
	// analysis can run without the table, so callers must tell it apart from
	// a document that simply yielded no results.
	ErrReferenceUnavailable = errors.New("reference table unavailable")
)

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

type AuditEntry struct {
	Subject      string
	UserRole     string
	Action       string
	ResourceType string
	ResourceID   string
	IPAddress    string
	RequestID    string
	Changes      string
}
