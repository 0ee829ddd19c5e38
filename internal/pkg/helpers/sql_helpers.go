package helpers

import (
	"database/sql"
	"strings"
)

// NullableString converts an optional string to sql.NullString.
// Nil and whitespace-only values are stored as NULL.
func NullableString(s *string) sql.NullString {
	if s == nil || strings.TrimSpace(*s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: strings.TrimSpace(*s), Valid: true}
}

// StringPtr returns a pointer to the NullString's value, or nil when NULL
func StringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// OptionalString returns nil for an empty string, else a pointer to its trimmed value
func OptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or ""
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// NullInt64Ptr returns a pointer to the NullInt64's value, or nil when NULL
func NullInt64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// NullableInt64 converts an optional foreign key to sql.NullInt64
func NullableInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
