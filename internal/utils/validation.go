package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// reportIDPattern matches the ids this service mints (UUID-ish) while
// rejecting anything that could smuggle SQL or path segments.
var reportIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// sortFields is the whitelist of ORDER BY columns exposed by the query
// layer. Whitelisting, not sanitising, is the injection guard.
var sortFields = map[string]bool{
	"created_at": true,
	"id":         true,
	"status":     true,
	"type":       true,
}

// ValidateReportID checks a caller-supplied report id.
func ValidateReportID(id string) error {
	if id == "" {
		return errors.New("report ID cannot be empty")
	}
	if !reportIDPattern.MatchString(id) {
		return errors.New("invalid report ID format")
	}
	return nil
}

// ValidateSortField checks a sort column against the whitelist.
func ValidateSortField(field string) error {
	if field == "" {
		return errors.New("sort field cannot be empty")
	}
	if !sortFields[field] {
		return fmt.Errorf("unsupported sort field %q", field)
	}
	return nil
}

// ValidateSortOrder checks the sort direction.
func ValidateSortOrder(order string) error {
	upper := strings.ToUpper(strings.TrimSpace(order))
	if upper != "ASC" && upper != "DESC" {
		return errors.New("sort order must be asc or desc")
	}
	return nil
}
