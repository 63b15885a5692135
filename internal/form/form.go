// Package form parses the small set of user inputs the front-end accepts
// before anything is sent to the backend.
package form

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format of project start dates.
const DateLayout = "2006-01-02"

const (
	msgExternalID = "External ID must be a positive integer."
	msgPlaceIDs   = "Places must be comma-separated positive integers, e.g. 27992,129884"
	msgDate       = "Start date must be a date in YYYY-MM-DD format."
	msgVisited    = "Visited must be true or false."
)

// ValidationError reports input rejected before any request is issued.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ParseExternalID accepts a single positive base-10 integer.
func ParseExternalID(input string) (int64, error) {
	id, ok := positiveInt(strings.TrimSpace(input))
	if !ok {
		return 0, &ValidationError{Field: "external_id", Message: msgExternalID}
	}
	return id, nil
}

// ParsePlaceIDs parses a comma-separated list of positive integers.
// Blank entries are skipped; any other bad entry rejects the whole list.
func ParsePlaceIDs(input string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, ok := positiveInt(part)
		if !ok {
			return nil, &ValidationError{Field: "places", Message: msgPlaceIDs}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseDate returns nil for blank input, otherwise a YYYY-MM-DD date.
func ParseDate(input string) (*string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	if _, err := time.Parse(DateLayout, input); err != nil {
		return nil, &ValidationError{Field: "start_date", Message: msgDate}
	}
	return &input, nil
}

// ParseVisited parses the visited selector value. Blank input is rejected
// rather than read as false.
func ParseVisited(input string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "true", "yes", "1":
		return true, nil
	case "false", "no", "0":
		return false, nil
	default:
		return false, &ValidationError{Field: "visited", Message: msgVisited}
	}
}

// OptionalString returns nil for an empty string.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func positiveInt(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
