package core

import (
	"errors"
	"regexp"
)

// ErrNotFound is a sentinel error for "not found" cases
var ErrNotFound = errors.New("not found")

var notFoundRegex = regexp.MustCompile(`(?i)not[ _]found|unknown (member|user|channel|role)`)

// IsNotFoundError checks if an error is a "not found" error.
// Besides the sentinel it matches platform error strings such as Slack's
// "user_not_found" and Discord's "Unknown Member".
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return true
	}
	return notFoundRegex.MatchString(err.Error())
}
