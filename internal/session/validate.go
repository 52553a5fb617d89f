package session

import (
	"fmt"
	"regexp"
)

// User IDs become directory names under ~/.bubble/users, so anything
// that could escape or confuse the filesystem is rejected up front.
var userIDRegexp = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateUserID checks that uid is safe to use as a data directory name.
func ValidateUserID(uid string) error {
	if !userIDRegexp.MatchString(uid) {
		return fmt.Errorf("invalid user id %q: must match ^[A-Za-z0-9_-]{1,64}$", uid)
	}
	return nil
}
