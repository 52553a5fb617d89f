package session

import (
	"errors"

	"github.com/WinstonKong/bubble-chat/internal/config"
)

// ErrNoUser is returned when neither the flag nor config.toml names a
// user to sign in as.
var ErrNoUser = errors.New("session: no user given and no default_user configured")

// ResolveUser determines which user to sign in as, by precedence:
// the --user flag, then config.toml default_user.
func ResolveUser(flagOverride string, cfg *config.Config) (string, error) {
	uid := flagOverride
	if uid == "" && cfg != nil {
		uid = cfg.DefaultUser
	}
	if uid == "" {
		return "", ErrNoUser
	}
	if err := ValidateUserID(uid); err != nil {
		return "", err
	}
	return uid, nil
}
