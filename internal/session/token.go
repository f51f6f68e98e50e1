// Package session computes the process-scoped session token used to tag
// persisted selections. The token is "{pid}_{osSessionId}" so that two
// host processes sharing the same on-disk state never see each other's
// transient selections.
package session

import (
	"fmt"
	"os"
	"sync"
)

var tokenOnce = sync.OnceValue(func() string {
	return fmt.Sprintf("%d_%d", os.Getpid(), osSessionID())
})

// Token returns the session token for this process. Computed once at
// first use and immutable for the process lifetime.
func Token() string {
	return tokenOnce()
}

// Matches reports whether a stored token belongs to the current session.
// An empty stored token is a legacy untagged entry and matches any session.
func Matches(stored string) bool {
	return TokenMatches(stored, Token())
}

// TokenMatches reports whether a stored token belongs to the given session.
func TokenMatches(stored, current string) bool {
	return stored == "" || stored == current
}
