//go:build !windows

package session

import "golang.org/x/sys/unix"

// osSessionID returns the POSIX session id of this process, the analogue
// of the Windows terminal-services session id. Falls back to 0 if the
// call fails.
func osSessionID() int {
	sid, err := unix.Getsid(0)
	if err != nil {
		return 0
	}
	return sid
}
