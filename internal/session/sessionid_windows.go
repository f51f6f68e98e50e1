//go:build windows

package session

// osSessionID returns 0 on Windows. Querying the terminal-services
// session id needs a kernel32 call; the pid component already keeps
// concurrent processes apart, so the constant is acceptable here.
func osSessionID() int {
	return 0
}
