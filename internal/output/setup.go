//go:build !windows

package output

// Setup is a no-op outside Windows; VT escape sequences work out of the box.
func Setup() {}
