//go:build windows

package output

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// Setup enables VT escape processing on the Windows console so the dim and
// underline sequences render instead of printing literally.
func Setup() {
	handle, err := windows.GetStdHandle(windows.STD_OUTPUT_HANDLE)
	if err != nil {
		fmt.Printf("Failed to retrieve stdout handle: %s\n", err)
		return
	}
	var mode uint32
	if err := windows.GetConsoleMode(handle, &mode); err != nil {
		fmt.Printf("Failed to get console mode: %s\n", err)
		return
	}
	mode |= windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING
	if err := windows.SetConsoleMode(handle, mode); err != nil {
		fmt.Printf("Failed to set console mode: %s\n", err)
	}
}
