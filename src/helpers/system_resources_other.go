//go:build !linux

package helpers

// TotalSystemMemoryMB is unknown off linux; callers fall back to a fixed limit.
func TotalSystemMemoryMB() int {
	return 0
}
