package helpers

import (
	"os"
	"runtime/debug"
)

const fallbackMemoryLimitMB = 512

// RecommendedMemoryLimitMB is 75% of physical memory, floored at 512MB
// unless the machine has less than that.
func RecommendedMemoryLimitMB() int {
	totalMB := TotalSystemMemoryMB()
	if totalMB == 0 {
		return fallbackMemoryLimitMB
	}

	limit := int(float64(totalMB) * 0.75)
	if limit < fallbackMemoryLimitMB {
		if totalMB < fallbackMemoryLimitMB {
			return totalMB
		}
		return fallbackMemoryLimitMB
	}
	return limit
}

// -----------------------------------------------------------------------------

// ApplySoftMemoryLimit sets the runtime soft memory limit unless GOMEMLIMIT
// is already set. It returns the limit in effect, in MB (0 when unlimited).
func ApplySoftMemoryLimit() int {
	if os.Getenv("GOMEMLIMIT") != "" {
		current := debug.SetMemoryLimit(-1)
		return int(current / 1024 / 1024)
	}
	limitMB := RecommendedMemoryLimitMB()
	debug.SetMemoryLimit(int64(limitMB) * 1024 * 1024)
	return limitMB
}
