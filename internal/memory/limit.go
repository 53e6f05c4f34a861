package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"jukebox/internal/logging"
)

// DefaultRatio is the share of the container limit given to the Go heap.
// The rest is left for gst-launch children and goroutine stacks.
const DefaultRatio = 0.85

// Limit describes how GOMEMLIMIT ended up configured.
type Limit struct {
	// Source is "GOMEMLIMIT", "container" or "none".
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// Configured reports whether a soft memory limit is in effect.
func (l Limit) Configured() bool {
	return l.GoMemLimit > 0
}

// ApplyLimit sets the runtime soft memory limit to containerLimit*ratio.
// An explicit GOMEMLIMIT in the environment always wins. A ratio outside
// (0, 1] falls back to DefaultRatio.
func ApplyLimit(containerLimit int64, ratio float64) Limit {
	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		limit := Limit{Source: "GOMEMLIMIT"}
		if current := debug.SetMemoryLimit(-1); current > 0 && current < math.MaxInt64 {
			limit.GoMemLimit = current
		}
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		return limit
	}

	if containerLimit <= 0 {
		logging.Debug("No container memory limit given, GOMEMLIMIT left unset")
		return Limit{Source: "none"}
	}

	if ratio <= 0 || ratio > 1 {
		if ratio != 0 {
			logging.Warn("Memory ratio %.2f out of range (0.0-1.0], using default %.2f", ratio, DefaultRatio)
		}
		ratio = DefaultRatio
	}

	goMemLimit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		FormatBytes(goMemLimit), ratio*100, FormatBytes(containerLimit))

	return Limit{
		Source:         "container",
		ContainerLimit: containerLimit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}
}

// FormatBytes renders b with a binary unit suffix, e.g. "1.5 GiB".
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
