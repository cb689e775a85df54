package common

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

const (
	// Route execution allocates little per request.
	DefaultGOGC = 200

	DefaultMemLimit = 2 * 1024 * 1024 * 1024 // 2GB
)

// InitRuntime applies GC settings unless GOGC or GOMEMLIMIT are set in the
// environment.
func InitRuntime() {
	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(DefaultGOGC)
		log.Info().Int("GOGC", DefaultGOGC).Msg("[runtime] Set GOGC")
	}
	if os.Getenv("GOMEMLIMIT") == "" {
		debug.SetMemoryLimit(DefaultMemLimit)
		log.Info().
			Int64("GOMEMLIMIT_bytes", DefaultMemLimit).
			Float64("GOMEMLIMIT_GB", float64(DefaultMemLimit)/1024/1024/1024).
			Msg("[runtime] Set memory limit")
	}

	log.Info().
		Int("num_cpu", runtime.NumCPU()).
		Int("gomaxprocs", runtime.GOMAXPROCS(0)).
		Str("go_version", runtime.Version()).
		Msg("[runtime] Current runtime settings")
}
