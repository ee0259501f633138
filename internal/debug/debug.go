// Package debug provides the logger shared by the protocol layer.
package debug

import (
	"os"
	"strconv"

	"github.com/charmbracelet/log"
)

// Logger is the root logger. It logs at debug level if
// $WAYLAND_DEBUG is set to a positive number, matching libwayland's
// behavior, and at info level otherwise.
var Logger = newLogger()

func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:  log.InfoLevel,
		Prefix: "wayland",
	})

	debugLevel, err := strconv.ParseInt(os.Getenv("WAYLAND_DEBUG"), 10, 0)
	if (err == nil) && (debugLevel > 0) {
		logger.SetLevel(log.DebugLevel)
	}

	return logger
}

// Printf logs a protocol trace message at debug level.
func Printf(str string, args ...any) {
	Logger.Debugf(str, args...)
}
