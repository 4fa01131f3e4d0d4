package peephole

import (
	"os"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// Package-wide debug switch for verbose logging of the rewrites each phase
// performs and of graphs Optimize rejects as inconsistent. Skipped
// per-opportunity checks are not logged. Default is off to keep logs clean.
var debugLogsEnabled = false

func init() {
	if v := os.Getenv("R8_DEBUG"); v == "1" || v == "true" {
		debugLogsEnabled = true
	}
}

// EnableDebugLogs toggles verbose peephole-optimizer debug logging.
func EnableDebugLogs(on bool) { debugLogsEnabled = on }

func shouldLog() bool { return debugLogsEnabled }

func debugWarn(msg string, ctx ...interface{}) {
	if shouldLog() {
		ethlog.Warn(msg, ctx...)
	}
}

func debugInfo(msg string, ctx ...interface{}) {
	if shouldLog() {
		ethlog.Info(msg, ctx...)
	}
}
