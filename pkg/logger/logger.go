package logger

import (
	"fmt"
	"log"
	"os"
)

// New returns a stdlib logger for bootstrap messages emitted before slog is configured.
// Output goes to stderr so it never mixes with command output on stdout.
func New(component string) *log.Logger {
	prefix := fmt.Sprintf("[%s] ", component)
	return log.New(os.Stderr, prefix, log.LstdFlags|log.Lmsgprefix)
}
