package util

import (
	"fmt"
	"log"
	"os"
)

// Logger is the destination Logf writes to; swap it in tests to capture
// output instead of hitting stderr.
var Logger = log.New(os.Stderr, "", log.LstdFlags)

// Logf writes a formatted line to Logger, matching the teacher's own
// ambient choice of plain fmt/log calls over a structured logging library.
func Logf(format string, args ...any) {
	Logger.Output(2, fmt.Sprintf(format, args...))
}
