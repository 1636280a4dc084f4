package debug

import (
	"fmt"
	"log"
	"os"
	"time"
)

// Enabled reports whether debug output was requested via the
// UKADDRESS_DEBUG environment variable.
func Enabled() bool {
	switch os.Getenv("UKADDRESS_DEBUG") {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Header prints a debug section header if debugging is enabled
func Header(enabled bool) {
	if enabled {
		log.Printf("=== DEBUG START ===")
	}
}

// Footer prints a debug section footer if debugging is enabled
func Footer(enabled bool) {
	if enabled {
		log.Printf("=== DEBUG END ===")
	}
}

// Output prints debug output if debugging is enabled
func Output(enabled bool, format string, args ...interface{}) {
	if enabled {
		timestamp := time.Now().Format("15:04:05.000")
		message := fmt.Sprintf(format, args...)
		log.Printf("[%s] %s", timestamp, message)
	}
}

// Timing measures and logs execution time if debugging is enabled
func Timing(enabled bool, operation string) func() {
	if !enabled {
		return func() {}
	}

	start := time.Now()
	Output(enabled, "Starting: %s", operation)

	return func() {
		duration := time.Since(start)
		Output(enabled, "Completed: %s (took %v)", operation, duration)
	}
}
