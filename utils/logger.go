// utils/logger.go
package utils

import (
	"log"
	"math/rand"
)

// Global verbose flag
var Verbose = true

// LogInfo logs an info message
func LogInfo(format string, args ...interface{}) {
	log.Printf("[INFO] "+format, args...)
}

// LogDebug logs a debug message if verbose mode is enabled
func LogDebug(format string, args ...interface{}) {
	if Verbose {
		log.Printf("[DEBUG] "+format, args...)
	}
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	log.Printf("[ERROR] "+format, args...)
}

// SetVerbose sets the verbose logging mode
func SetVerbose(v bool) {
	Verbose = v
}

// NewSeededRand creates a new seeded random number generator
func NewSeededRand(seed int64) *rand.Rand {
	source := rand.NewSource(seed)
	return rand.New(source)
}
