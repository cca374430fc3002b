package logger

import (
	"log"
	"os"
)

// DebugLog prints only when DEBUG=1 is set in the environment.
func DebugLog(format string, args ...any) {
	if os.Getenv("DEBUG") == "1" {
		log.Printf("[DEBUG] "+format, args...)
	}
}

// Infof is for lines the operator should always see.
func Infof(format string, args ...any) {
	log.Printf("[INFO] "+format, args...)
}
