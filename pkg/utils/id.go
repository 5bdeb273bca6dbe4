package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerateSessionID generates a unique playback session ID.
func GenerateSessionID() string {
	return fmt.Sprintf("session_%s", uuid.NewString())
}

// GenerateAlertID generates a unique alert ID.
func GenerateAlertID() string {
	return uuid.NewString()
}
