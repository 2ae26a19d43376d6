package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateOperationID creates a short, human-readable operation identifier.
// Format: {operation}-{subject}-{8charHexUUID}
//
// Example:
//   - Input: operation="attack", subject="gangs:7"
//   - Output: "attack-gangs-7-a3f8e2b1"
func GenerateOperationID(operation, subject string) string {
	id := operation
	if s := normalizeSubject(subject); s != "" {
		id += "-" + s
	}
	return id + "-" + generateShortUUID()
}

// normalizeSubject makes entity references safe for use inside identifiers.
//   - "gangs:7" -> "gangs-7"
//   - "Town Square" -> "town-square"
func normalizeSubject(subject string) string {
	subject = strings.ToLower(strings.TrimSpace(subject))
	return strings.NewReplacer(":", "-", " ", "-", "/", "-").Replace(subject)
}

// generateShortUUID creates an 8-character hex string from a UUID.
func generateShortUUID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}
