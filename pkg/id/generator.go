package id

import (
	"github.com/google/uuid"
)

// reportNamespace scopes content-derived IDs.
var reportNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://testhealth.dev/report"))

// Generate generates a new unique ID.
func Generate() string {
	return uuid.New().String()
}

// ForContent derives a stable ID from content. Equal content always yields
// the same ID.
func ForContent(content []byte) string {
	return uuid.NewSHA1(reportNamespace, content).String()
}
