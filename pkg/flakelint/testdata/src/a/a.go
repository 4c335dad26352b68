// Package a is a test package for the flake linter.
package a

import (
	"net/http"
	"time"
)

// Non-test code is never reported.
func poll() {
	time.Sleep(time.Second)
	http.Get("https://example.com/health")
}
