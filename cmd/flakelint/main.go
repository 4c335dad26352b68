// Command flakelint reports flake-prone patterns in Go tests.
//
// Usage:
//
//	flakelint ./...
//
// See pkg/flakelint for the list of checks.
package main

import (
	"github.com/example/testhealth/pkg/flakelint"
	"golang.org/x/tools/go/analysis/singlechecker"
)

func main() {
	singlechecker.Main(flakelint.Analyzer)
}
