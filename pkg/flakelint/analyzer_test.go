package flakelint_test

import (
	"testing"

	"github.com/example/testhealth/pkg/flakelint"
	"golang.org/x/tools/go/analysis/analysistest"
)

func TestAnalyzer(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, flakelint.Analyzer, "a")
}
