// Command testhealth analyzes test runs and produces health reports.
package main

import (
	"os"

	"github.com/example/testhealth/cmd/testhealth/internal/cli"
	"github.com/example/testhealth/cmd/testhealth/internal/ui"
)

func main() {
	if err := cli.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
