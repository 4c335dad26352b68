package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/testhealth/cmd/testhealth/internal/ui"
	"github.com/example/testhealth/health/backend"
	"github.com/example/testhealth/internal/config"
)

// version is stamped on every report. Release builds override it with
// -ldflags "-X github.com/example/testhealth/cmd/testhealth/internal/cli.version=...".
var version = "1.0.0"

const banner = `
  _            _   _                _ _   _
 | |_ ___  ___| |_| |__   ___  __ _| | |_| |__
 | __/ _ \/ __| __| '_ \ / _ \/ _' | | __| '_ \
 | ||  __/\__ \ |_| | | |  __/ (_| | | |_| | | |
  \__\___||___/\__|_| |_|\___|\__,_|_|\__|_| |_|
`

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display the version of testhealth and the classification engine it would use.`,
	Run:   runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) {
	fmt.Fprint(cmd.OutOrStdout(), banner+"\n")
	ui.PrintInfo(fmt.Sprintf("Version: %s", version))
	ui.PrintInfo("Failure classification, flaky-test and performance anomaly detection for CI")

	if cfg, err := config.Load(configPath); err == nil {
		ui.PrintInfo(fmt.Sprintf("Engine: %s", backend.Select(cfg.BackendOptions()).Name()))
	}
	ui.PrintInfo("")
	ui.PrintInfo("For help: testhealth --help")
}
