// cmd/root.go

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	hostsFile     string
	outputFile    string
	verboseOutput bool
	parallel      int
	timeout       int

	rootCmd = &cobra.Command{
		Use:   "fleetcheck",
		Short: "Operator toolkit for Windows/VMware/Linux infrastructure fleets",
		Long: `fleetcheck bundles the recurring operator jobs for a mixed
infrastructure fleet: a Veeam/vSphere backup cluster health audit, a SQL
Server disk and database size inventory, a pre-upgrade package cleanup
audit for Linux hosts, and a non-destructive SSH/sudo connectivity
tester. Every tool walks its host list one resource at a time and prints
timestamped, leveled findings to the console.`,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Credentials and report settings may come from a local .env file
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVarP(&hostsFile, "hosts", "H", "", "Hosts configuration file")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "Output file path (default is automatically generated)")
	rootCmd.PersistentFlags().BoolVarP(&verboseOutput, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().IntVarP(&parallel, "parallel", "p", 1, "Maximum parallel remote sessions (1 = strictly sequential)")
	rootCmd.PersistentFlags().IntVarP(&timeout, "timeout", "t", 30, "Timeout in seconds for individual remote calls")

	rootCmd.AddCommand(newVeeamCmd())
	rootCmd.AddCommand(newSQLInventoryCmd())
	rootCmd.AddCommand(newPrecheckCmd())
	rootCmd.AddCommand(newConnectivityCmd())
}

// generateDefaultOutputFilename builds a timestamped path under reports/.
func generateDefaultOutputFilename(tool, ext string) string {
	timestamp := time.Now().Format("20060102-150405")

	outputDir := "reports"
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		outputDir = "."
	}

	return filepath.Join(outputDir, fmt.Sprintf("%s-%s.%s", tool, timestamp, ext))
}

// sanitizeFilename removes or replaces characters that are problematic
// in filenames.
func sanitizeFilename(filename string) string {
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "-",
		" ", "_",
	)
	return replacer.Replace(filename)
}

// newFleetProgressBar builds the progress bar used by the multi-host
// loops.
func newFleetProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", description)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Printf("\n")
		}),
	)
}

// envOr returns the environment value when the flag value is empty.
func envOr(flagValue, envKey string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(envKey)
}
