package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"smartlist/internal/app"
	"smartlist/internal/infrastructure/config"
	"smartlist/internal/pkg/common"

	"github.com/spf13/cobra"
)

var (
	premium bool
	verbose bool
	driver  string
)

// rootCmd is the smartlist command line entry point
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smartlist",
		Short: "Turn recipe text into a categorized grocery list",
		Long: `smartlist extracts ingredients from free-form recipe text and
sorts them into grocery aisles. Gemini is used when GEMINI_API_KEY is
set; otherwise a keyword heuristic runs locally.

Free users get a limited number of parses; pass --premium to lift it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVar(&premium, "premium", false, "treat this invocation as a premium user")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "write logs to stderr and the log directory")
	cmd.PersistentFlags().StringVar(&driver, "storage", "", "override the storage driver (memory, file, sqlite, redis)")

	cmd.AddCommand(parseCmd(), usageCmd(), categorizeCmd(), listsCmd())
	return cmd
}

// withApp loads configuration, builds the services and hands them to fn
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if driver != "" {
		cfg.Storage.Driver = driver
	}
	if premium {
		cfg.Usage.Premium = true
	}
	if verbose {
		if err := common.InitLogger(cfg.LogLevel, cfg.LogDir); err != nil {
			return err
		}
		defer common.Sync()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
