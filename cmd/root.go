package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/datalicious/internal/config"
	"github.com/KaramelBytes/datalicious/internal/logging"
	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

var (
	// Global flags
	cfgFile string
	debug   bool
	// Gateway flags (override config if set)
	flagHTTPTimeoutSec int
	flagProvider       string
	flagModel          string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "datalicious",
	Short: "Datalicious: summaries, answers and charts for tabular data",
	Long: `Datalicious loads a CSV/TSV/XLSX file, builds a bounded digest of it and asks an
OpenAI-compatible model for summaries and answers. Without a reachable model it
falls back to deterministic structural answers computed from the data itself.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.datalicious/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "LLM request timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "LLM provider preset (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "model name (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = defaultConfig()
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("provider") && flagProvider != "" {
		_ = cfg.Set("provider", flagProvider)
	}
	if f.Changed("model") && flagModel != "" {
		cfg.Model = flagModel
	}

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	logging.Setup(level, cfg.LogFormat)
}

// defaultConfig mirrors the defaults Load applies, for when the file is unreadable.
func defaultConfig() *cfgpkg.Global {
	return &cfgpkg.Global{
		Provider:              "openrouter",
		HTTPTimeoutSec:        20,
		DetailLevel:           "normal",
		SampleSeed:            42,
		RandomSampleThreshold: 5000,
		Host:                  "127.0.0.1",
		Port:                  8000,
		CORSOrigins:           []string{"*"},
		LogLevel:              "info",
		LogFormat:             "console",
	}
}

// currentConfig returns the loaded config, loading it when a command runs
// outside Execute's initialization.
func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		loadConfig()
	}
	return cfg
}
