package cmd

import (
	"fmt"
	"strings"

	cfgpkg "github.com/KaramelBytes/datalicious/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set Datalicious configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "api_key: %s\n", mask(c.APIKey))
		fmt.Fprintf(out, "provider: %s\n", c.Provider)
		if c.BaseURL != "" {
			fmt.Fprintf(out, "base_url: %s\n", c.BaseURL)
		}
		if c.Model != "" {
			fmt.Fprintf(out, "model: %s\n", c.Model)
		}
		fmt.Fprintf(out, "http_timeout_sec: %d\n", c.HTTPTimeoutSec)
		fmt.Fprintf(out, "detail_level: %s\n", c.DetailLevel)
		fmt.Fprintf(out, "sample_seed: %d\n", c.SampleSeed)
		fmt.Fprintf(out, "random_sample_threshold: %d\n", c.RandomSampleThreshold)
		fmt.Fprintf(out, "host: %s\n", c.Host)
		fmt.Fprintf(out, "port: %d\n", c.Port)
		fmt.Fprintf(out, "cors_origins: %s\n", strings.Join(c.CORSOrigins, ","))
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", c.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long:  "Set a config value and save to disk. Keys: " + strings.Join(cfgpkg.Keys, ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		if err := c.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
