package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/KaramelBytes/datalicious/internal/ai"
	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List built-in LLM provider presets",
	Example: `  datalicious providers
  datalicious config set provider ollama`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		current := currentConfig().Provider
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "\tPROVIDER\tBASE URL\tDEFAULT MODEL\tKEY")
		for _, name := range ai.ProviderNames() {
			p, _ := ai.LookupProvider(name)
			mark := ""
			if name == current {
				mark = "*"
			}
			key := "not required"
			if p.RequiresKey {
				key = p.KeyEnv
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", mark, p.Name, p.BaseURL, p.DefaultModel, key)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if p, ok := ai.LookupProvider(current); ok && len(p.Models) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "\nModels for %s: %s\n", p.Name, strings.Join(p.Models, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
