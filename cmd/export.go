package cmd

import (
	"fmt"
	"os"

	"github.com/KaramelBytes/datalicious/internal/export"
	"github.com/KaramelBytes/datalicious/internal/utils"
	"github.com/spf13/cobra"
)

var (
	expSummaryFile string
	expText        string
	expFormat      string
	expFrame       string
	expOutput      string
	expJSON        bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a summary as text, an HTML page or a design-tool frame",
	Example: `  datalicious summarize sales.csv -o summary.txt
  datalicious export --summary-file summary.txt --format html -o summary.html
  datalicious export --text "Revenue grew 12%." --format figma --frame "Q3 Review"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		summary := expText
		if expSummaryFile != "" {
			b, err := os.ReadFile(expSummaryFile)
			if err != nil {
				return fmt.Errorf("read summary: %w", err)
			}
			summary = string(b)
		}
		format, err := export.ParseFormat(expFormat)
		if err != nil {
			return err
		}
		a, err := export.Export(summary, expFrame, format)
		if err != nil {
			return err
		}
		if expJSON {
			b, err := utils.PrettyJSON(a)
			if err != nil {
				return err
			}
			return writeOrPrint(cmd.OutOrStdout(), expOutput, b)
		}
		return writeOrPrint(cmd.OutOrStdout(), expOutput, []byte(a.Content))
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&expSummaryFile, "summary-file", "", "read the summary from this file")
	exportCmd.Flags().StringVar(&expText, "text", "", "summary text (ignored when --summary-file is set)")
	exportCmd.Flags().StringVar(&expFormat, "format", "text", "export format: text|html|figma")
	exportCmd.Flags().StringVar(&expFrame, "frame", export.DefaultFrameName, "frame/document name")
	exportCmd.Flags().StringVarP(&expOutput, "output", "o", "", "write to file instead of stdout")
	exportCmd.Flags().BoolVar(&expJSON, "json", false, "print the full artifact (data URI, anchor) as JSON")
}
