package cmd

import (
	"fmt"

	"github.com/KaramelBytes/datalicious/internal/analysis"
	"github.com/KaramelBytes/datalicious/internal/assistant"
	"github.com/KaramelBytes/datalicious/internal/prompt"
	"github.com/KaramelBytes/datalicious/internal/utils"
	"github.com/spf13/cobra"
)

var (
	sumStyle  string
	sumDetail string
	sumJSON   bool
	sumOutput string
)

type summarizeOutput struct {
	assistant.Result
	Dataset       string `json:"dataset"`
	Rows          int    `json:"rows"`
	Columns       int    `json:"columns"`
	DigestRunes   int    `json:"digest_runes"`
	ContextTokens int    `json:"context_tokens"`
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize <file>",
	Short: "Summarize a dataset in an executive, technical or business style",
	Example: `  datalicious summarize sales.csv
  datalicious summarize sales.csv --style technical --detail deep
  datalicious summarize sales.xlsx --json --output summary.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		style, err := prompt.ParseStyle(sumStyle)
		if err != nil {
			return err
		}
		level, err := resolveDetail(sumDetail, c)
		if err != nil {
			return err
		}
		ds, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		svc, err := newService(c)
		if err != nil {
			return err
		}

		res := svc.Summarize(cmd.Context(), ds, style, level)
		noteFallback(cmd.ErrOrStderr(), res)

		if !sumJSON {
			return writeOrPrint(cmd.OutOrStdout(), sumOutput, []byte(res.Text+"\n"))
		}
		d := analysis.BuildContext(ds, level, svc.Options)
		b, err := utils.PrettyJSON(summarizeOutput{
			Result:        res,
			Dataset:       ds.Name,
			Rows:          ds.Rows(),
			Columns:       ds.Width(),
			DigestRunes:   d.Len(),
			ContextTokens: utils.PromptTokens(prompt.SystemRole, d.Text()),
		})
		if err != nil {
			return fmt.Errorf("encode summary: %w", err)
		}
		return writeOrPrint(cmd.OutOrStdout(), sumOutput, b)
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	summarizeCmd.Flags().StringVar(&sumStyle, "style", "executive", "summary style: executive|technical|business")
	summarizeCmd.Flags().StringVar(&sumDetail, "detail", "", "digest detail level: quick|normal|deep (default from config)")
	summarizeCmd.Flags().BoolVar(&sumJSON, "json", false, "print the result with provenance as JSON")
	summarizeCmd.Flags().StringVarP(&sumOutput, "output", "o", "", "write to file instead of stdout")
}
