package cmd

import (
	"fmt"

	"github.com/KaramelBytes/datalicious/internal/chart"
	"github.com/spf13/cobra"
)

var (
	chColumn  string
	chLabel   string
	chTopN    int
	chCounts  bool
	chType    string
	chX       string
	chY       string
	chOutput  string
	chSuggest bool
)

var chartCmd = &cobra.Command{
	Use:   "chart <file>",
	Short: "Build a Plotly chart (JSON) from a dataset",
	Example: `  datalicious chart sales.csv --column Revenue --top-n 5
  datalicious chart sales.csv --column Region --counts
  datalicious chart sales.csv --type scatter --x Units --y Revenue -o scatter.json
  datalicious chart sales.csv --suggest`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if chSuggest {
			s := chart.Suggestions(ds)
			if len(s) == 0 {
				fmt.Fprintln(out, "No chart suggestions for this dataset.")
			}
			for _, line := range s {
				fmt.Fprintf(out, "- %s\n", line)
			}
			return nil
		}

		var fig *chart.Figure
		switch {
		case chCounts:
			if chColumn == "" {
				return fmt.Errorf("--counts requires --column")
			}
			bc, err := chart.ValueCounts(ds, chColumn, chTopN)
			if err != nil {
				return err
			}
			fig = bc.Figure()
		case chColumn != "":
			bc, err := chart.TopN(ds, chColumn, chLabel, chTopN)
			if err != nil {
				return err
			}
			fig = bc.Figure()
		default:
			typ, err := chart.ParseType(chType)
			if err != nil {
				return err
			}
			fig, err = chart.Build(ds, chart.Request{Type: typ, X: chX, Y: chY})
			if err != nil {
				return err
			}
			if fig.Note != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), fig.Note)
			}
		}
		b, err := fig.JSON()
		if err != nil {
			return fmt.Errorf("encode figure: %w", err)
		}
		return writeOrPrint(out, chOutput, append(b, '\n'))
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().StringVar(&chColumn, "column", "", "rank rows by this numeric column (top-N bar chart)")
	chartCmd.Flags().StringVar(&chLabel, "label", "", "label column for the top-N chart (default: first other column)")
	chartCmd.Flags().IntVar(&chTopN, "top-n", chart.DefaultTopN, fmt.Sprintf("number of bars, at most %d", chart.MaxTopN))
	chartCmd.Flags().BoolVar(&chCounts, "counts", false, "count the most frequent values of --column instead")
	chartCmd.Flags().StringVar(&chType, "type", "bar", "chart type when no --column is given: bar|line|scatter|pie|heatmap")
	chartCmd.Flags().StringVar(&chX, "x", "", "x axis column (default: first categorical)")
	chartCmd.Flags().StringVar(&chY, "y", "", "y axis column (default: first numeric)")
	chartCmd.Flags().StringVarP(&chOutput, "output", "o", "", "write the figure to a file")
	chartCmd.Flags().BoolVar(&chSuggest, "suggest", false, "print chart suggestions and exit")
}
