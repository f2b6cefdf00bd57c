package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/KaramelBytes/datalicious/internal/analysis"
	"github.com/KaramelBytes/datalicious/internal/utils"
	"github.com/spf13/cobra"
)

var (
	colDetail string
	colDigest bool
	colJSON   bool
)

var columnsCmd = &cobra.Command{
	Use:   "columns <file>",
	Short: "Describe the columns of a dataset",
	Example: `  datalicious columns sales.csv
  datalicious columns sales.csv --digest --detail quick`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		level, err := resolveDetail(colDetail, c)
		if err != nil {
			return err
		}
		ds, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if colDigest {
			d := analysis.BuildContext(ds, level, analysisOptions(c))
			fmt.Fprintln(out, d.Text())
			fmt.Fprintf(out, "Digest: %d chars (~%d tokens), level %s\n", d.Len(), utils.CountTokens(d.Text()), level)
			return nil
		}
		// Column profiles always use the deepest level.
		d := analysis.BuildContext(ds, analysis.Deep, analysisOptions(c))
		if colJSON {
			b, err := utils.PrettyJSON(d.Cols)
			if err != nil {
				return err
			}
			_, err = out.Write(b)
			return err
		}

		fmt.Fprintf(out, "%s: %d rows, %d columns\n\n", ds.Name, d.Rows, len(d.Cols))
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "COLUMN\tDTYPE\tKIND\tMISSING\tUNIQUE\tTOP VALUES")
		for _, cs := range d.Cols {
			var top []string
			for _, tv := range cs.TopValues {
				top = append(top, fmt.Sprintf("%s(%d)", tv.Value, tv.Count))
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", cs.Name, cs.DType, cs.Kind, cs.Missing, cs.Unique, strings.Join(top, ", "))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(columnsCmd)
	columnsCmd.Flags().StringVar(&colDetail, "detail", "", "detail level for --digest: quick|normal|deep (default from config)")
	columnsCmd.Flags().BoolVar(&colDigest, "digest", false, "print the digest the model would see")
	columnsCmd.Flags().BoolVar(&colJSON, "json", false, "print column summaries as JSON")
}
