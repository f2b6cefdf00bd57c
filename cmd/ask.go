package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/KaramelBytes/datalicious/internal/analysis"
	"github.com/KaramelBytes/datalicious/internal/assistant"
	"github.com/KaramelBytes/datalicious/internal/dataset"
	"github.com/KaramelBytes/datalicious/internal/prompt"
	"github.com/KaramelBytes/datalicious/internal/utils"
	"github.com/spf13/cobra"
)

var (
	askMode        string
	askDetail      string
	askInteractive bool
	askHistoryFile string
	askJSON        bool
)

var askCmd = &cobra.Command{
	Use:   "ask <file> [question]",
	Short: "Ask a question about a dataset",
	Example: `  datalicious ask sales.csv "Which region sells the most?"
  datalicious ask sales.csv "What is a median?" --mode "Explain like I'm 5"
  datalicious ask sales.csv --interactive --history chat.json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 && !askInteractive {
			return fmt.Errorf("a question is required (or use --interactive)")
		}
		c := currentConfig()
		mode, err := prompt.ParseAnswerMode(askMode)
		if err != nil {
			return err
		}
		level, err := resolveDetail(askDetail, c)
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
		history, err := readHistory(askHistoryFile)
		if err != nil {
			return err
		}

		if last, ok := history.Last(); ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "ℹ Resuming conversation (%d turns). Last question: %q\n", len(history), last.Question)
		}

		s := &askSession{svc: svc, ds: ds, mode: mode, level: level, history: history, out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}
		if len(args) == 2 {
			if err := s.ask(cmd, args[1]); err != nil {
				return err
			}
		}
		if askInteractive {
			if err := s.loop(cmd, cmd.InOrStdin()); err != nil {
				return err
			}
		}
		return writeHistory(askHistoryFile, s.history)
	},
}

type askSession struct {
	svc     *assistant.Service
	ds      *dataset.Dataset
	mode    prompt.AnswerMode
	level   analysis.DetailLevel
	history assistant.History
	out     io.Writer
	errOut  io.Writer
}

func (s *askSession) ask(cmd *cobra.Command, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return prompt.ErrEmptyQuestion
	}
	var res assistant.Result
	res, s.history = s.svc.Ask(cmd.Context(), s.ds, s.history, question, s.mode, s.level)
	noteFallback(s.errOut, res)
	if askJSON {
		b, err := utils.PrettyJSON(res)
		if err != nil {
			return err
		}
		_, err = s.out.Write(b)
		return err
	}
	fmt.Fprintln(s.out, res.Text)
	return nil
}

// loop reads one question per line until EOF or "exit".
func (s *askSession) loop(cmd *cobra.Command, in io.Reader) error {
	sc := bufio.NewScanner(in)
	fmt.Fprintf(s.out, "Ask about %s (%d rows). Type \"exit\" to quit.\n", s.ds.Name, s.ds.Rows())
	for {
		fmt.Fprint(s.out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(s.out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit", ":q":
			return nil
		}
		if err := s.ask(cmd, line); err != nil {
			return err
		}
	}
}

func readHistory(path string) (assistant.History, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var h assistant.History
	if err := json.Unmarshal(b, &h); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", path, err)
	}
	return h, nil
}

func writeHistory(path string, h assistant.History) error {
	if path == "" {
		return nil
	}
	b, err := utils.PrettyJSON(h)
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(path, b, 0o600)
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVar(&askMode, "mode", "normal", `answer mode: normal|simplified|detailed ("Explain like I'm 5" is simplified)`)
	askCmd.Flags().StringVar(&askDetail, "detail", "", "digest detail level: quick|normal|deep (default from config)")
	askCmd.Flags().BoolVarP(&askInteractive, "interactive", "i", false, "keep asking questions from stdin")
	askCmd.Flags().StringVar(&askHistoryFile, "history", "", "JSON file to load and append the conversation to")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print each result with provenance as JSON")
}
