package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/KaramelBytes/datalicious/internal/ai"
	"github.com/KaramelBytes/datalicious/internal/analysis"
	"github.com/KaramelBytes/datalicious/internal/assistant"
	cfgpkg "github.com/KaramelBytes/datalicious/internal/config"
	"github.com/KaramelBytes/datalicious/internal/dataset"
	"github.com/KaramelBytes/datalicious/internal/utils"
)

// buildGateway creates the LLM client for the configured provider. A missing
// key is not an error here; the assistant falls back when Ready fails.
func buildGateway(c *cfgpkg.Global) (*ai.Client, error) {
	return ai.NewClientForProvider(c.Provider, ai.Config{
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Model:       c.Model,
		HTTPTimeout: time.Duration(c.HTTPTimeoutSec) * time.Second,
	})
}

func analysisOptions(c *cfgpkg.Global) analysis.Options {
	opt := analysis.DefaultOptions()
	if c.RandomSampleThreshold > 0 {
		opt.RandomThreshold = c.RandomSampleThreshold
	}
	opt.SampleSeed = c.SampleSeed
	return opt
}

func newService(c *cfgpkg.Global) (*assistant.Service, error) {
	gw, err := buildGateway(c)
	if err != nil {
		return nil, err
	}
	return assistant.New(gw, analysisOptions(c)), nil
}

// resolveDetail prefers the --detail flag, then config, then Normal.
func resolveDetail(flag string, c *cfgpkg.Global) (analysis.DetailLevel, error) {
	if flag != "" {
		return analysis.ParseDetailLevel(flag)
	}
	return analysis.ParseDetailLevel(c.DetailLevel)
}

func loadDataset(path string) (*dataset.Dataset, error) {
	ds, err := dataset.Load(path)
	if err != nil {
		return nil, err
	}
	if ds.Width() == 0 {
		return nil, fmt.Errorf("%s has no usable columns", path)
	}
	return ds, nil
}

// noteFallback tells the user on stderr why they got a structural answer.
func noteFallback(w io.Writer, res assistant.Result) {
	if res.Provenance != assistant.ProvenanceFallback {
		return
	}
	if res.ErrorKind != "" {
		fmt.Fprintf(w, "⚠ AI unavailable (%s); showing a structural answer instead\n", res.ErrorKind)
		return
	}
	fmt.Fprintln(w, "⚠ AI unavailable; showing a structural answer instead")
}

// writeOrPrint writes data to path when set, otherwise to w.
func writeOrPrint(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if err := utils.WriteFileAtomic(path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ Wrote %s\n", path)
	return nil
}
