// Package assistant wires the digest, prompt, gateway and fallback steps into
// the two user-facing operations: summarize a dataset and answer a question.
package assistant

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/KaramelBytes/datalicious/internal/ai"
	"github.com/KaramelBytes/datalicious/internal/analysis"
	"github.com/KaramelBytes/datalicious/internal/dataset"
	"github.com/KaramelBytes/datalicious/internal/fallback"
	"github.com/KaramelBytes/datalicious/internal/prompt"
)

// Provenance records which path produced a result.
type Provenance string

const (
	ProvenanceAI       Provenance = "ai"
	ProvenanceFallback Provenance = "fallback"
)

// Result is what callers render. Err is set whenever the gateway failed.
type Result struct {
	ID         string           `json:"id"`
	Kind       prompt.Kind      `json:"kind"`
	Text       string           `json:"text"`
	Provenance Provenance       `json:"provenance"`
	Level      string           `json:"detail_level"`
	Model      string           `json:"model,omitempty"`
	ErrorKind  ai.ErrorKind     `json:"error_kind,omitempty"`
	Err        *ai.GatewayError `json:"-"`
	CreatedAt  time.Time        `json:"created_at"`
}

// readier is implemented by gateways that can report a missing credential
// without touching the network.
type readier interface {
	Ready() error
}

type modeler interface {
	Model() string
}

// Service is safe for concurrent use; it holds no per-request state.
type Service struct {
	Gateway ai.Generator
	Options analysis.Options
	Logger  *zerolog.Logger
}

// New returns a Service using the given gateway. A nil gateway always falls back.
func New(gw ai.Generator, opt analysis.Options) *Service {
	return &Service{Gateway: gw, Options: opt}
}

func (s *Service) logger() *zerolog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return &log.Logger
}

// Summarize produces a summary of ds in the given style.
func (s *Service) Summarize(ctx context.Context, ds *dataset.Dataset, style prompt.Style, level analysis.DetailLevel) Result {
	return s.run(ctx, ds, prompt.SummaryTask{Style: style}, level)
}

// Ask answers question and returns the history with the new turn appended.
// The caller's history is never modified.
func (s *Service) Ask(ctx context.Context, ds *dataset.Dataset, history History, question string, mode prompt.AnswerMode, level analysis.DetailLevel) (Result, History) {
	res := s.run(ctx, ds, prompt.QuestionTask{Question: question, Mode: mode}, level)
	return res, history.Append(Turn{
		Question:   question,
		Answer:     res.Text,
		Provenance: res.Provenance,
		Mode:       mode,
	})
}

func (s *Service) run(ctx context.Context, ds *dataset.Dataset, task prompt.Task, level analysis.DetailLevel) Result {
	res := Result{
		ID:        uuid.NewString(),
		Kind:      task.Kind(),
		Level:     level.String(),
		CreatedAt: time.Now().UTC(),
	}
	lg := s.logger().With().Str("result_id", res.ID).Str("kind", string(res.Kind)).Logger()

	fail := func(ge *ai.GatewayError) Result {
		res.Text = fallback.Respond(ds, task)
		res.Provenance = ProvenanceFallback
		if ge != nil {
			res.Err = ge
			res.ErrorKind = ge.Kind
			lg.Warn().Err(ge).Str("error_kind", string(ge.Kind)).Int("status", ge.StatusCode).
				Str("request_id", ge.RequestID).Msg("gateway failed, using fallback")
		}
		return res
	}

	if ds == nil {
		lg.Warn().Msg("no dataset loaded")
		return fail(nil)
	}
	if s.Gateway == nil {
		return fail(&ai.GatewayError{Kind: ai.KindMissingCredential, Message: "no gateway configured"})
	}
	if r, ok := s.Gateway.(readier); ok {
		if err := r.Ready(); err != nil {
			return fail(asGatewayError(err))
		}
	}
	if m, ok := s.Gateway.(modeler); ok {
		res.Model = m.Model()
	}

	env, err := prompt.Compose(analysis.BuildContext(ds, level, s.Options), task)
	if err != nil {
		lg.Warn().Err(err).Msg("could not compose prompt, using fallback")
		return fail(nil)
	}

	start := time.Now()
	text, err := s.Gateway.Generate(ctx, env)
	if err != nil {
		return fail(asGatewayError(err))
	}
	if text == "" {
		return fail(&ai.GatewayError{Kind: ai.KindUnrecognizedShape, Message: "empty completion"})
	}
	lg.Debug().Dur("duration", time.Since(start)).Int("max_tokens", env.MaxTokens).
		Float64("temperature", env.Temperature).Msg("gateway answered")
	res.Text = text
	res.Provenance = ProvenanceAI
	return res
}

func asGatewayError(err error) *ai.GatewayError {
	var ge *ai.GatewayError
	if errors.As(err, &ge) {
		return ge
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ai.GatewayError{Kind: ai.KindTimeout, Err: err}
	}
	return &ai.GatewayError{Kind: ai.KindNetwork, Err: err}
}
