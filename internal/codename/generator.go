// Package codename allocates human-memorable codenames that do not collide
// with any existing client or project codename.
//
// Candidates come from a lazy, finite sequence. A seeded request always
// yields the same sequence; unseeded requests draw word pairs locally or ask
// Ghostwriter's generateCodename mutation, depending on configuration.
// Nothing is reserved: two concurrent requests may pick the same name.
package codename

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"iter"
	"math/rand/v2"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/config"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/logging"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/toolerr"
)

// Kind is the entity a codename is for.
type Kind string

const (
	KindClient  Kind = "client"
	KindProject Kind = "project"
)

// Checker reports whether a codename is already in use.
type Checker interface {
	Taken(ctx context.Context, codename string) (bool, error)
}

// Remote produces codenames server-side.
type Remote interface {
	GenerateCodename(ctx context.Context) (string, error)
}

// Request asks for one unused codename.
type Request struct {
	Kind Kind
	// Seed makes the candidate sequence deterministic.
	Seed string
	// MaxAttempts overrides the configured bound when positive.
	MaxAttempts int
}

// Generator allocates codenames. Safe for concurrent use.
type Generator struct {
	checker     Checker
	remote      Remote
	source      string
	maxAttempts int
	logger      *logging.Logger
	attempts    prometheus.Histogram
}

// Option customizes a Generator.
type Option func(*Generator)

// WithRemote sets the server-side source used when the configured source is remote.
func WithRemote(r Remote) Option {
	return func(g *Generator) { g.remote = r }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithRegisterer registers the attempts histogram with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(g *Generator) { g.attempts = newAttemptsHistogram(reg) }
}

// New creates a Generator from the codename section of the config.
func New(checker Checker, cfg config.CodenameConfig, opts ...Option) (*Generator, error) {
	if checker == nil {
		return nil, errors.New("codename checker is required")
	}
	g := &Generator{
		checker:     checker,
		source:      cfg.Source,
		maxAttempts: cfg.MaxAttempts,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.source == "" {
		g.source = config.CodenameSourceLocal
	}
	if g.maxAttempts <= 0 {
		g.maxAttempts = config.DefaultMaxCodenameAttempts
	}
	if g.source == config.CodenameSourceRemote && g.remote == nil {
		return nil, errors.New("remote codename source requires a Ghostwriter client")
	}
	if g.attempts == nil {
		g.attempts = newAttemptsHistogram(nil)
	}
	g.logger = g.logger.Named("codename")
	return g, nil
}

func newAttemptsHistogram(reg prometheus.Registerer) prometheus.Histogram {
	return promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
		Namespace: "ghostwriter_mcp",
		Subsystem: "codename",
		Name:      "attempts",
		Help:      "Candidates checked per codename allocation.",
		Buckets:   []float64{1, 2, 3, 5, 8, 10, 15, 20},
	})
}

// Generate returns the first candidate not already in use. After the
// attempt bound is reached it fails with CODENAME_EXHAUSTED.
func (g *Generator) Generate(ctx context.Context, req Request) (string, error) {
	const op = "generate_codename"
	if req.Kind != KindClient && req.Kind != KindProject {
		return "", toolerr.InvalidPayload(op, "kind must be %q or %q, got %q", KindClient, KindProject, req.Kind)
	}
	if req.MaxAttempts < 0 {
		return "", toolerr.InvalidPayload(op, "max_attempts must not be negative")
	}
	attempts := 0
	for candidate, err := range g.Candidates(ctx, req) {
		if err != nil {
			return "", err
		}
		attempts++

		taken, err := g.checker.Taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			g.attempts.Observe(float64(attempts))
			g.logger.Debug(ctx, "codename allocated",
				zap.String("kind", string(req.Kind)),
				zap.String("codename", candidate),
				zap.Int("attempts", attempts),
			)
			return candidate, nil
		}
		g.logger.Debug(ctx, "codename collision", zap.String("codename", candidate), zap.Int("attempt", attempts))
	}

	g.attempts.Observe(float64(attempts))
	g.logger.Warn(ctx, "codename attempts exhausted", zap.String("kind", string(req.Kind)), zap.Int("attempts", attempts))
	return "", toolerr.CodenameExhausted(op, attempts)
}

// bound resolves the attempt limit: request, then config.
func (g *Generator) bound(req Request) int {
	if req.MaxAttempts > 0 {
		return req.MaxAttempts
	}
	return g.maxAttempts
}

// Candidates yields at most the bounded number of candidates for req.
// Ranging again restarts the sequence; seeded sequences repeat exactly.
func (g *Generator) Candidates(ctx context.Context, req Request) iter.Seq2[string, error] {
	limit := g.bound(req)

	if req.Seed == "" && g.source == config.CodenameSourceRemote {
		return func(yield func(string, error) bool) {
			for range limit {
				name, err := g.remote.GenerateCodename(ctx)
				if !yield(name, err) || err != nil {
					return
				}
			}
		}
	}

	return func(yield func(string, error) bool) {
		r := newRand(req.Seed)
		for range limit {
			if !yield(wordPair(r), nil) {
				return
			}
		}
	}
}

// newRand returns a PCG stream keyed by seed, or a random one for "".
func newRand(seed string) *rand.Rand {
	if seed == "" {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	sum := h.Sum64()
	return rand.New(rand.NewPCG(sum, sum^0x9e3779b97f4a7c15))
}

func wordPair(r *rand.Rand) string {
	return fmt.Sprintf("%s %s", adjectives[r.IntN(len(adjectives))], nouns[r.IntN(len(nouns))])
}
