package codename

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/config"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/toolerr"
)

// fakeChecker treats every codename in taken as used, or all of them
// when takeAll is set.
type fakeChecker struct {
	mu      sync.Mutex
	taken   map[string]bool
	takeAll bool
	err     error
	checked []string
}

func (f *fakeChecker) Taken(_ context.Context, codename string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checked = append(f.checked, codename)
	if f.err != nil {
		return false, f.err
	}
	return f.takeAll || f.taken[fold(codename)], nil
}

func fold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

type fakeRemote struct {
	names []string
	calls int
}

func (f *fakeRemote) GenerateCodename(context.Context) (string, error) {
	name := f.names[f.calls%len(f.names)]
	f.calls++
	return name, nil
}

func newGenerator(t *testing.T, checker Checker, opts ...Option) *Generator {
	t.Helper()
	g, err := New(checker, config.CodenameConfig{MaxAttempts: 10, Source: config.CodenameSourceLocal}, opts...)
	require.NoError(t, err)
	return g
}

func TestGenerate_ExhaustsAfterExactlyTenAttempts(t *testing.T) {
	checker := &fakeChecker{takeAll: true}
	g := newGenerator(t, checker)

	_, err := g.Generate(context.Background(), Request{Kind: KindClient})
	require.Error(t, err)
	assert.ErrorIs(t, err, toolerr.ErrCodenameExhausted)
	assert.Len(t, checker.checked, 10)
	assert.Contains(t, err.Error(), "10 attempts")
}

func TestGenerate_RequestBoundOverridesConfig(t *testing.T) {
	checker := &fakeChecker{takeAll: true}
	g := newGenerator(t, checker)

	_, err := g.Generate(context.Background(), Request{Kind: KindProject, MaxAttempts: 3})
	assert.ErrorIs(t, err, toolerr.ErrCodenameExhausted)
	assert.Len(t, checker.checked, 3)
}

func TestGenerate_DefaultBound(t *testing.T) {
	checker := &fakeChecker{takeAll: true}
	g, err := New(checker, config.CodenameConfig{})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), Request{Kind: KindClient})
	assert.ErrorIs(t, err, toolerr.ErrCodenameExhausted)
	assert.Len(t, checker.checked, config.DefaultMaxCodenameAttempts)
}

func TestGenerate_SeededIsDeterministic(t *testing.T) {
	g := newGenerator(t, &fakeChecker{})

	first, err := g.Generate(context.Background(), Request{Kind: KindClient, Seed: "acme-2026"})
	require.NoError(t, err)
	second, err := g.Generate(context.Background(), Request{Kind: KindClient, Seed: "acme-2026"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerate_SkipsCollisions(t *testing.T) {
	g := newGenerator(t, &fakeChecker{})
	req := Request{Kind: KindClient, Seed: "collide"}

	var seq []string
	for name, err := range g.Candidates(context.Background(), req) {
		require.NoError(t, err)
		seq = append(seq, name)
	}
	require.Len(t, seq, 10)

	// Mark the first candidate used; the result must be a later one that is free.
	checker := &fakeChecker{taken: map[string]bool{fold(seq[0]): true}}
	g = newGenerator(t, checker)

	got, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, checker.taken[fold(got)])
	assert.Contains(t, seq[1:], got)
}

func TestGenerate_NeverReturnsTakenCodename(t *testing.T) {
	g := newGenerator(t, &fakeChecker{})
	taken := map[string]bool{}
	for name, err := range g.Candidates(context.Background(), Request{Kind: KindProject, Seed: "snapshot", MaxAttempts: 9}) {
		require.NoError(t, err)
		taken[fold(name)] = true
	}

	checker := &fakeChecker{taken: taken}
	g = newGenerator(t, checker)
	got, err := g.Generate(context.Background(), Request{Kind: KindProject, Seed: "snapshot", MaxAttempts: 30})
	if err != nil {
		assert.ErrorIs(t, err, toolerr.ErrCodenameExhausted)
		return
	}
	assert.False(t, taken[fold(got)])
}

func TestGenerate_InvalidKind(t *testing.T) {
	checker := &fakeChecker{}
	g := newGenerator(t, checker)

	_, err := g.Generate(context.Background(), Request{Kind: "report"})
	assert.ErrorIs(t, err, toolerr.ErrInvalidPayload)
	assert.Empty(t, checker.checked)
}

func TestGenerate_CheckerErrorStops(t *testing.T) {
	checker := &fakeChecker{err: toolerr.RemoteUnavailable("clients_by_codename", errors.New("connection refused"))}
	g := newGenerator(t, checker)

	_, err := g.Generate(context.Background(), Request{Kind: KindClient})
	assert.ErrorIs(t, err, toolerr.ErrRemoteUnavailable)
	assert.Len(t, checker.checked, 1)
}

func TestGenerate_RemoteSource(t *testing.T) {
	remote := &fakeRemote{names: []string{"Taken Name", "Fresh Name"}}
	checker := &fakeChecker{taken: map[string]bool{"taken name": true}}
	g, err := New(checker, config.CodenameConfig{MaxAttempts: 5, Source: config.CodenameSourceRemote}, WithRemote(remote))
	require.NoError(t, err)

	got, err := g.Generate(context.Background(), Request{Kind: KindClient})
	require.NoError(t, err)
	assert.Equal(t, "Fresh Name", got)
	assert.Equal(t, 2, remote.calls)
}

func TestNew_RemoteSourceNeedsClient(t *testing.T) {
	_, err := New(&fakeChecker{}, config.CodenameConfig{Source: config.CodenameSourceRemote})
	assert.Error(t, err)
}

func TestGenerate_RecordsAttempts(t *testing.T) {
	reg := prometheus.NewRegistry()
	g := newGenerator(t, &fakeChecker{}, WithRegisterer(reg))

	_, err := g.Generate(context.Background(), Request{Kind: KindClient})
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "ghostwriter_mcp_codename_attempts")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
