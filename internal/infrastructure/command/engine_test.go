package command

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/shai-agent/internal/domain"
)

type stubGuard struct {
	risk  domain.RiskAssessment
	err   error
	calls []string
}

func (s *stubGuard) Evaluate(command string) (domain.RiskAssessment, error) {
	s.calls = append(s.calls, command)
	return s.risk, s.err
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	engine, err := NewEngine(t.TempDir(), opts...)
	require.NoError(t, err)
	return engine
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestEngineCreateFileRoundTrip(t *testing.T) {
	engine := newTestEngine(t)
	res, err := engine.Execute(context.Background(), `createFile "notes/a.txt" "line1\nline2"`)
	require.NoError(t, err)
	assert.Equal(t, "File created successfully: notes/a.txt", res.Stdout)
	assert.Equal(t, "stdout: File created successfully: notes/a.txt\nstderr:", res.String())

	data, err := os.ReadFile(filepath.Join(engine.Dir(), "notes", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2", string(data))
}

func TestEngineCreateFileOverwrites(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()
	_, err := engine.Execute(ctx, `echo "first" > out.txt`)
	require.NoError(t, err)
	_, err = engine.Execute(ctx, `echo "second" > out.txt`)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(engine.Dir(), "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestEngineCreateDirectoryTwice(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	res, err := engine.Execute(ctx, `mkdir "TODO App"`)
	require.NoError(t, err)
	assert.Equal(t, "Directory created: TODO App", res.Stdout)

	res, err = engine.Execute(ctx, `mkdir "TODO App"`)
	require.NoError(t, err)
	assert.Equal(t, "Directory already exists: TODO App", res.Stdout)

	info, err := os.Stat(filepath.Join(engine.Dir(), "TODO App"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEngineCreateDirectoryOverFile(t *testing.T) {
	engine := newTestEngine(t)
	require.NoError(t, os.WriteFile(filepath.Join(engine.Dir(), "taken"), []byte("x"), 0o644))

	_, err := engine.Execute(context.Background(), `mkdir taken`)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFilesystem)
	assert.Contains(t, err.Error(), "Failed to create directory")
}

func TestEngineChangeDirectory(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()
	root := engine.Dir()

	_, err := engine.Execute(ctx, `mkdir sub`)
	require.NoError(t, err)

	res, err := engine.Execute(ctx, `cd sub`)
	require.NoError(t, err)
	want := filepath.Join(root, "sub")
	assert.Equal(t, "Changed directory to: "+want, res.Stdout)
	assert.Equal(t, want, engine.Dir())

	res, err = engine.Execute(ctx, `pwd`)
	require.NoError(t, err)
	assert.Equal(t, want, res.Stdout)

	_, err = engine.Execute(ctx, `cd ..`)
	require.NoError(t, err)
	assert.Equal(t, root, engine.Dir())
}

func TestEngineChangeDirectoryMissingLeavesStateUnchanged(t *testing.T) {
	engine := newTestEngine(t)
	before := engine.Dir()

	_, err := engine.Execute(context.Background(), `cd nope`)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDirectoryNotFound)
	assert.Equal(t, "Directory not found: nope", err.Error())
	assert.Equal(t, before, engine.Dir())
}

func TestEngineChangeDirectoryOntoFile(t *testing.T) {
	engine := newTestEngine(t)
	require.NoError(t, os.WriteFile(filepath.Join(engine.Dir(), "f"), nil, 0o644))
	before := engine.Dir()

	_, err := engine.Execute(context.Background(), `cd f`)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFilesystem)
	assert.Equal(t, before, engine.Dir())
}

func TestEngineListSorted(t *testing.T) {
	engine := newTestEngine(t)
	for _, name := range []string{"b.txt", "a.txt", "c"} {
		require.NoError(t, os.WriteFile(filepath.Join(engine.Dir(), name), nil, 0o644))
	}

	res, err := engine.Execute(context.Background(), `ls`)
	require.NoError(t, err)
	assert.Equal(t, "a.txt\nb.txt\nc", res.Stdout)
}

func TestEngineListEmpty(t *testing.T) {
	engine := newTestEngine(t)
	res, err := engine.Execute(context.Background(), `dir`)
	require.NoError(t, err)
	assert.Equal(t, "", res.Stdout)
}

func TestEngineRawShellRunsInEngineDirectory(t *testing.T) {
	skipOnWindows(t)
	engine := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Execute(ctx, `mkdir sub`)
	require.NoError(t, err)
	_, err = engine.Execute(ctx, `cd sub`)
	require.NoError(t, err)

	res, err := engine.Execute(ctx, `touch marker.txt && printf done`)
	require.NoError(t, err)
	assert.Equal(t, "done", res.Stdout)
	assert.FileExists(t, filepath.Join(engine.Dir(), "marker.txt"))
}

func TestEngineRawShellFailure(t *testing.T) {
	skipOnWindows(t)
	engine := newTestEngine(t)

	_, err := engine.Execute(context.Background(), `echo out; echo err 1>&2; exit 3`)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSubprocessFailure)

	var cerr *domain.CommandError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, 3, cerr.ExitCode)
	assert.Equal(t, "Command failed with code 3:\nstdout: out\nstderr: err", cerr.Error())
}

func TestEngineWindowsRejectsShellOperators(t *testing.T) {
	engine := newTestEngine(t, WithPlatform("windows"))

	for _, raw := range []string{`type a.txt | findstr x`, `build && run`, `dir 2>nul`} {
		_, err := engine.Execute(context.Background(), raw)
		require.Error(t, err, raw)
		assert.ErrorIs(t, err, domain.ErrUnsupportedPlatform, raw)
		assert.Contains(t, err.Error(), "Complex shell operations not supported")
	}

	// Recognised intents never reach the shell, even with a redirect.
	res, err := engine.Execute(context.Background(), `echo hi > a.txt`)
	require.NoError(t, err)
	assert.Equal(t, "File created successfully: a.txt", res.Stdout)
}

func TestEngineGuardrailBlocks(t *testing.T) {
	guard := &stubGuard{risk: domain.RiskAssessment{
		Level:        domain.RiskCritical,
		Action:       domain.ActionBlock,
		Reasons:      []string{"recursive delete of root"},
		MatchedRules: []string{"rm-root"},
	}}
	engine := newTestEngine(t, WithGuardrail(guard))

	_, err := engine.Execute(context.Background(), `rm -rf /`)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCommandBlocked)
	assert.Equal(t, "Command blocked by guardrail: recursive delete of root", err.Error())
	assert.Equal(t, []string{"rm -rf /"}, guard.calls)
}

func TestEngineGuardrailSkipsRecognisedIntents(t *testing.T) {
	guard := &stubGuard{risk: domain.RiskAssessment{Action: domain.ActionBlock}}
	engine := newTestEngine(t, WithGuardrail(guard))

	_, err := engine.Execute(context.Background(), `mkdir safe`)
	require.NoError(t, err)
	assert.Empty(t, guard.calls)
}

func TestEngineGuardrailWarnStillRuns(t *testing.T) {
	skipOnWindows(t)
	guard := &stubGuard{risk: domain.RiskAssessment{Level: domain.RiskMedium, Action: domain.ActionWarn}}
	engine := newTestEngine(t, WithGuardrail(guard))

	res, err := engine.Execute(context.Background(), `printf ok`)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Stdout)
}

func TestNewEngineRejectsMissingDirectory(t *testing.T) {
	_, err := NewEngine(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
