package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/shai-agent/internal/domain"
	"github.com/doeshing/shai-agent/internal/ports"
)

type stubConfigProvider struct {
	cfg domain.Config
	err error
}

func (s stubConfigProvider) Load(context.Context) (domain.Config, error) {
	return s.cfg, s.err
}

type stubModelFactory struct {
	model *scriptedModel
	err   error
	got   domain.ModelDefinition
}

func (f *stubModelFactory) ForModel(def domain.ModelDefinition) (ports.ChatModel, error) {
	f.got = def
	if f.err != nil {
		return nil, f.err
	}
	return f.model, nil
}

type stubToolbox struct {
	tools   *stubTools
	workDir string
}

func (b *stubToolbox) ForRun(_ domain.Config, workDir string) (ports.ToolRegistry, error) {
	b.workDir = workDir
	return b.tools, nil
}

type memoryHistory struct {
	saved []domain.RunRecord
	err   error
}

func (m *memoryHistory) Save(_ context.Context, rec domain.RunRecord) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, rec)
	return nil
}

func (m *memoryHistory) Runs(context.Context, int) ([]domain.RunRecord, error) { return m.saved, nil }
func (m *memoryHistory) Run(context.Context, string) (domain.RunRecord, error) {
	return domain.RunRecord{}, nil
}
func (m *memoryHistory) Clear(context.Context) error { return nil }

type stubLogger struct {
	warns []string
}

func (l *stubLogger) Debug(string, map[string]interface{}) {}
func (l *stubLogger) Info(string, map[string]interface{})  {}
func (l *stubLogger) Warn(msg string, _ map[string]interface{}) {
	l.warns = append(l.warns, msg)
}
func (l *stubLogger) Error(string, error, map[string]interface{}) {}

func serviceConfig() domain.Config {
	return domain.Config{
		Preferences: domain.Preferences{DefaultModel: "primary"},
		Models: []domain.ModelDefinition{
			{Name: "primary", ModelID: "m1"},
			{Name: "other", ModelID: "m2"},
		},
		Agent:   domain.AgentSettings{MaxSteps: 5},
		History: domain.HistorySettings{Enabled: true},
	}
}

func newService(cfg domain.Config, model *scriptedModel, history *memoryHistory, logger *stubLogger) (*Service, *stubModelFactory, *stubToolbox) {
	factory := &stubModelFactory{model: model}
	box := &stubToolbox{tools: &stubTools{results: map[string]string{"executeCommand": "stdout: ok\nstderr:"}}}
	clock := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	svc := &Service{
		ConfigProvider: stubConfigProvider{cfg: cfg},
		ModelFactory:   factory,
		Toolbox:        box,
		History:        history,
		Logger:         logger,
		SystemPrompt:   "sys",
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	}
	return svc, factory, box
}

func TestServiceRunRecordsHistory(t *testing.T) {
	model := &scriptedModel{replies: []string{
		`{"step":"action","tool":"executeCommand","input":"ls"}`,
		`{"step":"output","content":"listed"}`,
	}}
	history := &memoryHistory{}
	svc, factory, box := newService(serviceConfig(), model, history, &stubLogger{})
	dir := t.TempDir()

	result, err := svc.Run(context.Background(), Request{Query: "list files", WorkDir: dir})
	require.NoError(t, err)
	assert.True(t, result.Done())
	assert.Equal(t, "m1", factory.got.ModelID)
	assert.Equal(t, dir, box.workDir)

	require.Len(t, history.saved, 1)
	rec := history.saved[0]
	assert.Equal(t, result.RunID, rec.ID)
	assert.Equal(t, "list files", rec.Query)
	assert.Equal(t, "primary", rec.Model)
	assert.Equal(t, domain.StateDone, rec.State)
	assert.Equal(t, "listed", rec.Output)
	assert.Equal(t, 2, rec.Turns)
	assert.Equal(t, time.Second, rec.FinishedAt.Sub(rec.StartedAt))
	assert.Len(t, rec.Messages, 5)
}

func TestServiceDefaultQueryAndModelOverride(t *testing.T) {
	model := &scriptedModel{replies: []string{`{"step":"output","content":"ok"}`}}
	svc, factory, _ := newService(serviceConfig(), model, &memoryHistory{}, &stubLogger{})

	_, err := svc.Run(context.Background(), Request{ModelOverride: "other", WorkDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "m2", factory.got.ModelID)
	require.Len(t, model.calls, 1)
	assert.Equal(t, DefaultQuery, model.calls[0][1].Content)
	assert.Equal(t, "sys", model.calls[0][0].Content)
}

func TestServiceAbortedRunRecordsError(t *testing.T) {
	model := &scriptedModel{replies: []string{`{"step":"action","tool":"rmrf","input":"/"}`}}
	history := &memoryHistory{}
	svc, _, _ := newService(serviceConfig(), model, history, &stubLogger{})

	result, err := svc.Run(context.Background(), Request{Query: "q", WorkDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, domain.AbortUnknownTool, result.Abort)
	require.Len(t, history.saved, 1)
	assert.Equal(t, "unknown tool: rmrf", history.saved[0].Error)
}

func TestServiceHistoryFailureIsLogged(t *testing.T) {
	model := &scriptedModel{replies: []string{`{"step":"output","content":"ok"}`}}
	logger := &stubLogger{}
	svc, _, _ := newService(serviceConfig(), model, &memoryHistory{err: errors.New("disk full")}, logger)

	result, err := svc.Run(context.Background(), Request{Query: "q", WorkDir: t.TempDir()})
	require.NoError(t, err)
	assert.True(t, result.Done())
	assert.Contains(t, logger.warns, "failed to save run history")
}

func TestServiceHistoryDisabled(t *testing.T) {
	cfg := serviceConfig()
	cfg.History.Enabled = false
	model := &scriptedModel{replies: []string{`{"step":"output","content":"ok"}`}}
	history := &memoryHistory{}
	svc, _, _ := newService(cfg, model, history, &stubLogger{})

	_, err := svc.Run(context.Background(), Request{Query: "q", WorkDir: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, history.saved)
}

func TestServiceSetupErrors(t *testing.T) {
	t.Run("unknown model", func(t *testing.T) {
		svc, _, _ := newService(serviceConfig(), &scriptedModel{}, &memoryHistory{}, &stubLogger{})
		_, err := svc.Run(context.Background(), Request{ModelOverride: "ghost"})
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})
	t.Run("missing key", func(t *testing.T) {
		svc, factory, _ := newService(serviceConfig(), &scriptedModel{}, &memoryHistory{}, &stubLogger{})
		factory.err = errors.Join(domain.ErrConfiguration, errors.New("missing API key: set NEBIUS_API_KEY"))
		_, err := svc.Run(context.Background(), Request{})
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})
	t.Run("config load", func(t *testing.T) {
		svc, _, _ := newService(serviceConfig(), &scriptedModel{}, &memoryHistory{}, &stubLogger{})
		svc.ConfigProvider = stubConfigProvider{err: errors.New("boom")}
		_, err := svc.Run(context.Background(), Request{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load config")
	})
	t.Run("missing dependencies", func(t *testing.T) {
		_, err := (&Service{}).Run(context.Background(), Request{})
		require.Error(t, err)
	})
}
