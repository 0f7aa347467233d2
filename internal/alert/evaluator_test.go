package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/whowhywhen/whowhywhen/internal/model"
)

type fakeConfigStore struct {
	configs       []model.AlertConfig
	notifications []model.AlertNotification
	lastChecked   map[int64]time.Time
	insertErr     error
}

func newFakeConfigStore(configs ...model.AlertConfig) *fakeConfigStore {
	return &fakeConfigStore{configs: configs, lastChecked: map[int64]time.Time{}}
}

func (s *fakeConfigStore) ListConfigs(context.Context) ([]model.AlertConfig, error) {
	out := make([]model.AlertConfig, len(s.configs))
	copy(out, s.configs)
	return out, nil
}

func (s *fakeConfigStore) UpdateLastChecked(_ context.Context, configID int64, t time.Time) error {
	s.lastChecked[configID] = t
	for i := range s.configs {
		if s.configs[i].ID == configID {
			stamp := t
			s.configs[i].LastChecked = &stamp
		}
	}
	return nil
}

func (s *fakeConfigStore) InsertNotification(_ context.Context, n *model.AlertNotification) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	n.ID = int64(len(s.notifications) + 1)
	s.notifications = append(s.notifications, *n)
	return nil
}

type fakeCounter struct {
	serverErrors int
	clientErrors int
	slow         int

	calls     int
	lastSince time.Time
}

func (c *fakeCounter) CountByCodeRange(_ context.Context, _ uuid.UUID, lo, _ int, since time.Time) (int, error) {
	c.calls++
	c.lastSince = since
	if lo >= 500 {
		return c.serverErrors, nil
	}
	return c.clientErrors, nil
}

func (c *fakeCounter) CountSlow(_ context.Context, _ uuid.UUID, _ float64, _ time.Time) (int, error) {
	c.calls++
	return c.slow, nil
}

type fakeSink struct {
	sent []model.AlertNotification
	err  error
}

func (s *fakeSink) Send(_ context.Context, n *model.AlertNotification) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, *n)
	return nil
}

func intPtr(n int) *int          { return &n }
func floatPtr(f float64) *float64 { return &f }

func configWith(thresholds func(*model.AlertConfig)) model.AlertConfig {
	cfg := model.AlertConfig{
		ID:                   1,
		ProjectID:            uuid.New(),
		CheckIntervalMinutes: 15,
	}
	thresholds(&cfg)
	return cfg
}

func TestEvaluate_ServerErrorBreach(t *testing.T) {
	cfg := configWith(func(c *model.AlertConfig) { c.ServerErrorThreshold = intPtr(10) })
	store := newFakeConfigStore(cfg)
	counter := &fakeCounter{serverErrors: 11}
	sink := &fakeSink{}
	e := NewEvaluator(store, counter, sink, time.Second, zerolog.Nop())

	now := time.Now()
	require.NoError(t, e.Evaluate(context.Background(), &cfg, now))

	require.Len(t, store.notifications, 1)
	n := store.notifications[0]
	require.Equal(t, cfg.ProjectID, n.ProjectID)
	require.Equal(t, 10, *n.ServerErrorThreshold)
	require.Equal(t, 11, *n.ServerErrorActual)
	require.Nil(t, n.ClientErrorActual)
	require.Contains(t, n.Description, "11 errors")

	require.Len(t, sink.sent, 1)
	require.Equal(t, now, store.lastChecked[cfg.ID])
	require.Equal(t, now.Add(-15*time.Minute), counter.lastSince)
}

func TestEvaluate_AtThresholdIsNotABreach(t *testing.T) {
	cfg := configWith(func(c *model.AlertConfig) { c.ServerErrorThreshold = intPtr(10) })
	store := newFakeConfigStore(cfg)
	e := NewEvaluator(store, &fakeCounter{serverErrors: 10}, &fakeSink{}, time.Second, zerolog.Nop())

	require.NoError(t, e.Evaluate(context.Background(), &cfg, time.Now()))
	require.Empty(t, store.notifications)
	require.Contains(t, store.lastChecked, cfg.ID)
}

func TestEvaluate_NilThresholdsSkipped(t *testing.T) {
	cfg := configWith(func(c *model.AlertConfig) {})
	store := newFakeConfigStore(cfg)
	counter := &fakeCounter{serverErrors: 1000, clientErrors: 1000, slow: 1000}
	e := NewEvaluator(store, counter, &fakeSink{}, time.Second, zerolog.Nop())

	require.NoError(t, e.Evaluate(context.Background(), &cfg, time.Now()))
	require.Zero(t, counter.calls)
	require.Empty(t, store.notifications)
}

func TestEvaluate_SlowNeedsBothThresholds(t *testing.T) {
	cfg := configWith(func(c *model.AlertConfig) { c.SlowThresholdMS = floatPtr(500) })
	store := newFakeConfigStore(cfg)
	counter := &fakeCounter{slow: 1000}
	e := NewEvaluator(store, counter, &fakeSink{}, time.Second, zerolog.Nop())

	require.NoError(t, e.Evaluate(context.Background(), &cfg, time.Now()))
	require.Zero(t, counter.calls)
}

func TestEvaluate_MultipleDimensions(t *testing.T) {
	cfg := configWith(func(c *model.AlertConfig) {
		c.ServerErrorThreshold = intPtr(0)
		c.ClientErrorThreshold = intPtr(0)
		c.SlowThresholdMS = floatPtr(250)
		c.SlowCountThreshold = intPtr(5)
	})
	store := newFakeConfigStore(cfg)
	e := NewEvaluator(store, &fakeCounter{serverErrors: 3, clientErrors: 8, slow: 6}, &fakeSink{}, time.Second, zerolog.Nop())

	require.NoError(t, e.Evaluate(context.Background(), &cfg, time.Now()))
	require.Len(t, store.notifications, 3)
}

func TestPass_SkipsConfigsNotDue(t *testing.T) {
	recent := time.Now().Add(-time.Minute)
	cfg := configWith(func(c *model.AlertConfig) {
		c.ServerErrorThreshold = intPtr(0)
		c.LastChecked = &recent
	})
	store := newFakeConfigStore(cfg)
	counter := &fakeCounter{serverErrors: 100}
	e := NewEvaluator(store, counter, &fakeSink{}, time.Second, zerolog.Nop())

	require.NoError(t, e.Pass(context.Background()))
	require.Zero(t, counter.calls)
	require.Empty(t, store.notifications)
}

func TestPass_SecondImmediatePassEmitsNothing(t *testing.T) {
	cfg := configWith(func(c *model.AlertConfig) { c.ServerErrorThreshold = intPtr(0) })
	store := newFakeConfigStore(cfg)
	e := NewEvaluator(store, &fakeCounter{serverErrors: 5}, &fakeSink{}, time.Second, zerolog.Nop())

	require.NoError(t, e.Pass(context.Background()))
	require.Len(t, store.notifications, 1)

	require.NoError(t, e.Pass(context.Background()))
	require.Len(t, store.notifications, 1, "interval has not elapsed, no re-evaluation")
}

func TestEmit_DeliveryFailureKeepsNotification(t *testing.T) {
	cfg := configWith(func(c *model.AlertConfig) { c.ServerErrorThreshold = intPtr(0) })
	store := newFakeConfigStore(cfg)
	sink := &fakeSink{err: errors.New("webhook down")}
	e := NewEvaluator(store, &fakeCounter{serverErrors: 5}, sink, time.Second, zerolog.Nop())

	require.NoError(t, e.Evaluate(context.Background(), &cfg, time.Now()))
	require.Len(t, store.notifications, 1, "stored notification stands on delivery failure")
}

func TestEvaluate_SlowThresholdConvertedToSeconds(t *testing.T) {
	cfg := configWith(func(c *model.AlertConfig) {
		c.SlowThresholdMS = floatPtr(1500)
		c.SlowCountThreshold = intPtr(0)
	})
	store := newFakeConfigStore(cfg)

	var gotThreshold float64
	counter := &thresholdCapture{capture: &gotThreshold}
	e := NewEvaluator(store, counter, &fakeSink{}, time.Second, zerolog.Nop())

	require.NoError(t, e.Evaluate(context.Background(), &cfg, time.Now()))
	require.Equal(t, 1.5, gotThreshold)
}

type thresholdCapture struct {
	capture *float64
}

func (c *thresholdCapture) CountByCodeRange(context.Context, uuid.UUID, int, int, time.Time) (int, error) {
	return 0, nil
}

func (c *thresholdCapture) CountSlow(_ context.Context, _ uuid.UUID, threshold float64, _ time.Time) (int, error) {
	*c.capture = threshold
	return 1, nil
}
