package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfarm-bot/bitfarm/internal/config"
	"github.com/bitfarm-bot/bitfarm/internal/domain"
)

func timerSettings() config.Settings {
	return config.Settings{
		SessionJitter: config.DurationRange{Min: 1 * time.Second, Max: 80 * time.Second},
		DownloadSpeed: config.Range{Min: 50, Max: 250},
		UploadSpeed:   config.Range{Min: 10, Max: 50},
	}
}

func TestEligibilityTimerWaitIsWindowPlusJitter(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	next := now.Add(100 * time.Second)
	backend := &fakeBackend{
		speedtestFn: func(context.Context) (*time.Time, error) { return &next, nil },
	}

	timer := NewEligibilityTimer(backend, fixedClock{now: now}, timerSettings(), testLogger())

	eligible, wait, err := timer.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, eligible)
	assert.GreaterOrEqual(t, wait, 101*time.Second)
	assert.Less(t, wait, 180*time.Second)
	require.NotNil(t, timer.Window())
	assert.Equal(t, next, *timer.Window())
}

func TestEligibilityTimerEligibleWhenNoWindow(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		speedtestFn: func(context.Context) (*time.Time, error) { return nil, nil },
	}

	timer := NewEligibilityTimer(backend, nil, timerSettings(), testLogger())

	eligible, wait, err := timer.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, eligible)
	assert.Zero(t, wait)
	assert.Nil(t, timer.Window())
}

func TestEligibilityTimerEligibleWhenWindowPassed(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	backend := &fakeBackend{
		speedtestFn: func(context.Context) (*time.Time, error) { return &past, nil },
	}

	timer := NewEligibilityTimer(backend, fixedClock{now: now}, timerSettings(), testLogger())

	eligible, _, err := timer.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, eligible)
}

func TestEligibilityTimerCheckFailurePropagates(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		speedtestFn: func(context.Context) (*time.Time, error) {
			return nil, domain.ErrInvalidSession
		},
	}

	timer := NewEligibilityTimer(backend, nil, timerSettings(), testLogger())

	_, _, err := timer.Check(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidSession)
}

func TestEligibilityTimerSubmitsBoundedSpeeds(t *testing.T) {
	t.Parallel()

	var gotDownload, gotUpload int
	backend := &fakeBackend{
		submitSpeedtestFn: func(_ context.Context, download, upload int) (int64, error) {
			gotDownload, gotUpload = download, upload
			return 77, nil
		},
	}

	timer := NewEligibilityTimer(backend, nil, timerSettings(), testLogger())

	reward, err := timer.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(77), reward)
	assert.GreaterOrEqual(t, gotDownload, 50)
	assert.LessOrEqual(t, gotDownload, 250)
	assert.GreaterOrEqual(t, gotUpload, 10)
	assert.LessOrEqual(t, gotUpload, 50)
}
