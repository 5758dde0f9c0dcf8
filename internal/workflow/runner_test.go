package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-analyzer/backend/internal/logging"
	"auction-analyzer/backend/pkg/models"
)

func fastRunner(attempts int) *Runner {
	return NewRunner(RunnerConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}, logging.NewNop())
}

func TestRunner_SucceedsAfterRetry(t *testing.T) {
	calls := 0
	fn := func(ctx context.Context, s State) (Update, error) {
		calls++
		if calls < 2 {
			return Update{}, errors.New("temporary")
		}
		return Update{Market: &models.MarketData{SampleCount: 1}}, nil
	}

	u, err := fastRunner(3).Run(context.Background(), StageMarket, fn, NewState("a", nil))

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.NotNil(t, u.Market)
	assert.Empty(t, u.Errors)
}

func TestRunner_ExhaustsAttemptsAndAbsorbs(t *testing.T) {
	calls := 0
	fn := func(ctx context.Context, s State) (Update, error) {
		calls++
		return Update{Market: &models.MarketData{}}, errors.New("upstream 503")
	}

	u, err := fastRunner(3).Run(context.Background(), StageMarket, fn, NewState("a", nil))

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Nil(t, u.Market)
	assert.Equal(t, []string{"market_data failed: upstream 503"}, u.Errors)
}

func TestRunner_PermanentErrorIsNotRetried(t *testing.T) {
	calls := 0
	fn := func(ctx context.Context, s State) (Update, error) {
		calls++
		return Update{}, fmt.Errorf("no registry: %w", ErrDataUnavailable)
	}

	u, err := fastRunner(3).Run(context.Background(), StageRights, fn, NewState("a", nil))

	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"rights_analysis failed: no registry: data unavailable"}, u.Errors)
}

func TestRunner_PanicIsAbsorbed(t *testing.T) {
	fn := func(ctx context.Context, s State) (Update, error) {
		panic("boom")
	}

	u, err := fastRunner(2).Run(context.Background(), StageNews, fn, NewState("a", nil))

	assert.Error(t, err)
	assert.Equal(t, []string{"news_analysis failed: panic: boom"}, u.Errors)
}

func TestRunner_CanceledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	fn := func(ctx context.Context, s State) (Update, error) {
		calls++
		cancel()
		return Update{}, errors.New("fail")
	}

	r := NewRunner(RunnerConfig{MaxAttempts: 5, InitialBackoff: time.Second}, logging.NewNop())
	u, err := r.Run(ctx, StageParse, fn, NewState("a", nil))

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Len(t, u.Errors, 1)
}

func TestNewRunner_Defaults(t *testing.T) {
	r := NewRunner(RunnerConfig{}, logging.NewNop())
	assert.Equal(t, DefaultRunnerConfig(), r.cfg)
}

func TestNewRunner_MaxBackoffDefaultsBeforeClamp(t *testing.T) {
	r := NewRunner(RunnerConfig{MaxAttempts: 3, InitialBackoff: 50 * time.Millisecond}, logging.NewNop())
	assert.Equal(t, DefaultRunnerConfig().MaxBackoff, r.cfg.MaxBackoff, "unset max keeps room for doubling")
	b := r.newBackOff(context.Background())
	assert.Equal(t, 50*time.Millisecond, b.NextBackOff())
	assert.Equal(t, 100*time.Millisecond, b.NextBackOff())

	r = NewRunner(RunnerConfig{InitialBackoff: 20 * time.Second}, logging.NewNop())
	assert.Equal(t, 20*time.Second, r.cfg.MaxBackoff, "max never drops below the initial interval")

	r = NewRunner(RunnerConfig{InitialBackoff: time.Second, MaxBackoff: 4 * time.Second}, logging.NewNop())
	assert.Equal(t, 4*time.Second, r.cfg.MaxBackoff)
}
