package startup

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silentLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestStartup_OrdersDependencies(t *testing.T) {
	var started, stopped []string
	dep := func(name string, requires ...string) Func {
		return Func{
			Name:     name,
			Requires: requires,
			OnStart:  func(context.Context) error { started = append(started, name); return nil },
			OnStop:   func(context.Context) error { stopped = append(stopped, name); return nil },
		}
	}

	s := NewStartup(silentLogger(), 1)
	s.AddDependency(dep("consumer", "database"))
	s.AddDependency(dep("database"))
	s.AddDependency(dep("redis"))

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"database", "consumer", "redis"}, started)
	assert.Equal(t, StatusStarted, s.Status("consumer"))

	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, []string{"redis", "consumer", "database"}, stopped)
}

func TestStartup_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	s := NewStartup(silentLogger(), 3)
	s.unit = 0
	s.AddDependency(Func{Name: "flaky", OnStart: func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 3, calls)
}

func TestStartup_GivesUp(t *testing.T) {
	s := NewStartup(silentLogger(), 2)
	s.unit = 0
	s.AddDependency(Func{Name: "down", OnStart: func(context.Context) error { return errors.New("refused") }})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "startup failed after 2 attempts")
	assert.Equal(t, StatusFailed, s.Status("down"))
}

func TestStartup_UnknownDependency(t *testing.T) {
	s := NewStartup(silentLogger(), 1)
	s.AddDependency(Func{Name: "api", Requires: []string{"missing"}})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown startup dependency 'missing'")
}
