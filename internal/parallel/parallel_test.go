package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configs() map[string]Config {
	return map[string]Config{
		"default":    DefaultConfig(),
		"per item":   PerItemConfig(),
		"sequential": {NumWorkers: 1, MinChunkSize: 1},
		"forced":     {Enabled: true, NumWorkers: 4, MinChunkSize: 1},
	}
}

func TestForErr(t *testing.T) {
	for name, cfg := range configs() {
		t.Run(name, func(t *testing.T) {
			seen := make([]int32, 16)
			err := ForErr(len(seen), func(i int) error {
				atomic.AddInt32(&seen[i], 1)
				return nil
			}, cfg)
			require.NoError(t, err)
			for i, v := range seen {
				assert.Equal(t, int32(1), v, "index %d", i)
			}

			err = ForErr(16, func(i int) error {
				if i == 5 || i == 11 {
					return errors.Errorf("item %d", i)
				}
				return nil
			}, cfg)
			require.Error(t, err)
			assert.Equal(t, "item 5", err.Error())
		})
	}
}

func TestForErr_ConcurrentRunsEveryItem(t *testing.T) {
	var calls int64
	err := ForErr(8, func(i int) error {
		atomic.AddInt64(&calls, 1)
		if i == 0 {
			return errors.New("first")
		}
		return nil
	}, Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1})
	require.Error(t, err)
	assert.Equal(t, int64(8), calls)
}

func TestForErr_SequentialStopsAtFirstFailure(t *testing.T) {
	var calls int64
	err := ForErr(8, func(i int) error {
		atomic.AddInt64(&calls, 1)
		if i == 2 {
			return errors.New("third")
		}
		return nil
	}, Config{NumWorkers: 1, MinChunkSize: 1})
	require.Error(t, err)
	assert.Equal(t, int64(3), calls)
}

func TestPerItemConfig(t *testing.T) {
	cfg := PerItemConfig()
	assert.Equal(t, 1, cfg.MinChunkSize)
	assert.Equal(t, DefaultConfig().NumWorkers, cfg.NumWorkers)
	assert.False(t, Config{Enabled: true, NumWorkers: 1, MinChunkSize: 1}.parallel(100))
	assert.False(t, DefaultConfig().parallel(10))
}
