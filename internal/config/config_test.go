package config

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	type want struct {
		runAddress     string
		workerCount    int
		sessionTimeout time.Duration
		retainExpired  bool
		randomSeed     int64
	}

	tests := []struct {
		name  string
		env   map[string]string
		flags []string
		want  want
	}{
		{
			name:  "defaults",
			env:   map[string]string{},
			flags: []string{},
			want: want{
				runAddress:     "localhost:8080",
				workerCount:    8,
				sessionTimeout: time.Minute,
				retainExpired:  true,
				randomSeed:     1,
			},
		},
		{
			name: "env only",
			env: map[string]string{
				"RUN_ADDRESS":     "localhost:9999",
				"WORKER_COUNT":    "4",
				"SESSION_TIMEOUT": "30s",
				"RANDOM_SEED":     "42",
			},
			flags: []string{},
			want: want{
				runAddress:     "localhost:9999",
				workerCount:    4,
				sessionTimeout: 30 * time.Second,
				retainExpired:  true,
				randomSeed:     42,
			},
		},
		{
			name: "flags only",
			env:  map[string]string{},
			flags: []string{
				"-a", "localhost:7777",
				"-w", "2",
				"-t", "2m",
				"-k=false",
				"-s", "7",
			},
			want: want{
				runAddress:     "localhost:7777",
				workerCount:    2,
				sessionTimeout: 2 * time.Minute,
				retainExpired:  false,
				randomSeed:     7,
			},
		},
		{
			name: "env overrides flags",
			env: map[string]string{
				"RUN_ADDRESS":  "env:9000",
				"WORKER_COUNT": "16",
			},
			flags: []string{
				"-a", "flag:8000",
				"-w", "2",
			},
			want: want{
				runAddress:     "env:9000",
				workerCount:    16,
				sessionTimeout: time.Minute,
				retainExpired:  true,
				randomSeed:     1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			cfg, err := parse(fs, tt.flags)
			require.NoError(t, err)

			assert.Equal(t, tt.want.runAddress, cfg.RunAddress)
			assert.Equal(t, tt.want.workerCount, cfg.WorkerCount)
			assert.Equal(t, tt.want.sessionTimeout, cfg.SessionTimeout)
			assert.Equal(t, tt.want.retainExpired, cfg.RetainExpired)
			assert.Equal(t, tt.want.randomSeed, cfg.RandomSeed)
		})
	}
}

func TestParseConfigInvalidWorkerCount(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := parse(fs, []string{"-w", "-3"})
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.WorkerCount)
}
