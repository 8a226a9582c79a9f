package config_test

import (
	"testing"
	"time"

	"tokocart/internal/config"
	"tokocart/internal/consolidation"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.True(t, cfg.RabbitMQEnabled)
	assert.Equal(t, 10*time.Second, cfg.PersistTimeout)
	assert.Equal(t, consolidation.DefaultConfig(), cfg.AutoMerge)
}

func TestLoad_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("AUTOMERGE_ENABLED", false)
	v.Set("AUTOMERGE_THRESHOLD", 92)
	v.Set("AUTOMERGE_STRATEGY", "byTime")
	v.Set("DATABASE_DRIVER", "sqlite")
	v.Set("PERSIST_TIMEOUT", "250ms")

	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.False(t, cfg.AutoMerge.EnableAutoMerge)
	assert.Equal(t, 92, cfg.AutoMerge.AutoMergeThreshold)
	assert.Equal(t, consolidation.StrategyByTime, cfg.AutoMerge.MergeStrategy)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 250*time.Millisecond, cfg.PersistTimeout)
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]map[string]interface{}{
		"strategy":  {"AUTOMERGE_STRATEGY": "byColor"},
		"threshold": {"AUTOMERGE_THRESHOLD": 120},
		"driver":    {"DATABASE_DRIVER": "mysql"},
		"timeout":   {"PERSIST_TIMEOUT": "0s"},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			v := viper.New()
			for k, val := range values {
				v.Set(k, val)
			}
			_, err := config.Load(v)
			assert.Error(t, err)
		})
	}
}
