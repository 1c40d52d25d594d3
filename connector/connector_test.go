package connector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEtcdConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *EtcdConfig
		wantErr     bool
		errContains string
	}{
		{
			name: "valid config",
			cfg: &EtcdConfig{
				Endpoints: []string{"localhost:2379"},
			},
			wantErr: false,
		},
		{
			name: "empty endpoints should fail",
			cfg: &EtcdConfig{
				Endpoints: []string{},
			},
			wantErr:     true,
			errContains: "端点不能为空",
		},
		{
			name: "nil endpoints should fail",
			cfg: &EtcdConfig{
				Endpoints: nil,
			},
			wantErr:     true,
			errContains: "端点不能为空",
		},
		{
			name: "multiple endpoints",
			cfg: &EtcdConfig{
				Endpoints: []string{"localhost:2379", "localhost:2380", "localhost:2381"},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestEtcdConfigDefaults(t *testing.T) {
	cfg := &EtcdConfig{Endpoints: []string{"localhost:2379"}}
	cfg.setDefaults()

	assert.Equal(t, "default", cfg.Name)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryInterval)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 5*time.Second, cfg.DialTimeout)
	assert.Equal(t, 10*time.Second, cfg.KeepAliveTime)
	assert.Equal(t, 3*time.Second, cfg.KeepAliveTimeout)
}

func TestNewEtcdRejectsInvalidConfig(t *testing.T) {
	conn, err := NewEtcd(&EtcdConfig{})
	require.Error(t, err)
	require.Nil(t, conn)
}

func TestEtcdConnectorImplementsInterface(t *testing.T) {
	cfg := &EtcdConfig{Endpoints: []string{"localhost:2379"}}
	conn, err := NewEtcd(cfg)
	require.NoError(t, err)
	defer conn.Close()

	var _ EtcdConnector = conn
	assert.Equal(t, "default", conn.Name())
	assert.False(t, conn.IsHealthy())
}

func TestEtcdConnectorCloseIsIdempotent(t *testing.T) {
	cfg := &EtcdConfig{Endpoints: []string{"localhost:2379"}}
	conn, err := NewEtcd(cfg)
	require.NoError(t, err)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
}

func TestEtcdConnectorHealthCheckBeforeConnect(t *testing.T) {
	cfg := &EtcdConfig{
		Endpoints:   []string{"127.0.0.1:1"}, // nothing listening
		DialTimeout: 50 * time.Millisecond,
	}
	conn, err := NewEtcd(cfg)
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err = conn.HealthCheck(ctx)
	assert.Error(t, err)
	assert.False(t, conn.IsHealthy())
}
