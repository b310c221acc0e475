package config_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/metrologia-api/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, config.AuditBackendPostgres, cfg.Audit.Backend)
	assert.True(t, cfg.Billing.DefaultTaxRate.Equal(decimal.NewFromInt(18)))
	assert.Equal(t, "XOF", cfg.Billing.Currency)
	assert.Equal(t, time.Hour, cfg.Billing.SweepInterval)
	assert.Equal(t, 2*time.Second, cfg.Payment.SimulatedDelay)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_DesdeEntorno(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("AUDIT_BACKEND", "log")
	t.Setenv("BILLING_DEFAULT_TAX_RATE", "19.25")
	t.Setenv("BILLING_SWEEP_INTERVAL", "90")
	t.Setenv("PAYMENT_SIMULATED_DELAY", "500ms")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, config.AuditBackendLog, cfg.Audit.Backend)
	assert.Equal(t, "19.25", cfg.Billing.DefaultTaxRate.String())
	assert.Equal(t, 90*time.Second, cfg.Billing.SweepInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.Payment.SimulatedDelay)
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestLoad_Invalida(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"driver desconocido", map[string]string{"STORE_DRIVER": "sqlite"}},
		{"backend desconocido", map[string]string{"AUDIT_BACKEND": "kafka"}},
		{"redis sin url", map[string]string{"AUDIT_BACKEND": "redis"}},
		{"tasa negativa", map[string]string{"BILLING_DEFAULT_TAX_RATE": "-1"}},
		{"tasa no numérica", map[string]string{"BILLING_DEFAULT_TAX_RATE": "dieciocho"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "metrologia", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/metrologia?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}
