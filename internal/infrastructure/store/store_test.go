package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/infrastructure/store"
	"github.com/jhoicas/metrologia-api/pkg/config"
	"github.com/jhoicas/metrologia-api/pkg/logger"
)

func TestOpen_Memoria(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: config.StoreDriverMemory}}
	repos, err := store.Open(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer repos.Close()

	assert.Nil(t, repos.Health)
	require.NoError(t, repos.Companies.Create(context.Background(), &entity.Company{ID: "c1", Name: "X", RegistrationNumber: "RC-1"}))
	got, err := repos.Companies.GetByID(context.Background(), "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "X", got.Name)
}

func TestOpen_DriverDesconocido(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: "sqlite"}}
	_, err := store.Open(context.Background(), cfg, logger.Nop())
	assert.Error(t, err)
}
