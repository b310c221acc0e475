package payment_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/infrastructure/payment"
)

func TestAttempt_EfectivoSiempreAceptado(t *testing.T) {
	g := payment.NewSimulatedGateway(0, payment.WithSeed(7))
	for i := 0; i < 20; i++ {
		res, err := g.Attempt(context.Background(), entity.PaymentMethodCash, decimal.NewFromInt(100), "")
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.True(t, strings.HasPrefix(res.TransactionID, "CASH-"), res.TransactionID)
	}
}

func TestAttempt_ProbabilidadCeroSiempreRechaza(t *testing.T) {
	g := payment.NewSimulatedGateway(0, payment.WithRates(map[string]float64{entity.PaymentMethodCard: 0}))
	res, err := g.Attempt(context.Background(), entity.PaymentMethodCard, decimal.NewFromInt(100), "4111")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Empty(t, res.TransactionID)
	assert.Contains(t, res.Message, "4111")
}

func TestAttempt_ProveedorDesconocidoEsRechazo(t *testing.T) {
	g := payment.NewSimulatedGateway(0)
	res, err := g.Attempt(context.Background(), "cheque", decimal.NewFromInt(100), "")
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestAttempt_RespetaCancelacion(t *testing.T) {
	g := payment.NewSimulatedGateway(time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := g.Attempt(ctx, entity.PaymentMethodCash, decimal.NewFromInt(100), "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAttempt_SemillaReproducible(t *testing.T) {
	run := func() []bool {
		g := payment.NewSimulatedGateway(0, payment.WithSeed(42))
		out := make([]bool, 0, 50)
		for i := 0; i < 50; i++ {
			res, err := g.Attempt(context.Background(), entity.PaymentMethodMobileMoneyB, decimal.NewFromInt(10), "")
			require.NoError(t, err)
			out = append(out, res.Success)
		}
		return out
	}
	assert.Equal(t, run(), run())
}
