// Package payment contiene el proveedor de pagos simulado (demostración y pruebas).
package payment

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/metrologia-api/internal/application/ports"
	"github.com/jhoicas/metrologia-api/internal/domain/entity"
)

var _ ports.PaymentGateway = (*SimulatedGateway)(nil)

// SuccessRates probabilidad de éxito por proveedor.
var SuccessRates = map[string]float64{
	entity.PaymentMethodCard:         0.95,
	entity.PaymentMethodMobileMoneyA: 0.90,
	entity.PaymentMethodMobileMoneyB: 0.85,
	entity.PaymentMethodBankTransfer: 0.98,
	entity.PaymentMethodCash:         1.0,
}

var prefixes = map[string]string{
	entity.PaymentMethodCard:         "CARD",
	entity.PaymentMethodMobileMoneyA: "MMA",
	entity.PaymentMethodMobileMoneyB: "MMB",
	entity.PaymentMethodBankTransfer: "BANK",
	entity.PaymentMethodCash:         "CASH",
}

// SimulatedGateway decide el resultado con una probabilidad fija por proveedor tras
// un retardo artificial. No usa aleatoriedad criptográfica.
type SimulatedGateway struct {
	delay time.Duration
	rates map[string]float64

	mu  sync.Mutex
	rnd *rand.Rand
}

// Option configura el gateway.
type Option func(*SimulatedGateway)

// WithRates reemplaza las probabilidades por proveedor.
func WithRates(rates map[string]float64) Option {
	return func(g *SimulatedGateway) { g.rates = rates }
}

// WithSeed fija la semilla para obtener resultados reproducibles.
func WithSeed(seed uint64) Option {
	return func(g *SimulatedGateway) { g.rnd = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// NewSimulatedGateway construye el gateway con el retardo indicado.
func NewSimulatedGateway(delay time.Duration, opts ...Option) *SimulatedGateway {
	g := &SimulatedGateway{
		delay: delay,
		rates: SuccessRates,
		rnd:   rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Attempt simula un cobro. Un proveedor desconocido es un rechazo, no un error;
// la cancelación del contexto durante el retardo sí es un error.
func (g *SimulatedGateway) Attempt(ctx context.Context, provider string, amount decimal.Decimal, payerReference string) (ports.PaymentResult, error) {
	if g.delay > 0 {
		timer := time.NewTimer(g.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ports.PaymentResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	rate, ok := g.rates[provider]
	if !ok {
		return ports.PaymentResult{Message: fmt.Sprintf("proveedor %q no soportado", provider)}, nil
	}
	if !amount.IsPositive() {
		return ports.PaymentResult{Message: "importe inválido"}, nil
	}

	g.mu.Lock()
	draw := g.rnd.Float64()
	g.mu.Unlock()

	if draw >= rate {
		msg := "pago rechazado por el proveedor"
		if payerReference != "" {
			msg = fmt.Sprintf("pago rechazado para %s", payerReference)
		}
		return ports.PaymentResult{Message: msg}, nil
	}
	return ports.PaymentResult{
		Success:       true,
		TransactionID: transactionID(provider),
		Message:       fmt.Sprintf("pago de %s aceptado", amount.StringFixed(2)),
	}, nil
}

func transactionID(provider string) string {
	prefix, ok := prefixes[provider]
	if !ok {
		prefix = "TRX"
	}
	id := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return prefix + "-" + id[:12]
}
