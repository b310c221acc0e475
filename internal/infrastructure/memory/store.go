// Package memory implementa los puertos de persistencia en memoria (STORE_DRIVER=memory).
// Se usa en tests de casos de uso y handlers y en demos sin base de datos.
//
// Las entidades se guardan por valor y se devuelven copias, así que mutar un resultado
// no altera el almacén. Las transacciones se serializan entre sí y se revierten
// restaurando una instantánea; las escrituras fuera de transacción concurrentes con un
// rollback se pierden.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
)

// Store agrupa todas las tablas en memoria.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	companies          map[string]entity.Company
	agents             map[string]entity.Agent
	instruments        map[string]entity.Instrument
	controls           map[string]entity.Control
	controlInstruments map[string]entity.ControlInstrument
	invoices           map[string]entity.Invoice
	sequences          map[int]int
	activity           []entity.ActivityEvent
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		companies:          map[string]entity.Company{},
		agents:             map[string]entity.Agent{},
		instruments:        map[string]entity.Instrument{},
		controls:           map[string]entity.Control{},
		controlInstruments: map[string]entity.ControlInstrument{},
		invoices:           map[string]entity.Invoice{},
		sequences:          map[int]int{},
	}
}

// Companies devuelve el repositorio de empresas.
func (s *Store) Companies() *CompanyRepo { return &CompanyRepo{s: s} }

// Agents devuelve el repositorio de agentes.
func (s *Store) Agents() *AgentRepo { return &AgentRepo{s: s} }

// Instruments devuelve el repositorio de instrumentos.
func (s *Store) Instruments() *InstrumentRepo { return &InstrumentRepo{s: s} }

// Controls devuelve el repositorio de controles.
func (s *Store) Controls() *ControlRepo { return &ControlRepo{s: s} }

// Invoices devuelve el repositorio de facturas.
func (s *Store) Invoices() *InvoiceRepo { return &InvoiceRepo{s: s} }

// Activity devuelve el repositorio del log de actividad.
func (s *Store) Activity() *ActivityRepo { return &ActivityRepo{s: s} }

// ── Transacciones ──

type snapshot struct {
	companies          map[string]entity.Company
	agents             map[string]entity.Agent
	instruments        map[string]entity.Instrument
	controls           map[string]entity.Control
	controlInstruments map[string]entity.ControlInstrument
	invoices           map[string]entity.Invoice
	sequences          map[int]int
	activity           []entity.ActivityEvent
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		companies:          maps.Clone(s.companies),
		agents:             maps.Clone(s.agents),
		instruments:        maps.Clone(s.instruments),
		controls:           maps.Clone(s.controls),
		controlInstruments: maps.Clone(s.controlInstruments),
		invoices:           maps.Clone(s.invoices),
		sequences:          maps.Clone(s.sequences),
		activity:           slices.Clone(s.activity),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies = snap.companies
	s.agents = snap.agents
	s.instruments = snap.instruments
	s.controls = snap.controls
	s.controlInstruments = snap.controlInstruments
	s.invoices = snap.invoices
	s.sequences = snap.sequences
	s.activity = snap.activity
}

func (s *Store) inTx(fn func() error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	snap := s.snapshot()
	if err := fn(); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// TxRunner implementa los runners transaccionales de inspección y facturación sobre el Store.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// RunInspection ejecuta fn con los repositorios de controles y empresas; revierte si fn falla.
func (r *TxRunner) RunInspection(ctx context.Context, fn func(
	controlRepo repository.ControlRepository,
	companyRepo repository.CompanyRepository,
) error) error {
	return r.s.inTx(func() error {
		return fn(r.s.Controls(), r.s.Companies())
	})
}

// RunBilling ejecuta fn con el repositorio de facturas; revierte si fn falla.
func (r *TxRunner) RunBilling(ctx context.Context, fn func(invoiceRepo repository.InvoiceRepository) error) error {
	return r.s.inTx(func() error {
		return fn(r.s.Invoices())
	})
}

// ── Copias ──

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneControl(c entity.Control) *entity.Control {
	c.RealizedDate = clonePtr(c.RealizedDate)
	c.StartTime = clonePtr(c.StartTime)
	c.EndTime = clonePtr(c.EndTime)
	c.Result = clonePtr(c.Result)
	return &c
}

func cloneInvoice(inv entity.Invoice) *entity.Invoice {
	inv.ControlID = clonePtr(inv.ControlID)
	inv.DueDate = clonePtr(inv.DueDate)
	inv.PaymentDate = clonePtr(inv.PaymentDate)
	inv.PaymentMethod = clonePtr(inv.PaymentMethod)
	inv.TransactionReference = clonePtr(inv.TransactionReference)
	return &inv
}

func cloneCompany(c entity.Company) *entity.Company {
	c.LastInspectionDate = clonePtr(c.LastInspectionDate)
	return &c
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// dateKey reduce un instante a YYYYMMDD para comparar fechas sin hora ni zona.
func dateKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
