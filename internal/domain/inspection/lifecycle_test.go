package inspection_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/metrologia-api/internal/domain"
	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/domain/inspection"
)

var fixedNow = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

func plannedControl() *entity.Control {
	return &entity.Control{
		ID:          "c-1",
		Status:      entity.ControlStatusPlanned,
		PlannedDate: time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC),
		Priority:    entity.PriorityNormal,
	}
}

func TestStart_DesdePlanned(t *testing.T) {
	c := plannedControl()
	require.NoError(t, inspection.EnsureCanStart(c))

	inspection.Start(c, fixedNow)

	assert.Equal(t, entity.ControlStatusInProgress, c.Status)
	require.NotNil(t, c.RealizedDate)
	assert.Equal(t, "2026-03-14", c.RealizedDate.Format(domain.DateLayout))
	require.NotNil(t, c.StartTime)
	assert.Equal(t, "09:30", *c.StartTime)
	assert.Equal(t, entity.ProgressionStarted, c.Progression)
	assert.Nil(t, c.Result, "iniciar no fija resultado")
}

func TestEnsureCanStart_RechazaOtrosEstados(t *testing.T) {
	for _, status := range []string{
		entity.ControlStatusInProgress, entity.ControlStatusCompleted,
		entity.ControlStatusDeferred, entity.ControlStatusCancelled,
	} {
		c := plannedControl()
		c.Status = status
		err := inspection.EnsureCanStart(c)
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition), status)
	}
}

func TestComplete_FijaResultadoYConservaFechaRealizada(t *testing.T) {
	c := plannedControl()
	inspection.Start(c, fixedNow)
	realized := *c.RealizedDate

	later := fixedNow.Add(26 * time.Hour)
	require.NoError(t, inspection.EnsureCanComplete(c))
	inspection.Complete(c, entity.ControlResultNonCompliant, "precinto roto", later)

	assert.Equal(t, entity.ControlStatusCompleted, c.Status)
	require.NotNil(t, c.Result)
	assert.Equal(t, entity.ControlResultNonCompliant, *c.Result)
	assert.Equal(t, "11:30", *c.EndTime)
	assert.Equal(t, entity.ProgressionCompleted, c.Progression)
	assert.Equal(t, "precinto roto", c.Observations)
	assert.True(t, realized.Equal(*c.RealizedDate), "la fecha realizada es la del inicio")
}

func TestComplete_SinFechaRealizadaUsaHoy(t *testing.T) {
	c := plannedControl()
	c.Status = entity.ControlStatusInProgress

	inspection.Complete(c, entity.ControlResultCompliant, "", fixedNow)

	require.NotNil(t, c.RealizedDate)
	assert.Equal(t, "2026-03-14", c.RealizedDate.Format(domain.DateLayout))
}

func TestEnsureCanComplete_SoloDesdeInProgress(t *testing.T) {
	c := plannedControl()
	assert.ErrorIs(t, inspection.EnsureCanComplete(c), domain.ErrInvalidTransition)
}

func TestValidateTerminalResult(t *testing.T) {
	assert.NoError(t, inspection.ValidateTerminalResult(entity.ControlResultCompliant))
	assert.NoError(t, inspection.ValidateTerminalResult(entity.ControlResultNonCompliant))
	assert.ErrorIs(t, inspection.ValidateTerminalResult(""), domain.ErrValidation)
	assert.ErrorIs(t, inspection.ValidateTerminalResult(entity.ControlResultPending), domain.ErrValidation)
	assert.ErrorIs(t, inspection.ValidateTerminalResult("ok"), domain.ErrValidation)
}

func TestEnsureCanDelete(t *testing.T) {
	allowed := []string{entity.ControlStatusPlanned, entity.ControlStatusDeferred, entity.ControlStatusCancelled}
	for _, s := range allowed {
		c := plannedControl()
		c.Status = s
		assert.NoError(t, inspection.EnsureCanDelete(c), s)
	}
	blocked := []string{entity.ControlStatusInProgress, entity.ControlStatusCompleted}
	for _, s := range blocked {
		c := plannedControl()
		c.Status = s
		assert.ErrorIs(t, inspection.EnsureCanDelete(c), domain.ErrInvalidState, s)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// result != nil ⇔ status == completed
// ──────────────────────────────────────────────────────────────────────────────

func TestNormalizeResult(t *testing.T) {
	compliant := entity.ControlResultCompliant
	pending := entity.ControlResultPending

	c := plannedControl()
	c.Result = &compliant
	require.NoError(t, inspection.NormalizeResult(c))
	assert.Nil(t, c.Result, "un control no completado pierde el resultado")

	c = plannedControl()
	c.Status = entity.ControlStatusCompleted
	assert.ErrorIs(t, inspection.NormalizeResult(c), domain.ErrValidation, "completed sin resultado")

	c.Result = &pending
	assert.ErrorIs(t, inspection.NormalizeResult(c), domain.ErrValidation, "completed con resultado no final")

	c.Result = &compliant
	assert.NoError(t, inspection.NormalizeResult(c))
	assert.Equal(t, compliant, *c.Result)
}

func TestComplianceFor(t *testing.T) {
	assert.Equal(t, entity.ComplianceCompliant, inspection.ComplianceFor(entity.ControlResultCompliant))
	assert.Equal(t, entity.ComplianceNonCompliant, inspection.ComplianceFor(entity.ControlResultNonCompliant))
	assert.Equal(t, entity.CompliancePending, inspection.ComplianceFor("otro"))
}

func TestMonthRange(t *testing.T) {
	start, end := domain.MonthRange(time.Date(2024, time.February, 10, 15, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-02-01", start.Format(domain.DateLayout))
	assert.Equal(t, "2024-02-29", end.Format(domain.DateLayout))
}
