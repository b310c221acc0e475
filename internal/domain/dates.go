package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout formato de fecha en entradas y salidas (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// DateOf trunca un instante a la fecha (medianoche en su zona horaria).
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// MonthRange devuelve el primer y el último día del mes calendario de t.
func MonthRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, -1)
}

// ParseDate interpreta YYYY-MM-DD en la zona loc. Devuelve ErrValidation si el formato es inválido.
func ParseDate(field, value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s debe tener formato YYYY-MM-DD", ErrValidation, field)
	}
	return t, nil
}

// FormatDate formatea una fecha opcional; nil si no hay valor.
func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}
