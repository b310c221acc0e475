package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Los casos de uso los envuelven con contexto (fmt.Errorf("%w: ...")); comparar con errors.Is.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrValidation        = errors.New("datos inválidos")
	ErrInvalidTransition = errors.New("transición no permitida desde el estado actual")
	ErrInvalidState      = errors.New("operación no permitida en el estado actual")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrPaymentDeclined   = errors.New("pago rechazado por el proveedor")
)
