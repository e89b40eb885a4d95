package domain

import (
	"errors"
	"fmt"
)

// Kind clasifica los errores del dominio para que los llamadores puedan ramificar
// sin comparar mensajes.
type Kind string

const (
	KindValidation             Kind = "VALIDATION"
	KindNotFound               Kind = "NOT_FOUND"
	KindStateConflict          Kind = "STATE_CONFLICT"
	KindCreditAnalysisRequired Kind = "CREDIT_ANALYSIS_REQUIRED"
	KindInsufficientStock      Kind = "INSUFFICIENT_STOCK"
	KindLedger                 Kind = "LEDGER"
	KindFiscalRejection        Kind = "FISCAL_REJECTION"
	KindFiscalTransient        Kind = "FISCAL_TRANSIENT"
	KindInternal               Kind = "INTERNAL"
)

// Error es el error estructurado del núcleo de ventas: tipo, mensaje legible y,
// cuando aplica, el campo que lo originó.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Field)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is compara por Kind, de modo que errors.Is(err, domain.ErrStateConflict) funciona
// con cualquier *Error del mismo tipo.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Errores de dominio (sentinelas por tipo).
var (
	ErrValidation             = &Error{Kind: KindValidation, Message: "datos inválidos"}
	ErrNotFound               = &Error{Kind: KindNotFound, Message: "recurso no encontrado"}
	ErrStateConflict          = &Error{Kind: KindStateConflict, Message: "conflicto con el estado actual"}
	ErrCreditAnalysisRequired = &Error{Kind: KindCreditAnalysisRequired, Message: "la forma de pago exige análisis de crédito"}
	ErrInsufficientStock      = &Error{Kind: KindInsufficientStock, Message: "stock insuficiente"}
	ErrLedger                 = &Error{Kind: KindLedger, Message: "error al registrar cuentas por cobrar"}
	ErrFiscalRejection        = &Error{Kind: KindFiscalRejection, Message: "documento fiscal rechazado por la SEFAZ"}
	ErrFiscalTransient        = &Error{Kind: KindFiscalTransient, Message: "SEFAZ no disponible, reintente"}

	// ErrConcurrentModification lo devuelven los repositorios cuando la versión
	// persistida ya no coincide con la leída.
	ErrConcurrentModification = &Error{Kind: KindStateConflict, Message: "el pedido fue modificado concurrentemente"}
)

// Validation construye un error de validación sobre un campo.
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// StateConflict construye un error de transición no permitida.
func StateConflict(message string) *Error {
	return &Error{Kind: KindStateConflict, Message: message}
}

// NotFound construye un error de recurso inexistente.
func NotFound(what, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %s no encontrado", what, id)}
}

// InsufficientStock indica qué producto y ubicación no alcanzan.
func InsufficientStock(productID, locationID string) *Error {
	return &Error{
		Kind:    KindInsufficientStock,
		Field:   "lines.quantity",
		Message: fmt.Sprintf("stock insuficiente del producto %s en la ubicación %s", productID, locationID),
	}
}

// Ledger envuelve un fallo del servicio de cuentas por cobrar.
func Ledger(message string, err error) *Error {
	return &Error{Kind: KindLedger, Message: message, Err: err}
}

// FiscalTransient envuelve un fallo de transporte o timeout con la SEFAZ.
func FiscalTransient(message string, err error) *Error {
	return &Error{Kind: KindFiscalTransient, Message: message, Err: err}
}

// FiscalRejection indica una operación imposible porque la SEFAZ rechazó el documento.
func FiscalRejection(code, reason string) *Error {
	return &Error{Kind: KindFiscalRejection, Message: fmt.Sprintf("documento rechazado por la SEFAZ (%s): %s", code, reason)}
}

// KindOf devuelve el tipo del primer *Error de la cadena, o KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// FieldOf devuelve el campo asociado al error, si existe.
func FieldOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Field
	}
	return ""
}
