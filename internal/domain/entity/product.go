package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product producto vendible. Solo lectura para este servicio.
// Cost alimenta la calculadora de precios cuando la línea se cotiza por margen.
type Product struct {
	ID          string
	SKU         string
	Name        string
	GTIN        string // cEAN; vacío se informa como "SEM GTIN"
	NCM         string
	CFOP        string // CFOP por defecto
	Origin      int    // orig ICMS
	UnitMeasure string // uCom
	Price       decimal.Decimal
	Cost        decimal.Decimal
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
