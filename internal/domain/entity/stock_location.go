package entity

import "time"

// StockLocation ubicación de inventario (depósito, tienda) de la cual se
// debita la cantidad de una línea.
type StockLocation struct {
	ID        string
	Name      string
	Address   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
