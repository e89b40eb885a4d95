package entity

import "time"

// FiscalSeries controla la numeración de NF-e por modelo y serie.
// NextNumber es el próximo nNF a usar; se incrementa bajo bloqueo de fila.
type FiscalSeries struct {
	CompanyID  string
	Model      string // 55 o 65
	Series     int    // 0..999
	NextNumber int64
	IsActive   bool
	UpdatedAt  time.Time
}
