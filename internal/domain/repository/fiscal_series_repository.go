package repository

import "context"

// FiscalSeriesRepository numeración de NF-e por (empresa, modelo, serie).
type FiscalSeriesRepository interface {
	// NextNumber reserva y devuelve el próximo nNF de forma atómica.
	NextNumber(ctx context.Context, companyID, model string, series int) (int64, error)
}
