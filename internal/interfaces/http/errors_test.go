package http_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Vendas-api/internal/domain"
	apphttp "github.com/jhoicas/Vendas-api/internal/interfaces/http"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.Validation("x", "y"), http.StatusBadRequest},
		{domain.NotFound("pedido", "1"), http.StatusNotFound},
		{domain.ErrConcurrentModification, http.StatusConflict},
		{fmt.Errorf("envuelto: %w", domain.ErrCreditAnalysisRequired), http.StatusPreconditionRequired},
		{domain.ErrInsufficientStock, http.StatusConflict},
		{domain.ErrLedger, http.StatusUnprocessableEntity},
		{domain.FiscalTransient("sefaz timeout", errors.New("timeout")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, apphttp.StatusOf(tc.err), tc.err.Error())
	}
}
