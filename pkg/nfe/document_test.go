package nfe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Vendas-api/pkg/nfe"
)

func TestValidateCPF(t *testing.T) {
	assert.NoError(t, nfe.ValidateCPF("529.982.247-25"))
	assert.NoError(t, nfe.ValidateCPF("52998224725"))
	assert.Error(t, nfe.ValidateCPF("529.982.247-26"), "dígito verificador alterado")
	assert.Error(t, nfe.ValidateCPF("111.111.111-11"), "secuencia repetida")
	assert.Error(t, nfe.ValidateCPF("1234"))
}

func TestValidateCNPJ(t *testing.T) {
	assert.NoError(t, nfe.ValidateCNPJ("11.222.333/0001-81"))
	assert.Error(t, nfe.ValidateCNPJ("11.222.333/0001-82"))
	assert.Error(t, nfe.ValidateCNPJ("00000000000000"))
}

func TestValidateTaxID_EligePorLongitud(t *testing.T) {
	assert.NoError(t, nfe.ValidateTaxID("11222333000181"))
	assert.NoError(t, nfe.ValidateTaxID("52998224725"))
}

// Vector del Manual de Orientação: 5206043300991100250655012000000780026730161 → DV 5.
func TestMod11_ChaveDoManual(t *testing.T) {
	assert.Equal(t, 5, nfe.Mod11("5206043300991100250655012000000780026730161"))
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, nfe.IsAuthorizedStatus("100"))
	assert.True(t, nfe.IsAuthorizedStatus("150"))
	assert.False(t, nfe.IsAuthorizedStatus("204"))
	assert.True(t, nfe.IsTransientStatus("108"))
	assert.False(t, nfe.IsTransientStatus("539"))
}
