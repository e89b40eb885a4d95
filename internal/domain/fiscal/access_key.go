// Package fiscal: chave de acesso de la NF-e (44 dígitos) y validaciones del
// documento antes del envío a la SEFAZ.
package fiscal

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jhoicas/Vendas-api/pkg/nfe"
)

// AccessKeyParams datos que componen la chave de acesso, en el orden del leiaute.
type AccessKeyParams struct {
	StateCode    string    // cUF, 2 dígitos IBGE
	IssuedAt     time.Time // AAMM de la emisión
	CNPJ         string    // CNPJ del emisor
	Model        string    // 55 o 65
	Series       int       // 0..999
	Number       int64     // nNF, 1..999999999
	EmissionType int       // tpEmis
	NumericCode  string    // cNF, 8 dígitos
}

// AccessKeyCalculatorService calcula y valida chaves de acesso.
type AccessKeyCalculatorService struct{}

// NewAccessKeyCalculatorService crea el servicio.
func NewAccessKeyCalculatorService() *AccessKeyCalculatorService {
	return &AccessKeyCalculatorService{}
}

// Calculate arma los 43 dígitos y agrega el DV módulo 11:
// cUF(2) AAMM(4) CNPJ(14) mod(2) serie(3) nNF(9) tpEmis(1) cNF(8) cDV(1).
func (s *AccessKeyCalculatorService) Calculate(p *AccessKeyParams) (string, error) {
	if p == nil {
		return "", fmt.Errorf("fiscal: AccessKeyParams es obligatorio")
	}
	if len(p.StateCode) != 2 || nfe.OnlyDigits(p.StateCode) != p.StateCode {
		return "", fmt.Errorf("fiscal: cUF inválido %q", p.StateCode)
	}
	cnpj := nfe.OnlyDigits(p.CNPJ)
	if len(cnpj) != 14 {
		return "", fmt.Errorf("fiscal: CNPJ del emisor debe tener 14 dígitos")
	}
	if p.Model != "55" && p.Model != "65" {
		return "", fmt.Errorf("fiscal: modelo %q no soportado", p.Model)
	}
	if p.Series < 0 || p.Series > 999 {
		return "", fmt.Errorf("fiscal: serie fuera de rango")
	}
	if p.Number < 1 || p.Number > 999_999_999 {
		return "", fmt.Errorf("fiscal: número fuera de rango")
	}
	code := nfe.OnlyDigits(p.NumericCode)
	if len(code) != 8 {
		return "", fmt.Errorf("fiscal: cNF debe tener 8 dígitos")
	}
	emission := p.EmissionType
	if emission == 0 {
		emission = nfe.EmissionNormal
	}

	base := p.StateCode +
		p.IssuedAt.Format("0601") +
		cnpj +
		p.Model +
		fmt.Sprintf("%03d", p.Series) +
		fmt.Sprintf("%09d", p.Number) +
		strconv.Itoa(emission) +
		code

	return base + strconv.Itoa(nfe.Mod11(base)), nil
}

// Validate verifica longitud y dígito verificador de una chave existente.
func (s *AccessKeyCalculatorService) Validate(key string) error {
	if len(key) != 44 || nfe.OnlyDigits(key) != key {
		return fmt.Errorf("fiscal: la chave de acesso debe tener 44 dígitos")
	}
	if strconv.Itoa(nfe.Mod11(key[:43])) != key[43:] {
		return fmt.Errorf("fiscal: dígito verificador de la chave inválido")
	}
	return nil
}
