package nfe

import (
	"fmt"
	"unicode"
)

// pesos del segundo bloque de dígitos verificadores del CNPJ (el primero usa los 12 últimos).
var cnpjWeights = [13]int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}

// ValidateCPF valida los dos dígitos verificadores de un CPF (con o sin máscara).
func ValidateCPF(cpf string) error {
	d := OnlyDigits(cpf)
	if len(d) != 11 {
		return fmt.Errorf("nfe: CPF debe tener 11 dígitos, se encontraron %d", len(d))
	}
	if allSame(d) {
		return fmt.Errorf("nfe: CPF inválido")
	}
	for pos := 9; pos <= 10; pos++ {
		sum := 0
		for i := 0; i < pos; i++ {
			sum += int(d[i]-'0') * (pos + 1 - i)
		}
		r := (sum * 10) % 11
		if r == 10 {
			r = 0
		}
		if int(d[pos]-'0') != r {
			return fmt.Errorf("nfe: dígito verificador del CPF inválido")
		}
	}
	return nil
}

// ValidateCNPJ valida los dos dígitos verificadores de un CNPJ (con o sin máscara).
func ValidateCNPJ(cnpj string) error {
	d := OnlyDigits(cnpj)
	if len(d) != 14 {
		return fmt.Errorf("nfe: CNPJ debe tener 14 dígitos, se encontraron %d", len(d))
	}
	if allSame(d) {
		return fmt.Errorf("nfe: CNPJ inválido")
	}
	for pos := 12; pos <= 13; pos++ {
		weights := cnpjWeights[13-pos:]
		sum := 0
		for i := 0; i < pos; i++ {
			sum += int(d[i]-'0') * weights[i]
		}
		r := sum % 11
		expected := 0
		if r >= 2 {
			expected = 11 - r
		}
		if int(d[pos]-'0') != expected {
			return fmt.Errorf("nfe: dígito verificador del CNPJ inválido")
		}
	}
	return nil
}

// ValidateTaxID valida CPF u CNPJ según la longitud.
func ValidateTaxID(taxID string) error {
	if len(OnlyDigits(taxID)) == 14 {
		return ValidateCNPJ(taxID)
	}
	return ValidateCPF(taxID)
}

// Mod11 calcula el dígito verificador módulo 11 con pesos 2..9 de derecha a izquierda,
// tal como se usa en la chave de acesso. Restos 0 y 1 dan dígito 0.
func Mod11(base string) int {
	sum, w := 0, 2
	for i := len(base) - 1; i >= 0; i-- {
		sum += int(base[i]-'0') * w
		w++
		if w > 9 {
			w = 2
		}
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}

// OnlyDigits deja solo dígitos 0-9.
func OnlyDigits(s string) string {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if unicode.IsDigit(r) && r < 128 {
			out = append(out, byte(r))
		}
	}
	return string(out)
}

func allSame(d string) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}
