package entity

import "time"

// Address dirección fiscal en el formato que exige la NF-e.
type Address struct {
	Street     string // xLgr
	Number     string // nro
	Complement string // xCpl
	District   string // xBairro
	CityCode   string // cMun (IBGE, 7 dígitos)
	City       string // xMun
	State      string // UF
	ZipCode    string // CEP
}

// Regímenes tributarios (CRT).
const (
	TaxRegimeSimples       = 1
	TaxRegimeSimplesExcess = 2
	TaxRegimeNormal        = 3
)

// Company empresa emisora de las NF-e.
type Company struct {
	ID                string
	LegalName         string // xNome
	TradeName         string // xFant
	CNPJ              string
	StateRegistration string // IE
	TaxRegime         int    // CRT
	Address           Address
	Phone             string
	Email             string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
