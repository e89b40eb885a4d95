package sefaz_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Vendas-api/internal/application/fiscal"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	fiscalrules "github.com/jhoicas/Vendas-api/internal/domain/fiscal"
)

var issuedAt = time.Date(2026, 10, 19, 10, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// documentData pedido de dos líneas (300 + 100), descuento 40, flete 10 → 370.
func documentData(t *testing.T) *fiscal.DocumentData {
	t.Helper()
	key, err := fiscalrules.NewAccessKeyCalculatorService().Calculate(&fiscalrules.AccessKeyParams{
		StateCode: "35", IssuedAt: issuedAt, CNPJ: "11222333000181", Model: "55",
		Series: 1, Number: 42, EmissionType: 1, NumericCode: "12345678",
	})
	require.NoError(t, err)

	return &fiscal.DocumentData{
		Document: &entity.FiscalDocument{
			ID: "doc-1", SaleID: "o1", Status: entity.FiscalStatusProcessing,
			Model: "55", Series: 1, Number: 42, Environment: 2,
			OperationNature: "Venda de mercadoria", FinalConsumer: true, BuyerPresence: 1,
			FreightModality: 0, TotalAmount: dec("370"), AccessKey: key,
		},
		Issuer: &entity.Company{
			ID: "co1", LegalName: "Comércio São João Ltda", TradeName: "São João",
			CNPJ: "11.222.333/0001-81", StateRegistration: "123.456.789.110", TaxRegime: entity.TaxRegimeSimples,
			Address: entity.Address{Street: "Av. Paulista", Number: "1000", District: "Bela Vista", CityCode: "3550308", City: "São Paulo", State: "SP", ZipCode: "01310-100"},
			Phone: "(11) 3333-4444",
		},
		Customer: &entity.Customer{
			ID: "c1", Name: "José da Silva", TaxID: "52998224725",
			Address: entity.Address{Street: "Rua das Flores", Number: "12", District: "Centro", CityCode: "3550308", City: "São Paulo", State: "SP", ZipCode: "01001-000"},
		},
		Order: &entity.Order{
			ID: "o1", Status: entity.OrderStatusConfirmed, CustomerID: "c1", PaymentMethodID: "pix", Installments: 1,
			Lines: []entity.OrderLine{
				{ID: "l1", ProductID: "p1", Quantity: dec("3"), UnitPrice: dec("100"), Subtotal: dec("300"), Total: dec("300")},
				{ID: "l2", ProductID: "p2", Quantity: dec("1"), UnitPrice: dec("100"), Subtotal: dec("100"), Total: dec("100")},
			},
			Subtotal: dec("400"), DiscountAmount: dec("40"), ShippingCost: dec("10"), TotalAmount: dec("370"),
			Notes: "Entregar após às 14h", DeliveryAddress: entity.DeliveryAddress{UseCustomerAddress: true},
		},
		Products: map[string]*entity.Product{
			"p1": {ID: "p1", SKU: "SKU-1", Name: "Cerveja Artesanal", NCM: "2203.00.00", CFOP: "5102", UnitMeasure: "UN"},
			"p2": {ID: "p2", SKU: "SKU-2", Name: "Copo Térmico", NCM: "39241000", GTIN: "7891234567895"},
		},
		PaymentMethod: &entity.PaymentMethod{ID: "pix", Name: "PIX", Type: entity.PaymentPix, IsActive: true},
		IssuedAt:      issuedAt,
		NumericCode:   "12345678",
	}
}

// testCertificate certificado autofirmado RSA para las pruebas de firma.
func testCertificate(t *testing.T) tls.Certificate {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "EMPRESA TESTE LTDA:11222333000181"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
}
