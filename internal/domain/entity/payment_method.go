package entity

// PaymentMethodType clasifica la forma de pago para el análisis de crédito y para tPag.
type PaymentMethodType string

const (
	PaymentCash           PaymentMethodType = "CASH"
	PaymentPix            PaymentMethodType = "PIX"
	PaymentDebitCard      PaymentMethodType = "DEBIT_CARD"
	PaymentBankTransfer   PaymentMethodType = "BANK_TRANSFER"
	PaymentCreditCard     PaymentMethodType = "CREDIT_CARD"
	PaymentBoleto         PaymentMethodType = "BOLETO"
	PaymentStoreCredit    PaymentMethodType = "STORE_CREDIT" // crediário
	PaymentPostdatedCheck PaymentMethodType = "POSTDATED_CHECK"
)

// PaymentMethod forma de pago. Solo lectura para este servicio.
type PaymentMethod struct {
	ID              string
	Name            string
	Type            PaymentMethodType
	IsActive        bool
	MaxInstallments int
	DaysToFirstDue  int
	IntervalDays    int
}
