package sales

import "github.com/jhoicas/Vendas-api/internal/domain/entity"

// RequiresCreditAnalysis indica si la forma de pago exige una decisión de crédito
// explícita antes de aprobar: tarjeta de crédito y pagos diferidos (boleto,
// crediário, cheque pre-datado). Se evalúa en cada aprobación, nunca se cachea.
func RequiresCreditAnalysis(pm *entity.PaymentMethod) bool {
	if pm == nil {
		return false
	}
	switch pm.Type {
	case entity.PaymentCreditCard, entity.PaymentBoleto, entity.PaymentStoreCredit, entity.PaymentPostdatedCheck:
		return true
	}
	return false
}
