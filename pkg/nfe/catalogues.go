// Package nfe contiene catálogos y reglas del leiaute da NF-e 4.00
// (Manual de Orientação do Contribuinte) usados al generar y validar el XML.
package nfe

import "time"

// Versión del leiaute y namespace.
const (
	LayoutVersion = "4.00"
	Namespace     = "http://www.portalfiscal.inf.br/nfe"
)

// =============================================================================
// tpAmb - Ambiente de emisión
// =============================================================================

const (
	EnvironmentProduction   = 1 // produção
	EnvironmentHomologation = 2 // homologação
)

// =============================================================================
// tpEmis - Forma de emisión
// =============================================================================

const (
	EmissionNormal = 1
)

// =============================================================================
// modFrete - Modalidad del flete
// =============================================================================

const (
	FreightBySender      = 0 // CIF, por cuenta del remitente
	FreightByRecipient   = 1 // FOB, por cuenta del destinatario
	FreightByThirdParty  = 2
	FreightOwnBySender   = 3
	FreightOwnByReceiver = 4
	FreightNone          = 9 // sin transporte
)

// ValidFreightModalities valores aceptados en modFrete.
var ValidFreightModalities = map[int]bool{
	FreightBySender: true, FreightByRecipient: true, FreightByThirdParty: true,
	FreightOwnBySender: true, FreightOwnByReceiver: true, FreightNone: true,
}

// =============================================================================
// indPres - Presencia del comprador
// =============================================================================

const (
	PresenceNotApplicable = 0
	PresenceInPerson      = 1
	PresenceInternet      = 2
	PresenceTelephone     = 3
	PresenceDelivery      = 4 // NFC-e entrega a domicilio
	PresenceOther         = 9
)

// ValidBuyerPresence valores aceptados en indPres.
var ValidBuyerPresence = map[int]bool{
	PresenceNotApplicable: true, PresenceInPerson: true, PresenceInternet: true,
	PresenceTelephone: true, PresenceDelivery: true, PresenceOther: true,
}

// =============================================================================
// tPag - Medios de pago
// =============================================================================

const (
	PaymentCash         = "01"
	PaymentCheck        = "02"
	PaymentCreditCard   = "03"
	PaymentDebitCard    = "04"
	PaymentStoreCredit  = "05"
	PaymentBoleto       = "15"
	PaymentBankTransfer = "16"
	PaymentPix          = "17"
	PaymentOther        = "99"
)

// =============================================================================
// cStat - Códigos de respuesta SEFAZ relevantes
// =============================================================================

const (
	StatusAuthorized          = "100" // Autorizado o uso da NF-e
	StatusAuthorizedLate      = "150" // Autorizado fora de prazo
	StatusBatchReceived       = "103" // Lote recebido com sucesso (modo assíncrono)
	StatusBatchProcessed      = "104" // Lote processado
	StatusServiceStopped      = "108" // Serviço paralisado momentaneamente
	StatusServiceStoppedNoETA = "109" // Serviço paralisado sem previsão
)

// IsAuthorizedStatus indica si el cStat del protocolo significa autorización.
func IsAuthorizedStatus(cStat string) bool {
	return cStat == StatusAuthorized || cStat == StatusAuthorizedLate
}

// IsTransientStatus indica indisponibilidad de la SEFAZ: no es rechazo de negocio.
func IsTransientStatus(cStat string) bool {
	return cStat == StatusServiceStopped || cStat == StatusServiceStoppedNoETA
}

// =============================================================================
// cUF - Código IBGE de las unidades federativas
// =============================================================================

// StateCodes mapea la sigla de la UF al código IBGE de dos dígitos.
var StateCodes = map[string]string{
	"RO": "11", "AC": "12", "AM": "13", "RR": "14", "PA": "15", "AP": "16", "TO": "17",
	"MA": "21", "PI": "22", "CE": "23", "RN": "24", "PB": "25", "PE": "26", "AL": "27",
	"SE": "28", "BA": "29", "MG": "31", "ES": "32", "RJ": "33", "SP": "35", "PR": "41",
	"SC": "42", "RS": "43", "MS": "50", "MT": "51", "GO": "52", "DF": "53",
}

// BrasiliaTime huso de referencia para dhEmi y el AAMM de la chave.
var BrasiliaTime = time.FixedZone("BRT", -3*60*60)

// DefaultCFOP venta de mercadería adquirida de terceros dentro del estado.
const DefaultCFOP = "5102"

// NoGTIN valor de cEAN cuando el producto no tiene código de barras.
const NoGTIN = "SEM GTIN"
