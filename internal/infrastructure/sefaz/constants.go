// Package sefaz implementa la emisión de NF-e contra la SEFAZ: XML 4.00, firma
// XMLDSig envelopada, envío SOAP 1.2 a NFeAutorizacao4 y un gateway simulado.
package sefaz

// Namespaces y algoritmos XMLDSig (Manual de Orientação, anexo de assinatura).
const (
	NamespaceDS        = "http://www.w3.org/2000/09/xmldsig#"
	AlgC14N            = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	AlgRSASHA1         = "http://www.w3.org/2000/09/xmldsig#rsa-sha1"
	AlgSHA1            = "http://www.w3.org/2000/09/xmldsig#sha1"
	TransformEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
)

// SOAP 1.2 del servicio NFeAutorizacao4.
const (
	soapNS          = "http://www.w3.org/2003/05/soap-envelope"
	wsdlAutorizacao = "http://www.portalfiscal.inf.br/nfe/wsdl/NFeAutorizacao4"
	soapAction      = wsdlAutorizacao + "/nfeAutorizacaoLote"
)

// Límites de tamaño de los campos de texto del leiaute.
const (
	maxName       = 60
	maxStreet     = 60
	maxProduct    = 120
	maxAdditional = 5000
)

// verProc identifica la aplicación emisora en ide/verProc.
const verProc = "vendas-api 1.0"

// homologationRecipient xNome obligatorio del destinatario en homologação.
const homologationRecipient = "NF-E EMITIDA EM AMBIENTE DE HOMOLOGACAO - SEM VALOR FISCAL"
