package sefaz

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Vendas-api/internal/application/fiscal"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/pkg/nfe"
)

// XMLBuilder construye el XML NF-e 4.00 (sin firma). Los impuestos no se
// calculan: Simples Nacional va como CSOSN 102 y régimen normal como CST 41.
type XMLBuilder struct{}

// NewXMLBuilder crea el builder.
func NewXMLBuilder() *XMLBuilder {
	return &XMLBuilder{}
}

var _ fiscal.DocumentBuilder = (*XMLBuilder)(nil)

// Build genera <NFe><infNFe Id="NFe{chave}" versao="4.00">…</infNFe></NFe>.
func (b *XMLBuilder) Build(data *fiscal.DocumentData) ([]byte, error) {
	if data == nil || data.Document == nil || data.Issuer == nil || data.Customer == nil || data.Order == nil {
		return nil, fmt.Errorf("sefaz: faltan documento, emisor, destinatario o pedido")
	}
	doc := data.Document
	if len(doc.AccessKey) != 44 {
		return nil, fmt.Errorf("sefaz: chave de acesso inválida %q", doc.AccessKey)
	}

	x := etree.NewDocument()
	root := x.CreateElement("NFe")
	root.CreateAttr("xmlns", nfe.Namespace)
	inf := root.CreateElement("infNFe")
	inf.CreateAttr("versao", nfe.LayoutVersion)
	inf.CreateAttr("Id", "NFe"+doc.AccessKey)

	interstate := data.Customer.Address.State != "" && data.Customer.Address.State != data.Issuer.Address.State

	b.writeIde(inf, data, interstate)
	b.writeEmit(inf, data.Issuer)
	b.writeDest(inf, data)
	b.writeEntrega(inf, data)
	if err := b.writeDetails(inf, data, interstate); err != nil {
		return nil, err
	}
	b.writeTotal(inf, data.Order)
	inf.CreateElement("transp").CreateElement("modFrete").SetText(strconv.Itoa(doc.FreightModality))
	b.writePag(inf, data)
	if notes := foldText(data.Order.Notes, maxAdditional); notes != "" {
		inf.CreateElement("infAdic").CreateElement("infCpl").SetText(notes)
	}

	out, err := x.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("sefaz: serializar XML: %w", err)
	}
	return out, nil
}

func (b *XMLBuilder) writeIde(inf *etree.Element, data *fiscal.DocumentData, interstate bool) {
	doc := data.Document
	ide := inf.CreateElement("ide")
	add(ide, "cUF", doc.AccessKey[:2])
	add(ide, "cNF", data.NumericCode)
	add(ide, "natOp", foldText(doc.OperationNature, maxName))
	add(ide, "mod", doc.Model)
	add(ide, "serie", strconv.Itoa(doc.Series))
	add(ide, "nNF", strconv.FormatInt(doc.Number, 10))
	add(ide, "dhEmi", data.IssuedAt.In(nfe.BrasiliaTime).Format("2006-01-02T15:04:05-07:00"))
	add(ide, "tpNF", "1")
	if interstate {
		add(ide, "idDest", "2")
	} else {
		add(ide, "idDest", "1")
	}
	add(ide, "cMunFG", data.Issuer.Address.CityCode)
	if doc.Model == entity.FiscalModelNFCe {
		add(ide, "tpImp", "4")
	} else {
		add(ide, "tpImp", "1")
	}
	add(ide, "tpEmis", strconv.Itoa(nfe.EmissionNormal))
	add(ide, "cDV", doc.AccessKey[43:])
	add(ide, "tpAmb", strconv.Itoa(doc.Environment))
	add(ide, "finNFe", "1")
	add(ide, "indFinal", boolFlag(doc.FinalConsumer))
	add(ide, "indPres", strconv.Itoa(doc.BuyerPresence))
	switch doc.BuyerPresence {
	case nfe.PresenceInternet, nfe.PresenceTelephone, nfe.PresenceDelivery, nfe.PresenceOther:
		add(ide, "indIntermed", "0")
	}
	add(ide, "procEmi", "0")
	add(ide, "verProc", verProc)
}

func (b *XMLBuilder) writeEmit(inf *etree.Element, c *entity.Company) {
	emit := inf.CreateElement("emit")
	add(emit, "CNPJ", nfe.OnlyDigits(c.CNPJ))
	add(emit, "xNome", foldText(c.LegalName, maxName))
	addOpt(emit, "xFant", foldText(c.TradeName, maxName))
	writeAddress(emit.CreateElement("enderEmit"), c.Address, c.Phone, true)
	add(emit, "IE", nfe.OnlyDigits(c.StateRegistration))
	crt := c.TaxRegime
	if crt == 0 {
		crt = entity.TaxRegimeSimples
	}
	add(emit, "CRT", strconv.Itoa(crt))
}

func (b *XMLBuilder) writeDest(inf *etree.Element, data *fiscal.DocumentData) {
	cust := data.Customer
	dest := inf.CreateElement("dest")
	if cust.IsCompany() {
		add(dest, "CNPJ", nfe.OnlyDigits(cust.TaxID))
	} else {
		add(dest, "CPF", nfe.OnlyDigits(cust.TaxID))
	}
	name := foldText(cust.Name, maxName)
	if data.Document.Environment == nfe.EnvironmentHomologation {
		name = homologationRecipient
	}
	add(dest, "xNome", name)
	if cust.Address.Street != "" {
		writeAddress(dest.CreateElement("enderDest"), cust.Address, cust.Phone, true)
	}
	ie := nfe.OnlyDigits(cust.StateRegistration)
	if ie != "" && data.Document.Model == entity.FiscalModelNFe {
		add(dest, "indIEDest", "1")
		add(dest, "IE", ie)
	} else {
		add(dest, "indIEDest", "9")
	}
	addOpt(dest, "email", cust.Email)
}

// writeEntrega informa el local de entrega cuando el pedido no usa la dirección del cliente.
func (b *XMLBuilder) writeEntrega(inf *etree.Element, data *fiscal.DocumentData) {
	da := data.Order.DeliveryAddress
	if da.UseCustomerAddress || da.Address.Street == "" {
		return
	}
	ent := inf.CreateElement("entrega")
	if data.Customer.IsCompany() {
		add(ent, "CNPJ", nfe.OnlyDigits(data.Customer.TaxID))
	} else {
		add(ent, "CPF", nfe.OnlyDigits(data.Customer.TaxID))
	}
	writeAddress(ent, da.Address, "", false)
}

func (b *XMLBuilder) writeDetails(inf *etree.Element, data *fiscal.DocumentData, interstate bool) error {
	o := data.Order
	weights := make([]decimal.Decimal, len(o.Lines))
	for i, l := range o.Lines {
		weights[i] = l.Subtotal
	}
	discounts := Apportion(o.DiscountAmount, weights)
	freights := Apportion(o.ShippingCost, weights)
	others := Apportion(o.OtherCharges, weights)

	for i, l := range o.Lines {
		p, ok := data.Products[l.ProductID]
		if !ok || p == nil {
			return fmt.Errorf("sefaz: producto %s no encontrado", l.ProductID)
		}
		det := inf.CreateElement("det")
		det.CreateAttr("nItem", strconv.Itoa(i+1))

		gtin := p.GTIN
		if gtin == "" {
			gtin = nfe.NoGTIN
		}
		unit := p.UnitMeasure
		if unit == "" {
			unit = "UN"
		}
		prod := det.CreateElement("prod")
		add(prod, "cProd", p.SKU)
		add(prod, "cEAN", gtin)
		add(prod, "xProd", foldText(p.Name, maxProduct))
		add(prod, "NCM", nfe.OnlyDigits(p.NCM))
		add(prod, "CFOP", lineCFOP(data.Document.CFOP, p.CFOP, interstate))
		add(prod, "uCom", unit)
		add(prod, "qCom", l.Quantity.StringFixed(4))
		add(prod, "vUnCom", l.UnitPrice.StringFixed(10))
		add(prod, "vProd", l.Subtotal.StringFixed(2))
		add(prod, "cEANTrib", gtin)
		add(prod, "uTrib", unit)
		add(prod, "qTrib", l.Quantity.StringFixed(4))
		add(prod, "vUnTrib", l.UnitPrice.StringFixed(10))
		addMoney(prod, "vFrete", freights[i])
		addMoney(prod, "vDesc", discounts[i])
		addMoney(prod, "vOutro", others[i])
		add(prod, "indTot", "1")

		b.writeTaxes(det.CreateElement("imposto"), data.Issuer, p)
	}
	return nil
}

func (b *XMLBuilder) writeTaxes(imposto *etree.Element, issuer *entity.Company, p *entity.Product) {
	icms := imposto.CreateElement("ICMS")
	if issuer.TaxRegime == entity.TaxRegimeNormal {
		g := icms.CreateElement("ICMS40")
		add(g, "orig", strconv.Itoa(p.Origin))
		add(g, "CST", "41")
	} else {
		g := icms.CreateElement("ICMSSN102")
		add(g, "orig", strconv.Itoa(p.Origin))
		add(g, "CSOSN", "102")
	}
	add(imposto.CreateElement("PIS").CreateElement("PISNT"), "CST", "07")
	add(imposto.CreateElement("COFINS").CreateElement("COFINSNT"), "CST", "07")
}

func (b *XMLBuilder) writeTotal(inf *etree.Element, o *entity.Order) {
	t := inf.CreateElement("total").CreateElement("ICMSTot")
	zero := decimal.Zero.StringFixed(2)
	for _, tag := range []string{"vBC", "vICMS", "vICMSDeson", "vFCP", "vBCST", "vST", "vFCPST", "vFCPSTRet"} {
		add(t, tag, zero)
	}
	add(t, "vProd", o.Subtotal.StringFixed(2))
	add(t, "vFrete", o.ShippingCost.StringFixed(2))
	add(t, "vSeg", zero)
	add(t, "vDesc", o.DiscountAmount.StringFixed(2))
	for _, tag := range []string{"vII", "vIPI", "vIPIDevol", "vPIS", "vCOFINS"} {
		add(t, tag, zero)
	}
	add(t, "vOutro", o.OtherCharges.StringFixed(2))
	add(t, "vNF", o.TotalAmount.StringFixed(2))
}

func (b *XMLBuilder) writePag(inf *etree.Element, data *fiscal.DocumentData) {
	det := inf.CreateElement("pag").CreateElement("detPag")
	if data.Order.Installments > 1 {
		add(det, "indPag", "1")
	} else {
		add(det, "indPag", "0")
	}
	code := PaymentCode(data.PaymentMethod)
	add(det, "tPag", code)
	if code == nfe.PaymentOther && data.PaymentMethod != nil {
		add(det, "xPag", foldText(data.PaymentMethod.Name, maxName))
	}
	add(det, "vPag", data.Order.TotalAmount.StringFixed(2))
}

// PaymentCode traduce la forma de pago al código tPag.
func PaymentCode(pm *entity.PaymentMethod) string {
	if pm == nil {
		return nfe.PaymentOther
	}
	switch pm.Type {
	case entity.PaymentCash:
		return nfe.PaymentCash
	case entity.PaymentPix:
		return nfe.PaymentPix
	case entity.PaymentDebitCard:
		return nfe.PaymentDebitCard
	case entity.PaymentBankTransfer:
		return nfe.PaymentBankTransfer
	case entity.PaymentCreditCard:
		return nfe.PaymentCreditCard
	case entity.PaymentBoleto:
		return nfe.PaymentBoleto
	case entity.PaymentStoreCredit:
		return nfe.PaymentStoreCredit
	case entity.PaymentPostdatedCheck:
		return nfe.PaymentCheck
	}
	return nfe.PaymentOther
}

// Apportion reparte total entre las líneas en proporción a weights, en
// centavos. La última línea absorbe el redondeo.
func Apportion(total decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(weights))
	for i := range out {
		out[i] = decimal.Zero
	}
	if len(weights) == 0 || total.IsZero() {
		return out
	}
	sum := decimal.Zero
	for _, w := range weights {
		sum = sum.Add(w)
	}
	if !sum.IsPositive() {
		out[0] = total
		return out
	}
	assigned := decimal.Zero
	for i, w := range weights[:len(weights)-1] {
		out[i] = total.Mul(w).Div(sum).Round(2)
		assigned = assigned.Add(out[i])
	}
	out[len(out)-1] = total.Sub(assigned)
	return out
}

// lineCFOP: el CFOP del documento manda; si no, el del producto. En operaciones
// interestatales el 5xxx pasa a 6xxx.
func lineCFOP(docCFOP, productCFOP string, interstate bool) string {
	cfop := docCFOP
	if cfop == "" {
		cfop = productCFOP
	}
	if cfop == "" {
		cfop = nfe.DefaultCFOP
	}
	if interstate && cfop[0] == '5' {
		cfop = "6" + cfop[1:]
	}
	return cfop
}

func writeAddress(el *etree.Element, a entity.Address, phone string, withCountry bool) {
	add(el, "xLgr", foldText(a.Street, maxStreet))
	add(el, "nro", foldText(orDefault(a.Number, "SN"), maxStreet))
	addOpt(el, "xCpl", foldText(a.Complement, maxStreet))
	add(el, "xBairro", foldText(a.District, maxStreet))
	add(el, "cMun", a.CityCode)
	add(el, "xMun", foldText(a.City, maxStreet))
	add(el, "UF", a.State)
	if !withCountry {
		return
	}
	addOpt(el, "CEP", nfe.OnlyDigits(a.ZipCode))
	add(el, "cPais", "1058")
	add(el, "xPais", "BRASIL")
	addOpt(el, "fone", nfe.OnlyDigits(phone))
}

func add(parent *etree.Element, tag, text string) {
	parent.CreateElement(tag).SetText(text)
}

func addOpt(parent *etree.Element, tag, text string) {
	if text != "" {
		add(parent, tag, text)
	}
}

func addMoney(parent *etree.Element, tag string, v decimal.Decimal) {
	if v.IsPositive() {
		add(parent, tag, v.StringFixed(2))
	}
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
