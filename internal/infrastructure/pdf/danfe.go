// Package pdf genera el DANFE (Documento Auxiliar da NF-e) de una NF-e
// autorizada.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  EMITENTE: Razão social + CNPJ/IE  │  DANFE N° / Série       │
//	│  CHAVE DE ACESSO + código de barras CODE-128                 │
//	│  PROTOCOLO de autorização / natureza da operação             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DESTINATÁRIO: Nome + CPF/CNPJ + endereço                    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABELA: Código | Descrição | NCM | CFOP | Qtd | V.Unit | V.Total │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTAIS: Produtos / Frete / Desconto / Outras / TOTAL NOTA   │
//	│  DADOS ADICIONAIS                                            │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Vendas-api/internal/application/fiscal"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/pkg/nfe"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 180, Green: 0, Blue: 0}
)

// ── Renderer ──────────────────────────────────────────────────────────────────

// DANFERenderer implementa fiscal.DocumentRenderer usando Maroto v2.
type DANFERenderer struct{}

var _ fiscal.DocumentRenderer = (*DANFERenderer)(nil)

// NewDANFERenderer construye el renderer.
func NewDANFERenderer() *DANFERenderer { return &DANFERenderer{} }

// Render genera el PDF del DANFE y devuelve sus bytes.
func (r *DANFERenderer) Render(ctx context.Context, data *fiscal.DocumentData) ([]byte, error) {
	if data == nil || data.Document == nil || data.Issuer == nil || data.Customer == nil || data.Order == nil {
		return nil, fmt.Errorf("pdf: datos del DANFE incompletos")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("DANFE "+data.Document.AccessKey, true).
		WithAuthor(data.Issuer.LegalName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(issuerRow(data.Document, data.Issuer))
	m.AddRows(accessKeyRows(data.Document)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(recipientRow(data.Customer))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(itemsHeaderRow())
	m.AddRows(itemRows(data)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(data.Order))
	m.AddRows(additionalRows(data)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar DANFE: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// issuerRow: emitente (izq) y número/serie del documento (der).
func issuerRow(d *entity.FiscalDocument, c *entity.Company) core.Row {
	a := c.Address
	return row.New(22).Add(
		col.New(8).Add(
			text.New(c.LegalName, props.Text{
				Style: fontstyle.Bold, Size: 12, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s, %s - %s - %s/%s - CEP %s",
				a.Street, nonEmpty(a.Number, "S/N"), a.District, a.City, a.State, a.ZipCode,
			), props.Text{Size: 7, Top: 8, Color: colorGray}),
			text.New("CNPJ: "+formatCNPJ(c.CNPJ)+"   IE: "+nonEmpty(c.StateRegistration, "ISENTO"), props.Text{
				Size: 8, Top: 13,
			}),
		),
		col.New(4).Add(
			text.New(documentTitle(d.Model), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("1 - SAÍDA", props.Text{Size: 8, Align: align.Right, Top: 8}),
			text.New(fmt.Sprintf("Nº %s  Série %03d", formatNumber(d.Number), d.Series), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 13,
			}),
		),
	)
}

// accessKeyRows: chave de acesso en bloques de 4, código de barras y protocolo.
func accessKeyRows(d *entity.FiscalDocument) []core.Row {
	protocol := "—"
	if d.AuthorizationProtocol != "" && d.AuthorizationTimestamp != nil {
		protocol = d.AuthorizationProtocol + " - " + d.AuthorizationTimestamp.In(nfe.BrasiliaTime).Format("02/01/2006 15:04:05")
	}
	rows := []core.Row{
		row.New(14).Add(col.New(12).Add(code.NewBar(d.AccessKey, props.Barcode{Percent: 90, Center: true}))),
		row.New(10).Add(
			col.New(8).Add(
				text.New("CHAVE DE ACESSO", props.Text{Style: fontstyle.Bold, Size: 7, Color: colorPrimary, Top: 1}),
				text.New(formatAccessKey(d.AccessKey), props.Text{Size: 8, Top: 5}),
			),
			col.New(4).Add(
				text.New("PROTOCOLO DE AUTORIZAÇÃO", props.Text{Style: fontstyle.Bold, Size: 7, Align: align.Right, Color: colorPrimary, Top: 1}),
				text.New(protocol, props.Text{Size: 8, Align: align.Right, Top: 5}),
			),
		),
		row.New(8).Add(col.New(12).Add(
			text.New("NATUREZA DA OPERAÇÃO: "+d.OperationNature, props.Text{Size: 8, Top: 2}),
		)),
	}
	if d.Environment == nfe.EnvironmentHomologation {
		rows = append(rows, row.New(8).Add(col.New(12).Add(
			text.New("EMITIDA EM AMBIENTE DE HOMOLOGAÇÃO - SEM VALOR FISCAL", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Center, Color: colorAlert, Top: 2,
			}),
		)))
	}
	return rows
}

// recipientRow: destinatário.
func recipientRow(c *entity.Customer) core.Row {
	a := c.Address
	doc := "CPF: " + formatCPF(c.TaxID)
	if c.IsCompany() {
		doc = "CNPJ: " + formatCNPJ(c.TaxID)
	}
	return row.New(18).Add(
		col.New(12).Add(
			text.New("DESTINATÁRIO / REMETENTE", props.Text{
				Style: fontstyle.Bold, Size: 7, Color: colorPrimary, Top: 1,
			}),
			text.New(c.Name, props.Text{Style: fontstyle.Bold, Size: 9, Top: 5}),
			text.New(doc+"   IE: "+nonEmpty(c.StateRegistration, "—"), props.Text{Size: 8, Top: 10}),
			text.New(fmt.Sprintf("%s, %s - %s - %s/%s",
				nonEmpty(a.Street, "—"), nonEmpty(a.Number, "S/N"), a.District, a.City, a.State,
			), props.Text{Size: 7, Top: 14, Color: colorGray}),
		),
	)
}

func itemsHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 7, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(7).Add(
		h("Código", 1, align.Left),
		h("Descrição do produto", 4, align.Left),
		h("NCM", 1, align.Center),
		h("CFOP", 1, align.Center),
		h("Qtd.", 1, align.Right),
		h("V. Unit.", 2, align.Right),
		h("V. Total", 2, align.Right),
	)
}

// itemRows: una fila por línea del pedido.
func itemRows(data *fiscal.DocumentData) []core.Row {
	result := make([]core.Row, 0, len(data.Order.Lines))
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 7, Align: a, Top: 1, Left: 1, Right: 1}))
	}
	for _, l := range data.Order.Lines {
		sku, name, ncm, cfop := l.ProductID, l.ProductID, "", data.Document.CFOP
		if p, ok := data.Products[l.ProductID]; ok && p != nil {
			sku, name, ncm = p.SKU, p.Name, nfe.OnlyDigits(p.NCM)
			if cfop == "" {
				cfop = p.CFOP
			}
		}
		result = append(result, row.New(6).Add(
			cell(sku, 1, align.Left),
			cell(name, 4, align.Left),
			cell(ncm, 1, align.Center),
			cell(nonEmpty(cfop, nfe.DefaultCFOP), 1, align.Center),
			cell(l.Quantity.StringFixed(2), 1, align.Right),
			cell(formatBRL(l.UnitPrice), 2, align.Right),
			cell(formatBRL(l.Subtotal), 2, align.Right),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(o *entity.Order) core.Row {
	label := func(s string, size float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: size, Align: align.Right, Right: 2})
	}
	value := func(s string, size float64) core.Component {
		return text.New(s, props.Text{Size: size, Align: align.Right, Right: 1})
	}
	return row.New(30).Add(
		col.New(6),
		col.New(3).Add(
			label("Valor dos produtos:", 8),
			label("Frete:", 8),
			label("Desconto:", 8),
			label("Outras despesas:", 8),
			label("VALOR TOTAL DA NOTA:", 9),
		),
		col.New(3).Add(
			value(formatBRL(o.Subtotal), 8),
			value(formatBRL(o.ShippingCost), 8),
			value(formatBRL(o.DiscountAmount), 8),
			value(formatBRL(o.OtherCharges), 8),
			text.New(formatBRL(o.TotalAmount), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Right: 1,
			}),
		),
	)
}

func additionalRows(data *fiscal.DocumentData) []core.Row {
	info := data.Order.Notes
	if data.PaymentMethod != nil {
		info = strings.TrimSpace("Forma de pagamento: " + data.PaymentMethod.Name + ". " + info)
	}
	if info == "" {
		return nil
	}
	return []core.Row{
		row.New(6).Add(col.New(12).Add(text.New("DADOS ADICIONAIS", props.Text{
			Style: fontstyle.Bold, Size: 7, Color: colorPrimary, Top: 1,
		}))),
		row.New(12).Add(col.New(12).Add(text.New(info, props.Text{Size: 7, Color: colorGray, Top: 1}))),
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func documentTitle(model string) string {
	if model == entity.FiscalModelNFCe {
		return "DANFE NFC-e"
	}
	return "DANFE"
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatBRL formatea en reales: 1234.5 → "R$ 1.234,50".
func formatBRL(v decimal.Decimal) string {
	s := v.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]
	out := "R$ " + groupThousands(intPart) + "," + frac
	if v.IsNegative() {
		return "-" + out
	}
	return out
}

// formatNumber nNF con separador de miles: 42 → "000.000.042".
func formatNumber(n int64) string {
	return groupThousands(fmt.Sprintf("%09d", n))
}

// groupThousands inserta puntos de miles en un string numérico sin decimales.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}

// formatAccessKey separa la chave en 11 bloques de 4 dígitos.
func formatAccessKey(key string) string {
	parts := make([]string, 0, 11)
	for len(key) > 4 {
		parts = append(parts, key[:4])
		key = key[4:]
	}
	if key != "" {
		parts = append(parts, key)
	}
	return strings.Join(parts, " ")
}

func formatCNPJ(s string) string {
	d := nfe.OnlyDigits(s)
	if len(d) != 14 {
		return s
	}
	return d[:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:]
}

func formatCPF(s string) string {
	d := nfe.OnlyDigits(s)
	if len(d) != 11 {
		return s
	}
	return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
}
