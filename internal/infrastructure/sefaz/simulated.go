package sefaz

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/beevik/etree"

	"github.com/jhoicas/Vendas-api/internal/application/fiscal"
	"github.com/jhoicas/Vendas-api/pkg/logger"
	"github.com/jhoicas/Vendas-api/pkg/nfe"
)

// Palabras de la natureza da operação que alteran la respuesta simulada.
const (
	simulateRejectWord      = "REJEITAR"
	simulateUnavailableWord = "INDISPONIVEL"
)

// SimulatedGateway responde como la SEFAZ sin salir de la red: autoriza, o
// rechaza (cStat 999) si la naturaleza contiene REJEITAR, o devuelve 108 si
// contiene INDISPONIVEL. La respuesta pasa por el mismo parser que la real.
type SimulatedGateway struct {
	seq atomic.Int64
	now func() time.Time
	log *logger.Logger
}

var _ fiscal.FiscalAuthorityGateway = (*SimulatedGateway)(nil)

// NewSimulatedGateway crea el gateway simulado.
func NewSimulatedGateway(log *logger.Logger) *SimulatedGateway {
	return &SimulatedGateway{now: time.Now, log: log.Component("sefaz.simulated")}
}

// Authorize arma un retEnviNFe sintético y lo interpreta con parseResponse.
func (g *SimulatedGateway) Authorize(ctx context.Context, req *fiscal.AuthorizationRequest) (*fiscal.AuthorizationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := g.now().In(nfe.BrasiliaTime)
	nature := strings.ToUpper(foldText(req.OperationNature, 0))

	doc := etree.NewDocument()
	envelope := doc.CreateElement("soap:Envelope")
	envelope.CreateAttr("xmlns:soap", soapNS)
	ret := envelope.CreateElement("soap:Body").CreateElement("nfeResultMsg")
	ret.CreateAttr("xmlns", wsdlAutorizacao)
	ret = ret.CreateElement("retEnviNFe")
	ret.CreateAttr("xmlns", nfe.Namespace)
	ret.CreateAttr("versao", nfe.LayoutVersion)
	add(ret, "tpAmb", strconv.Itoa(req.Environment))
	add(ret, "verAplic", "SIMULADO")

	switch {
	case strings.Contains(nature, simulateUnavailableWord):
		add(ret, "cStat", nfe.StatusServiceStopped)
		add(ret, "xMotivo", "Servico Paralisado Momentaneamente (simulado)")
		add(ret, "cUF", req.StateCode)
	default:
		add(ret, "cStat", nfe.StatusBatchProcessed)
		add(ret, "xMotivo", "Lote processado")
		add(ret, "cUF", req.StateCode)
		add(ret, "dhRecbto", now.Format(time.RFC3339))
		prot := ret.CreateElement("protNFe")
		prot.CreateAttr("versao", nfe.LayoutVersion)
		inf := prot.CreateElement("infProt")
		add(inf, "tpAmb", strconv.Itoa(req.Environment))
		add(inf, "verAplic", "SIMULADO")
		add(inf, "chNFe", req.AccessKey)
		add(inf, "dhRecbto", now.Format(time.RFC3339))
		if strings.Contains(nature, simulateRejectWord) {
			add(inf, "cStat", "999")
			add(inf, "xMotivo", "Rejeicao: Erro nao catalogado (simulado)")
		} else {
			add(inf, "nProt", g.protocol(req, now))
			addOpt(inf, "digVal", digestValue(req.XML))
			add(inf, "cStat", nfe.StatusAuthorized)
			add(inf, "xMotivo", "Autorizado o uso da NF-e")
		}
	}

	raw, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("sefaz: serializar respuesta simulada: %w", err)
	}
	res, err := parseResponse(raw, req.XML)
	if err != nil {
		return nil, err
	}
	g.log.Info().Str("access_key", req.AccessKey).Str("c_stat", res.CStat).Msg("respuesta simulada")
	return res, nil
}

// protocol nProt de 15 dígitos: tpAmb + cUF + AA + secuencial.
func (g *SimulatedGateway) protocol(req *fiscal.AuthorizationRequest, now time.Time) string {
	return fmt.Sprintf("%d%s%s%010d", req.Environment, req.StateCode, now.Format("06"), g.seq.Add(1))
}

func digestValue(signedXML []byte) string {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(signedXML); err != nil {
		return ""
	}
	if el := doc.FindElement("//DigestValue"); el != nil {
		return el.Text()
	}
	return ""
}
