package sefaz

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/beevik/etree"

	"github.com/jhoicas/Vendas-api/internal/application/fiscal"
	"github.com/jhoicas/Vendas-api/pkg/logger"
	"github.com/jhoicas/Vendas-api/pkg/nfe"
)

// SOAPGateway envía lotes síncronos (indSinc=1) a NFeAutorizacao4 con TLS mutuo.
type SOAPGateway struct {
	url        string
	httpClient *http.Client
	log        *logger.Logger
}

var _ fiscal.FiscalAuthorityGateway = (*SOAPGateway)(nil)

// NewSOAPGateway construye el cliente con el certificado A1 del emisor. El
// timeout de cada envío lo fija el contexto del llamador.
func NewSOAPGateway(url string, cert *tls.Certificate, log *logger.Logger) (*SOAPGateway, error) {
	if url == "" {
		return nil, fmt.Errorf("sefaz: URL de NFeAutorizacao4 vacía")
	}
	if cert == nil {
		return nil, fmt.Errorf("sefaz: la SEFAZ exige certificado para TLS mutuo")
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		Certificates: []tls.Certificate{*cert},
		MinVersion:   tls.VersionTLS12,
	}
	return NewSOAPGatewayWithClient(url, &http.Client{Transport: transport}, log), nil
}

// NewSOAPGatewayWithClient usa un http.Client ya configurado (tests, proxies).
func NewSOAPGatewayWithClient(url string, client *http.Client, log *logger.Logger) *SOAPGateway {
	return &SOAPGateway{url: url, httpClient: client, log: log.Component("sefaz.soap")}
}

// Authorize envía la NF-e firmada. Devuelve error solo cuando no hubo respuesta
// de negocio: red, timeout, SOAP Fault, HTTP no 200 o lote asíncrono.
func (g *SOAPGateway) Authorize(ctx context.Context, req *fiscal.AuthorizationRequest) (*fiscal.AuthorizationResult, error) {
	payload, err := buildEnvelope(req.XML, batchID(time.Now()))
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("soap: crear request: %w", err)
	}
	httpReq.Header.Set("Content-Type", `application/soap+xml; charset=utf-8; action="`+soapAction+`"`)

	start := time.Now()
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("soap: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("soap: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("soap: leer respuesta: %w", err)
	}
	g.log.Debug().Str("access_key", req.AccessKey).Int("http_status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).Msg("respuesta NFeAutorizacao4")

	if resp.StatusCode != http.StatusOK {
		// Algunas UF devuelven retEnviNFe con HTTP 500; si se puede leer, vale.
		if res, pErr := parseResponse(rawBody, req.XML); pErr == nil {
			return res, nil
		}
		return nil, fmt.Errorf("soap: HTTP %d", resp.StatusCode)
	}
	return parseResponse(rawBody, req.XML)
}

// buildEnvelope arma soap12:Envelope/Body/nfeDadosMsg/enviNFe con la NF-e dentro.
func buildEnvelope(nfeXML []byte, idLote string) ([]byte, error) {
	nfeDoc := etree.NewDocument()
	if err := nfeDoc.ReadFromBytes(nfeXML); err != nil {
		return nil, fmt.Errorf("soap: parsear NF-e: %w", err)
	}
	if nfeDoc.Root() == nil {
		return nil, fmt.Errorf("soap: NF-e vacía")
	}

	env := etree.NewDocument()
	env.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	envelope := env.CreateElement("soap12:Envelope")
	envelope.CreateAttr("xmlns:soap12", soapNS)
	msg := envelope.CreateElement("soap12:Body").CreateElement("nfeDadosMsg")
	msg.CreateAttr("xmlns", wsdlAutorizacao)
	envi := msg.CreateElement("enviNFe")
	envi.CreateAttr("xmlns", nfe.Namespace)
	envi.CreateAttr("versao", nfe.LayoutVersion)
	add(envi, "idLote", idLote)
	add(envi, "indSinc", "1")
	envi.AddChild(nfeDoc.Root())

	out, err := env.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("soap: serializar envelope: %w", err)
	}
	return out, nil
}

// parseResponse interpreta retEnviNFe. Con lote procesado (104) el resultado es
// el del protNFe; si no, el cStat del lote es el rechazo.
func parseResponse(rawBody, signedNFe []byte) (*fiscal.AuthorizationResult, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return nil, fmt.Errorf("soap: respuesta ilegible: %w", err)
	}
	if fault := doc.FindElement("//Fault"); fault != nil {
		reason := fault.FindElement(".//Text")
		if reason == nil {
			reason = fault.FindElement(".//faultstring")
		}
		msg := "sin detalle"
		if reason != nil {
			msg = reason.Text()
		}
		return nil, fmt.Errorf("soap: SOAP Fault: %s", msg)
	}
	ret := doc.FindElement("//retEnviNFe")
	if ret == nil {
		return nil, fmt.Errorf("soap: respuesta sin retEnviNFe")
	}
	responseXML, err := elementString(ret)
	if err != nil {
		return nil, err
	}

	batchStat := childText(ret, "cStat")
	res := &fiscal.AuthorizationResult{
		CStat:       batchStat,
		Reason:      childText(ret, "xMotivo"),
		ResponseXML: responseXML,
	}
	switch batchStat {
	case nfe.StatusBatchReceived:
		return nil, fmt.Errorf("soap: la SEFAZ procesó el lote en modo asíncrono (recibo %s)", childText(ret, "infRec/nRec"))
	case nfe.StatusBatchProcessed:
	default:
		return res, nil
	}

	prot := ret.FindElement("protNFe")
	if prot == nil {
		return nil, fmt.Errorf("soap: lote procesado sin protNFe")
	}
	inf := prot.FindElement("infProt")
	if inf == nil {
		return nil, fmt.Errorf("soap: protNFe sin infProt")
	}
	res.CStat = childText(inf, "cStat")
	res.Reason = childText(inf, "xMotivo")
	if !nfe.IsAuthorizedStatus(res.CStat) {
		return res, nil
	}

	res.Protocol = childText(inf, "nProt")
	if res.Protocol == "" {
		return nil, fmt.Errorf("soap: cStat %s sin nProt", res.CStat)
	}
	if at, err := time.Parse(time.RFC3339, childText(inf, "dhRecbto")); err == nil {
		res.AuthorizedAt = at
	}
	proc, err := BuildProc(signedNFe, prot)
	if err != nil {
		return nil, err
	}
	res.ProcessedXML = proc
	return res, nil
}

// BuildProc arma el nfeProc (NF-e firmada + protNFe) que se guarda como XML autorizado.
func BuildProc(signedNFe []byte, protNFe *etree.Element) (string, error) {
	nfeDoc := etree.NewDocument()
	if err := nfeDoc.ReadFromBytes(signedNFe); err != nil {
		return "", fmt.Errorf("sefaz: parsear NF-e: %w", err)
	}
	if nfeDoc.Root() == nil {
		return "", fmt.Errorf("sefaz: NF-e vacía")
	}
	out := etree.NewDocument()
	out.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	proc := out.CreateElement("nfeProc")
	proc.CreateAttr("xmlns", nfe.Namespace)
	proc.CreateAttr("versao", nfe.LayoutVersion)
	proc.AddChild(nfeDoc.Root())
	proc.AddChild(protNFe.Copy())
	s, err := out.WriteToString()
	if err != nil {
		return "", fmt.Errorf("sefaz: serializar nfeProc: %w", err)
	}
	return s, nil
}

func elementString(el *etree.Element) (string, error) {
	d := etree.NewDocument()
	d.SetRoot(el.Copy())
	s, err := d.WriteToString()
	if err != nil {
		return "", fmt.Errorf("sefaz: serializar %s: %w", el.Tag, err)
	}
	return s, nil
}

func childText(el *etree.Element, path string) string {
	if c := el.FindElement(path); c != nil {
		return c.Text()
	}
	return ""
}

// batchID idLote de hasta 15 dígitos.
func batchID(now time.Time) string {
	return strconv.FormatInt(now.UnixNano()%1_000_000_000_000_000, 10)
}
