package sefaz

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/Vendas-api/internal/application/fiscal"
	"github.com/jhoicas/Vendas-api/pkg/nfe"
)

// XMLSigner firma la NF-e con XMLDSig envelopada (RSA-SHA1, C14N) y deja
// <Signature> como hermano siguiente de <infNFe>.
type XMLSigner struct {
	key  *rsa.PrivateKey
	cert *x509.Certificate
}

var _ fiscal.DocumentSigner = (*XMLSigner)(nil)

// NewXMLSigner valida que el certificado traiga llave privada RSA.
func NewXMLSigner(cert tls.Certificate) (*XMLSigner, error) {
	priv, ok := cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("sefaz: el certificado debe incluir llave privada RSA")
	}
	if len(cert.Certificate) == 0 {
		return nil, fmt.Errorf("sefaz: certificado vacío")
	}
	leaf := cert.Leaf
	if leaf == nil {
		var err error
		if leaf, err = x509.ParseCertificate(cert.Certificate[0]); err != nil {
			return nil, fmt.Errorf("sefaz: parsear certificado: %w", err)
		}
	}
	return &XMLSigner{key: priv, cert: leaf}, nil
}

// Sign firma el elemento con Id=referenceID.
func (s *XMLSigner) Sign(xmlBytes []byte, referenceID string) ([]byte, error) {
	if len(xmlBytes) == 0 {
		return nil, fmt.Errorf("sefaz: XML vacío")
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("sefaz: parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("sefaz: documento sin raíz")
	}
	target := doc.FindElement(fmt.Sprintf("//*[@Id='%s']", referenceID))
	if target == nil {
		return nil, fmt.Errorf("sefaz: no se encontró el elemento %s", referenceID)
	}

	// 1) Digest del elemento referenciado (C14N, namespace heredado incluido)
	canonicalRef, err := CanonicalizeElement(target, nfe.Namespace)
	if err != nil {
		return nil, fmt.Errorf("sefaz: canonicalizar %s: %w", referenceID, err)
	}
	digest := sha1.Sum(canonicalRef)

	// 2) SignedInfo canonicalizado y firmado
	signedInfo := buildSignedInfo(referenceID, base64.StdEncoding.EncodeToString(digest[:]))
	canonicalSignedInfo, err := canonicalize([]byte(`<SignedInfo xmlns="` + NamespaceDS + `">` + signedInfo + `</SignedInfo>`))
	if err != nil {
		return nil, fmt.Errorf("sefaz: canonicalizar SignedInfo: %w", err)
	}
	hash := sha1.Sum(canonicalSignedInfo)
	signature, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA1, hash[:])
	if err != nil {
		return nil, fmt.Errorf("sefaz: firmar SignedInfo: %w", err)
	}

	// 3) Signature completa como hermano de infNFe
	var sb strings.Builder
	sb.WriteString(`<Signature xmlns="` + NamespaceDS + `">`)
	sb.WriteString(`<SignedInfo>` + signedInfo + `</SignedInfo>`)
	sb.WriteString(`<SignatureValue>` + base64.StdEncoding.EncodeToString(signature) + `</SignatureValue>`)
	sb.WriteString(`<KeyInfo><X509Data><X509Certificate>` + base64.StdEncoding.EncodeToString(s.cert.Raw) + `</X509Certificate></X509Data></KeyInfo>`)
	sb.WriteString(`</Signature>`)

	sigDoc := etree.NewDocument()
	if err := sigDoc.ReadFromString(sb.String()); err != nil {
		return nil, fmt.Errorf("sefaz: parsear Signature: %w", err)
	}
	parent := target.Parent()
	if parent == nil {
		parent = root
	}
	parent.InsertChildAt(target.Index()+1, sigDoc.Root())

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("sefaz: serializar XML firmado: %w", err)
	}
	return out.Bytes(), nil
}

// buildSignedInfo devuelve el contenido de SignedInfo (sin el elemento envolvente).
func buildSignedInfo(referenceID, digestB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<CanonicalizationMethod Algorithm="` + AlgC14N + `"/>`)
	sb.WriteString(`<SignatureMethod Algorithm="` + AlgRSASHA1 + `"/>`)
	sb.WriteString(`<Reference URI="#` + referenceID + `">`)
	sb.WriteString(`<Transforms><Transform Algorithm="` + TransformEnveloped + `"/>`)
	sb.WriteString(`<Transform Algorithm="` + AlgC14N + `"/></Transforms>`)
	sb.WriteString(`<DigestMethod Algorithm="` + AlgSHA1 + `"/>`)
	sb.WriteString(`<DigestValue>` + digestB64 + `</DigestValue>`)
	sb.WriteString(`</Reference>`)
	return sb.String()
}

// CanonicalizeElement aplica C14N a una copia del elemento declarando el
// namespace por defecto que hereda de sus ancestros.
func CanonicalizeElement(el *etree.Element, inheritedNS string) ([]byte, error) {
	cp := el.Copy()
	if cp.SelectAttr("xmlns") == nil && inheritedNS != "" {
		cp.CreateAttr("xmlns", inheritedNS)
	}
	d := etree.NewDocument()
	d.SetRoot(cp)
	raw, err := d.WriteToBytes()
	if err != nil {
		return nil, err
	}
	return canonicalize(raw)
}

func canonicalize(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}
