package sefaz_test

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Vendas-api/internal/infrastructure/sefaz"
	"github.com/jhoicas/Vendas-api/pkg/nfe"
)

func signedDocument(t *testing.T) (*etree.Document, tls.Certificate, string) {
	t.Helper()
	data := documentData(t)
	unsigned, err := sefaz.NewXMLBuilder().Build(data)
	require.NoError(t, err)

	cert := testCertificate(t)
	signer, err := sefaz.NewXMLSigner(cert)
	require.NoError(t, err)

	ref := "NFe" + data.Document.AccessKey
	signed, err := signer.Sign(unsigned, ref)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(signed))
	return doc, cert, ref
}

func TestSign_SignatureEsHermanoDeInfNFe(t *testing.T) {
	doc, _, ref := signedDocument(t)

	children := doc.Root().ChildElements()
	require.Len(t, children, 2)
	assert.Equal(t, "infNFe", children[0].Tag)
	assert.Equal(t, "Signature", children[1].Tag)
	assert.Equal(t, sefaz.NamespaceDS, children[1].SelectAttrValue("xmlns", ""))

	refEl := doc.FindElement("//Signature/SignedInfo/Reference")
	require.NotNil(t, refEl)
	assert.Equal(t, "#"+ref, refEl.SelectAttrValue("URI", ""))
	assert.NotEmpty(t, doc.FindElement("//Signature/KeyInfo/X509Data/X509Certificate").Text())
}

func TestSign_DigestCorrespondeAInfNFe(t *testing.T) {
	doc, _, _ := signedDocument(t)

	inf := doc.FindElement("//infNFe")
	require.NotNil(t, inf)
	canonical, err := sefaz.CanonicalizeElement(inf, nfe.Namespace)
	require.NoError(t, err)
	sum := sha1.Sum(canonical)

	assert.Equal(t, base64.StdEncoding.EncodeToString(sum[:]), doc.FindElement("//DigestValue").Text())
}

func TestSign_FirmaVerificableConLaLlavePublica(t *testing.T) {
	doc, cert, _ := signedDocument(t)

	signedInfo := doc.FindElement("//Signature/SignedInfo")
	require.NotNil(t, signedInfo)
	canonical, err := sefaz.CanonicalizeElement(signedInfo, sefaz.NamespaceDS)
	require.NoError(t, err)
	hash := sha1.Sum(canonical)

	sig, err := base64.StdEncoding.DecodeString(doc.FindElement("//SignatureValue").Text())
	require.NoError(t, err)

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	pub, ok := leaf.PublicKey.(*rsa.PublicKey)
	require.True(t, ok)
	assert.NoError(t, rsa.VerifyPKCS1v15(pub, crypto.SHA1, hash[:], sig))
}

func TestSign_Errores(t *testing.T) {
	signer, err := sefaz.NewXMLSigner(testCertificate(t))
	require.NoError(t, err)

	_, err = signer.Sign(nil, "NFe1")
	assert.Error(t, err)

	_, err = signer.Sign([]byte("<NFe><infNFe Id=>"), "NFe1")
	assert.Error(t, err)

	_, err = signer.Sign([]byte(`<NFe><infNFe Id="NFe1"/></NFe>`), "NFe2")
	assert.ErrorContains(t, err, "NFe2")
}

func TestNewXMLSigner_ExigeLlaveRSA(t *testing.T) {
	_, err := sefaz.NewXMLSigner(tls.Certificate{})
	assert.Error(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Carga de certificados
// ──────────────────────────────────────────────────────────────────────────────

func TestLoadCertificate_SinRutaNoFirma(t *testing.T) {
	cert, err := sefaz.LoadCertificate("", "", "")
	assert.NoError(t, err)
	assert.Nil(t, cert)
}

func TestLoadCertificate_ArchivoInexistente(t *testing.T) {
	dir := t.TempDir()
	_, err := sefaz.LoadCertificate(filepath.Join(dir, "a1.pfx"), "", "secreto")
	assert.Error(t, err)

	_, err = sefaz.LoadCertificate(filepath.Join(dir, "a1.pem"), "", "")
	assert.Error(t, err)
}

func TestLoadCertificate_P12Corrupto(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a1.p12")
	require.NoError(t, os.WriteFile(path, []byte("no es un p12"), 0o600))
	_, err := sefaz.LoadCertificate(path, "", "secreto")
	assert.ErrorContains(t, err, "p12")
}
