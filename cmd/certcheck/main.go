// certcheck diagnostica el certificado A1 configurado para la NF-e: que el
// archivo exista, que la contraseña abra el .pfx, que la llave sea RSA y la
// vigencia.
//
// Uso: go run ./cmd/certcheck
// Lee FISCAL_CERT_PATH, FISCAL_CERT_KEY_PATH y FISCAL_CERT_PASSWORD como la API.
package main

import (
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jhoicas/Vendas-api/internal/infrastructure/sefaz"
	"github.com/jhoicas/Vendas-api/pkg/config"
	"github.com/jhoicas/Vendas-api/pkg/nfe"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fail("cargar configuración", err)
	}
	path := cfg.Fiscal.CertPath
	if path == "" {
		fail("FISCAL_CERT_PATH vacío", fmt.Errorf("no hay certificado configurado"))
	}
	fmt.Printf("Certificado: %s\n", path)
	if _, err := os.Stat(path); err != nil {
		fail("archivo", err)
	}

	cert, err := sefaz.LoadCertificate(path, cfg.Fiscal.CertKeyPath, cfg.Fiscal.CertPassword)
	if err != nil {
		fail("contraseña o formato", err)
	}
	leaf := cert.Leaf
	if leaf == nil {
		if leaf, err = x509.ParseCertificate(cert.Certificate[0]); err != nil {
			fail("parsear certificado", err)
		}
	}
	if _, err := sefaz.NewXMLSigner(*cert); err != nil {
		fail("llave privada", err)
	}

	fmt.Printf("Titular:     %s\n", leaf.Subject.CommonName)
	fmt.Printf("Emisor:      %s\n", leaf.Issuer.CommonName)
	fmt.Printf("Vigencia:    %s → %s\n", leaf.NotBefore.Format(time.DateOnly), leaf.NotAfter.Format(time.DateOnly))

	// El CN de un e-CNPJ es "RAZAO SOCIAL:CNPJ".
	if i := strings.LastIndex(leaf.Subject.CommonName, ":"); i >= 0 {
		cnpj := nfe.OnlyDigits(leaf.Subject.CommonName[i+1:])
		if err := nfe.ValidateCNPJ(cnpj); err != nil {
			fmt.Printf("CNPJ:        %s (inválido: %v)\n", cnpj, err)
		} else {
			fmt.Printf("CNPJ:        %s\n", cnpj)
		}
	}

	days := int(time.Until(leaf.NotAfter).Hours() / 24)
	switch {
	case days < 0:
		fail("vigencia", fmt.Errorf("certificado vencido hace %d días", -days))
	case days < 30:
		fmt.Printf("ATENCIÓN: vence en %d días\n", days)
	default:
		fmt.Printf("OK: vence en %d días\n", days)
	}
}

func fail(step string, err error) {
	fmt.Fprintf(os.Stderr, "ERROR (%s): %v\n", step, err)
	os.Exit(1)
}
