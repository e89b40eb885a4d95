package sefaz

import (
	"crypto/tls"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

// LoadCertificate carga el certificado A1 usado para firmar y para el TLS mutuo
// con la SEFAZ. Acepta .pfx/.p12 (con password) o PEM (certificado y llave por
// separado o en el mismo archivo). Con path vacío devuelve nil, nil: no se firma.
func LoadCertificate(path, keyPath, password string) (*tls.Certificate, error) {
	if path == "" {
		return nil, nil
	}
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".pfx") || strings.HasSuffix(lower, ".p12") {
		return loadFromP12(path, password)
	}
	if keyPath == "" {
		keyPath = path
	}
	cert, err := tls.LoadX509KeyPair(path, keyPath)
	if err != nil {
		return nil, fmt.Errorf("sefaz: cargar certificado PEM: %w", err)
	}
	return &cert, nil
}

func loadFromP12(path, password string) (*tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sefaz: leer p12: %w", err)
	}
	priv, leaf, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, fmt.Errorf("sefaz: decodificar p12: %w", err)
	}
	// pkcs12.Decode devuelve solo el certificado hoja; para la SEFAZ alcanza.
	return &tls.Certificate{
		Certificate: [][]byte{leaf.Raw},
		PrivateKey:  priv,
		Leaf:        leaf,
	}, nil
}
