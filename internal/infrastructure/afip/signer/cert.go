// Carga de certificado AFIP desde .p12 (PKCS#12) o par PEM (certificado + clave).

package signer

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

// LoadFromP12 decodifica un .p12/.pfx. El password puede ser vacío.
func LoadFromP12(data []byte, password string) (tls.Certificate, error) {
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decodificar p12: %w", err)
	}
	// pkcs12.Decode devuelve solo el certificado hoja; para WSAA alcanza.
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  priv,
		Leaf:        cert,
	}, nil
}

// LoadFromPEM arma el par a partir del certificado emitido por AFIP
// (MiCertificado.pem) y la clave privada (MiClavePrivada.key).
// Si keyPEM es nil se asume que certPEM contiene ambos bloques.
func LoadFromPEM(certPEM, keyPEM []byte) (tls.Certificate, error) {
	if len(certPEM) == 0 {
		return tls.Certificate{}, fmt.Errorf("cargar PEM: certificado vacío")
	}
	if len(keyPEM) == 0 {
		keyPEM = certPEM
	}
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("cargar PEM: %w", err)
	}
	if cert.Leaf == nil {
		leaf, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("parsear certificado: %w", err)
		}
		cert.Leaf = leaf
	}
	return cert, nil
}

// Load elige el decodificador por extensión del archivo del certificado.
func Load(certName string, certData, keyData []byte, password string) (tls.Certificate, error) {
	lower := strings.ToLower(certName)
	if strings.HasSuffix(lower, ".p12") || strings.HasSuffix(lower, ".pfx") {
		return LoadFromP12(certData, password)
	}
	return LoadFromPEM(certData, keyData)
}

// Fingerprint SHA-256 del certificado en hex (para logs y diagnóstico).
func Fingerprint(cert *x509.Certificate) string {
	h := sha256.Sum256(cert.Raw)
	return hex.EncodeToString(h[:])
}
