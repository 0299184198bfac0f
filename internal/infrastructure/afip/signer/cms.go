// Firma CMS (PKCS#7 SignedData) del TRA para el login en WSAA.

package signer

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"

	"go.mozilla.org/pkcs7"
)

// SignCMS firma content con el certificado y devuelve el SignedData en DER.
// El contenido va adjunto (no detached), con digest SHA-256 y el certificado
// del firmante incluido, tal como lo exige WSAA.
func SignCMS(content []byte, cert tls.Certificate) ([]byte, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("cms: contenido vacío")
	}
	if len(cert.Certificate) == 0 || cert.PrivateKey == nil {
		return nil, fmt.Errorf("cms: certificado sin llave privada")
	}
	leaf := cert.Leaf
	if leaf == nil {
		var err error
		leaf, err = x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return nil, fmt.Errorf("cms: parsear certificado: %w", err)
		}
	}

	sd, err := pkcs7.NewSignedData(content)
	if err != nil {
		return nil, fmt.Errorf("cms: inicializar SignedData: %w", err)
	}
	sd.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)
	if err := sd.AddSigner(leaf, cert.PrivateKey, pkcs7.SignerInfoConfig{}); err != nil {
		return nil, fmt.Errorf("cms: agregar firmante: %w", err)
	}
	der, err := sd.Finish()
	if err != nil {
		return nil, fmt.Errorf("cms: finalizar: %w", err)
	}
	return der, nil
}

// SignCMSBase64 igual que SignCMS pero codificado en Base64 estándar en una
// sola línea (el formato que espera el parámetro in0 de loginCms).
func SignCMSBase64(content []byte, cert tls.Certificate) (string, error) {
	der, err := SignCMS(content, cert)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(der), nil
}
