package signer_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mozilla.org/pkcs7"

	"github.com/jhoicas/facturador-afip/internal/infrastructure/afip/signer"
)

// newTestKeyPair genera un certificado autofirmado con la forma de los que
// emite AFIP (CN = alias, serialNumber = "CUIT nnnnnnnnnnn").
func newTestKeyPair(t *testing.T) (certPEM, pkcs1KeyPEM, pkcs8KeyPEM []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(4242),
		Subject: pkix.Name{
			CommonName:   "facturacionweb",
			SerialNumber: "CUIT 20409378472",
		},
		NotBefore: time.Now().Add(-time.Hour),
		NotAfter:  time.Now().Add(24 * time.Hour),
		KeyUsage:  x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	pkcs8, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	pkcs1KeyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pkcs8KeyPEM = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8})
	return certPEM, pkcs1KeyPEM, pkcs8KeyPEM
}

func TestLoadFromPEM_PKCS1yPKCS8(t *testing.T) {
	certPEM, pkcs1, pkcs8 := newTestKeyPair(t)

	for name, keyPEM := range map[string][]byte{"pkcs1": pkcs1, "pkcs8": pkcs8} {
		t.Run(name, func(t *testing.T) {
			cert, err := signer.LoadFromPEM(certPEM, keyPEM)
			require.NoError(t, err)
			require.NotNil(t, cert.Leaf)
			assert.Equal(t, "facturacionweb", cert.Leaf.Subject.CommonName)
			assert.Len(t, signer.Fingerprint(cert.Leaf), 64)
		})
	}
}

func TestLoadFromPEM_ArchivoCombinado(t *testing.T) {
	certPEM, keyPEM, _ := newTestKeyPair(t)
	combined := append(append([]byte{}, certPEM...), keyPEM...)

	cert, err := signer.LoadFromPEM(combined, nil)
	require.NoError(t, err)
	assert.NotNil(t, cert.PrivateKey)
}

func TestLoadFromPEM_Errores(t *testing.T) {
	certPEM, _, _ := newTestKeyPair(t)

	_, err := signer.LoadFromPEM(nil, nil)
	assert.Error(t, err, "certificado vacío")

	_, err = signer.LoadFromPEM(certPEM, []byte("no es una clave"))
	assert.Error(t, err, "clave inválida")
}

func TestLoad_EligePorExtension(t *testing.T) {
	certPEM, keyPEM, _ := newTestKeyPair(t)

	_, err := signer.Load("certificados/MiCertificado.pem", certPEM, keyPEM, "")
	require.NoError(t, err)

	_, err = signer.Load("certificados/cert.P12", []byte("basura"), nil, "secreto")
	assert.Error(t, err, "un .p12 inválido debe fallar al decodificar")
}

func TestSignCMS_VerificableYConContenido(t *testing.T) {
	certPEM, keyPEM, _ := newTestKeyPair(t)
	cert, err := signer.LoadFromPEM(certPEM, keyPEM)
	require.NoError(t, err)

	tra := []byte(`<?xml version="1.0" encoding="UTF-8"?><loginTicketRequest version="1.0"/>`)

	der, err := signer.SignCMS(tra, cert)
	require.NoError(t, err)

	p7, err := pkcs7.Parse(der)
	require.NoError(t, err)
	require.NoError(t, p7.Verify(), "la firma debe verificar con el certificado incluido")
	assert.Equal(t, tra, p7.Content, "el TRA debe viajar adjunto en el CMS")
	require.Len(t, p7.Certificates, 1)
	assert.Equal(t, cert.Leaf.Raw, p7.Certificates[0].Raw)
	require.Len(t, p7.Signers, 1)
	assert.True(t, p7.Signers[0].DigestAlgorithm.Algorithm.Equal(pkcs7.OIDDigestAlgorithmSHA256))
}

func TestSignCMSBase64_UnaLinea(t *testing.T) {
	certPEM, keyPEM, _ := newTestKeyPair(t)
	cert, err := signer.LoadFromPEM(certPEM, keyPEM)
	require.NoError(t, err)

	b64, err := signer.SignCMSBase64([]byte("<tra/>"), cert)
	require.NoError(t, err)
	assert.NotContains(t, b64, "\n")

	_, err = base64.StdEncoding.DecodeString(b64)
	assert.NoError(t, err)
}

func TestSignCMS_Errores(t *testing.T) {
	certPEM, keyPEM, _ := newTestKeyPair(t)
	cert, err := signer.LoadFromPEM(certPEM, keyPEM)
	require.NoError(t, err)

	_, err = signer.SignCMS(nil, cert)
	assert.Error(t, err)

	cert.PrivateKey = nil
	_, err = signer.SignCMS([]byte("<tra/>"), cert)
	assert.Error(t, err)
}
