package redis

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/Nevi32/wofuo1/internal/pkg/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateSelfSignedCert(t *testing.T) (certPEM, keyPEM []byte) {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{Organization: []string{"Wofuo Test"}},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	require.NoError(t, err)

	certOut := &bytes.Buffer{}
	require.NoError(t, pem.Encode(certOut, &pem.Block{Type: "CERTIFICATE", Bytes: derBytes}))
	keyOut := &bytes.Buffer{}
	require.NoError(t, pem.Encode(keyOut, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privateKey)}))
	return certOut.Bytes(), keyOut.Bytes()
}

func TestBuildTLSConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("no cert content gives default config", func(t *testing.T) {
		tlsConfig, err := buildTLSConfig(ctx, config.RedisConfig{})
		require.NoError(t, err)
		assert.Nil(t, tlsConfig.RootCAs)
		assert.Nil(t, tlsConfig.Certificates)
	})

	t.Run("CA certificate only", func(t *testing.T) {
		caCert, _ := generateSelfSignedCert(t)
		tlsConfig, err := buildTLSConfig(ctx, config.RedisConfig{CertContent: string(caCert)})
		require.NoError(t, err)
		assert.NotNil(t, tlsConfig.RootCAs)
		assert.Nil(t, tlsConfig.Certificates)
	})

	t.Run("client key pair and CA", func(t *testing.T) {
		cert, key := generateSelfSignedCert(t)
		tlsConfig, err := buildTLSConfig(ctx, config.RedisConfig{CertContent: string(cert) + string(key)})
		require.NoError(t, err)
		assert.Len(t, tlsConfig.Certificates, 1)
		assert.NotNil(t, tlsConfig.RootCAs)
	})

	t.Run("invalid PEM", func(t *testing.T) {
		_, err := buildTLSConfig(ctx, config.RedisConfig{CertContent: "not a pem"})
		assert.Error(t, err)
	})
}

func TestConnectToRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := ConnectToRedis(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	require.NotNil(t, client.Client)
	assert.NoError(t, (&DefaultRedisConnector{}).Ping(context.Background(), client.Client))
	assert.NoError(t, Disconnect(client.Client))
}

func TestConnectToRedis_Failures(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := ConnectToRedis(context.Background(), config.RedisConfig{Addr: addr})
	assert.Error(t, err)

	_, err = ConnectToRedis(context.Background(), config.RedisConfig{Addr: addr, EnableTLS: true, CertContent: "garbage"})
	assert.Error(t, err)
}
