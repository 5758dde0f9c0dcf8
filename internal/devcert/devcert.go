// Package devcert provisions self-signed certificates for local TLS.
package devcert

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"time"
)

// Validity is the lifetime of a generated certificate.
const Validity = 365 * 24 * time.Hour

// renewWithin regenerates certificates that expire sooner than this.
const renewWithin = 7 * 24 * time.Hour

// Ensure makes sure a usable key pair exists at certPath and keyPath. An
// existing pair is kept while it parses and stays valid beyond the renewal
// window; otherwise a new ECDSA P-256 certificate for hosts is written.
// It reports whether a certificate was generated.
func Ensure(certPath, keyPath string, hosts []string, now time.Time) (bool, error) {
	if usable(certPath, keyPath, now) {
		return false, nil
	}
	if len(hosts) == 0 {
		return false, fmt.Errorf("no usable certificate at %s and no hostnames to generate one", certPath)
	}
	if err := Generate(certPath, keyPath, hosts, now); err != nil {
		return false, err
	}
	return true, nil
}

func usable(certPath, keyPath string, now time.Time) bool {
	pair, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil || len(pair.Certificate) == 0 {
		return false
	}
	leaf, err := x509.ParseCertificate(pair.Certificate[0])
	if err != nil {
		return false
	}
	return now.Add(renewWithin).Before(leaf.NotAfter)
}

// Generate writes a new self-signed certificate and key in PEM format,
// replacing existing files. hosts may mix DNS names and IP addresses.
func Generate(certPath, keyPath string, hosts []string, now time.Time) error {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("failed to generate serial: %w", err)
	}

	tmpl := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{Organization: []string{"Auction Analyzer Dev"}},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(Validity),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			tmpl.IPAddresses = append(tmpl.IPAddresses, ip)
		} else {
			tmpl.DNSNames = append(tmpl.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	if err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		return fmt.Errorf("failed to encode key: %w", err)
	}

	if err := writePEM(certPath, "CERTIFICATE", der, 0o644); err != nil {
		return err
	}
	return writePEM(keyPath, "EC PRIVATE KEY", keyDER, 0o600)
}

func writePEM(path, blockType string, der []byte, perm os.FileMode) error {
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
