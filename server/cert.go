// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

const (
	certFileName = "server.crt"
	keyFileName  = "server.key"

	certValidity = 10 * 365 * 24 * time.Hour
)

// loadOrGenerateCert returns the server's long-lived self-signed TLS
// certificate, generating and persisting a new one on first use. The PEM
// certificate is also returned for publication in the endpoint record
func loadOrGenerateCert(
	dataDir string,
	host string,
) (tls.Certificate, string, error) {
	certFile := filepath.Join(dataDir, certFileName)
	keyFile := filepath.Join(dataDir, keyFileName)
	if _, err := os.Stat(certFile); err == nil {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return tls.Certificate{}, "", fmt.Errorf(
				"load certificate: %w",
				err,
			)
		}
		certPem, err := os.ReadFile(certFile)
		if err != nil {
			return tls.Certificate{}, "", err
		}
		return cert, string(certPem), nil
	}
	certPemBytes, keyPemBytes, err := generateCert(host)
	if err != nil {
		return tls.Certificate{}, "", fmt.Errorf(
			"generate certificate: %w",
			err,
		)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return tls.Certificate{}, "", err
	}
	if err := os.WriteFile(certFile, certPemBytes, 0o600); err != nil {
		return tls.Certificate{}, "", err
	}
	if err := os.WriteFile(keyFile, keyPemBytes, 0o600); err != nil {
		return tls.Certificate{}, "", err
	}
	cert, err := tls.X509KeyPair(certPemBytes, keyPemBytes)
	if err != nil {
		return tls.Certificate{}, "", err
	}
	return cert, string(certPemBytes), nil
}

func generateCert(host string) ([]byte, []byte, error) {
	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, err
	}
	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName: "strum distributor",
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(certValidity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
	}
	if ip := net.ParseIP(host); ip != nil {
		template.IPAddresses = append(template.IPAddresses, ip)
	} else if host != "" && host != "localhost" {
		template.DNSNames = append(template.DNSNames, host)
	}
	der, err := x509.CreateCertificate(
		rand.Reader,
		&template,
		&template,
		pubKey,
		privKey,
	)
	if err != nil {
		return nil, nil, err
	}
	keyDer, err := x509.MarshalPKCS8PrivateKey(privKey)
	if err != nil {
		return nil, nil, err
	}
	certPem := pem.EncodeToMemory(
		&pem.Block{Type: "CERTIFICATE", Bytes: der},
	)
	keyPem := pem.EncodeToMemory(
		&pem.Block{Type: "PRIVATE KEY", Bytes: keyDer},
	)
	return certPem, keyPem, nil
}
