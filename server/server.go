// Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package server

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/wso2/ai-agent-management-platform/iaa-auth-service/config"
)

// Server is the public HTTP(S) listener of the auth service
type Server struct {
	server *http.Server
	cfg    *config.Config
}

// NewServer creates the server; nothing is bound until Start
func NewServer(cfg *config.Config, handler http.Handler) *Server {
	return &Server{
		cfg: cfg,
		server: &http.Server{
			Addr:           fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
			Handler:        handler,
			ReadTimeout:    time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
			WriteTimeout:   time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
			IdleTimeout:    time.Duration(cfg.IdleTimeoutSeconds) * time.Second,
			MaxHeaderBytes: cfg.MaxHeaderBytes,
		},
	}
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start blocks serving HTTP, or HTTPS when TLS is enabled.
// It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	if !s.cfg.TLS.Enabled {
		slog.Info("Starting HTTP server", "address", s.server.Addr)
		return s.server.ListenAndServe()
	}

	cert, err := LoadOrCreateCertificate(s.cfg.TLS.CertDir)
	if err != nil {
		return err
	}
	s.server.TLSConfig = &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	slog.Info("Starting HTTPS server",
		"address", s.server.Addr,
		"certDir", s.cfg.TLS.CertDir)
	return s.server.ListenAndServeTLS("", "")
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(shutdownCtx context.Context) error {
	return s.server.Shutdown(shutdownCtx)
}

// LoadOrCreateCertificate loads cert.pem/key.pem from certDir, generating a
// self-signed pair for localhost when they are missing or unreadable
func LoadOrCreateCertificate(certDir string) (tls.Certificate, error) {
	certPath := filepath.Join(certDir, "cert.pem")
	keyPath := filepath.Join(certDir, "key.pem")

	if _, certErr := os.Stat(certPath); certErr == nil {
		if _, keyErr := os.Stat(keyPath); keyErr == nil {
			cert, err := tls.LoadX509KeyPair(certPath, keyPath)
			if err == nil {
				slog.Info("Using existing certificates", "certDir", certDir)
				return cert, nil
			}
			slog.Warn("Failed to load existing certificates", "error", err)
		}
	}

	slog.Info("Generating self-signed certificate", "certDir", certDir)
	if err := os.MkdirAll(certDir, 0o700); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create cert directory: %w", err)
	}
	cert, err := generateSelfSignedCert(certPath, keyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate self-signed certificate: %w", err)
	}
	return cert, nil
}

func generateSelfSignedCert(certPath, keyPath string) (tls.Certificate, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return tls.Certificate{}, err
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return tls.Certificate{}, err
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"IAA Auth Service Dev"},
			CommonName:   "localhost",
		},
		NotBefore:   now.Add(-time.Minute),
		NotAfter:    now.Add(365 * 24 * time.Hour),
		KeyUsage:    x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses: []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		DNSNames:    []string{"localhost"},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return tls.Certificate{}, err
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	if err := os.WriteFile(certPath, certPEM, 0o644); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to save certificate: %w", err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to save private key: %w", err)
	}
	slog.Info("Saved certificate", "certPath", certPath, "keyPath", keyPath)

	return tls.X509KeyPair(certPEM, keyPEM)
}
