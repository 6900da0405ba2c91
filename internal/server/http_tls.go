package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
)

// configureTLS sets up TLS configuration based on the mode
func (s *Server) configureTLS(httpServer *http.Server) error {
	switch s.TLSConfig.Mode {
	case "server", "mutual":
		tlsConfig, err := s.buildTLSConfig()
		if err != nil {
			return fmt.Errorf("failed to set up TLS: %w", err)
		}
		httpServer.TLSConfig = tlsConfig
		return nil
	case "disabled", "":
		return nil
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", s.TLSConfig.Mode)
	}
}

// buildTLSConfig creates the TLS configuration
func (s *Server) buildTLSConfig() (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(s.TLSConfig.CertFile, s.TLSConfig.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load server certificate: %w", err)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	if s.TLSConfig.MinVersion == "1.3" {
		tlsConfig.MinVersion = tls.VersionTLS13
	}

	if s.TLSConfig.Mode == "mutual" {
		if err := s.configureClientAuthentication(tlsConfig); err != nil {
			return nil, err
		}
	}

	return tlsConfig, nil
}

// configureClientAuthentication sets up the client CA pool and auth policy
func (s *Server) configureClientAuthentication(tlsConfig *tls.Config) error {
	caCert, err := os.ReadFile(s.TLSConfig.CAFile)
	if err != nil {
		return fmt.Errorf("failed to read CA certificate: %w", err)
	}

	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caCert) {
		return fmt.Errorf("failed to parse CA certificate from %s", s.TLSConfig.CAFile)
	}
	tlsConfig.ClientCAs = caPool

	switch s.TLSConfig.ClientAuthPolicy {
	case "request":
		tlsConfig.ClientAuth = tls.RequestClientCert
	case "verify":
		tlsConfig.ClientAuth = tls.VerifyClientCertIfGiven
	case "require", "":
		tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
	default:
		return fmt.Errorf("invalid client auth policy: %s", s.TLSConfig.ClientAuthPolicy)
	}

	return nil
}
