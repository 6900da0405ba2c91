package config

import "fmt"

// ValidateTLSConfig checks the TLS section for consistency.
func (c *Config) ValidateTLSConfig() error {
	tls := c.Server.TLS

	switch tls.Mode {
	case "disabled":
		// No validation needed for disabled mode
		return nil
	case "server":
		if tls.CertFile == "" || tls.KeyFile == "" {
			return fmt.Errorf("TLS certificate and key files are required for server mode")
		}
	case "mutual":
		if tls.CertFile == "" || tls.KeyFile == "" {
			return fmt.Errorf("TLS certificate and key files are required for mutual mode")
		}
		if tls.CAFile == "" {
			return fmt.Errorf("CA certificate file is required for mutual TLS mode")
		}
		switch tls.ClientAuthPolicy {
		case "require", "request", "verify":
			// Valid policies
		case "":
			// Default to require for mutual mode
		default:
			return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", tls.ClientAuthPolicy)
		}
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tls.Mode)
	}

	// Validate TLS version
	switch tls.MinVersion {
	case "", "1.2", "1.3":
		// Valid versions (empty defaults to 1.2)
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}

	return nil
}
