package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Screening pipeline defaults
	v.SetDefault("screening.fuzzyThreshold", 0.85)
	v.SetDefault("screening.maxDocumentSize", 25*1024*1024) // 25MB
	v.SetDefault("screening.fetchTimeout", 30*time.Second)
	v.SetDefault("screening.batchConcurrency", 4)

	// Synonym table defaults
	v.SetDefault("screening.synonyms.file", "")
	v.SetDefault("screening.synonyms.autoReload", false)
	v.SetDefault("screening.synonyms.debounceDelay", time.Second)

	// OCR fallback defaults
	v.SetDefault("screening.ocr.pdftoppm", "pdftoppm")
	v.SetDefault("screening.ocr.tesseract", "tesseract")
	v.SetDefault("screening.ocr.language", "eng")
	v.SetDefault("screening.ocr.dpi", 144) // 2x the 72 DPI PDF user space
	v.SetDefault("screening.ocr.workers", 4)
	v.SetDefault("screening.ocr.maxPages", 0)

	// OCR circuit breaker defaults
	v.SetDefault("screening.ocr.circuitBreaker.enabled", true)
	v.SetDefault("screening.ocr.circuitBreaker.maxRequests", 3)
	v.SetDefault("screening.ocr.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("screening.ocr.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("screening.ocr.circuitBreaker.minRequests", 3)
	v.SetDefault("screening.ocr.circuitBreaker.failureThreshold", 0.6)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 60*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	// TLS Configuration defaults
	v.SetDefault("server.tls.mode", "disabled") // disabled, server, mutual
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.clientAuthPolicy", "require")
	// API Authentication defaults
	v.SetDefault("server.apiKeys", []string{})
	// Rate limiting defaults
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})

	// Result sink database
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.url", "")

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.serviceName", "cvscreen")
	v.SetDefault("observability.serviceVersion", "dev")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 30*time.Second)
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", false)
	v.SetDefault("observability.prometheus.enabled", false)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "localhost:4317")
	v.SetDefault("observability.otlp.insecure", true)
}
