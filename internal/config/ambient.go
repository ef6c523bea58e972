package config

import "os"

// S3SSEConfig configures server-side encryption for S3-backed object storage.
type S3SSEConfig struct {
	Mode     string // "", "sse-s3", or "sse-kms"
	KMSKeyID string
}

// S3Config configures an S3-compatible object store used to persist
// converted_docs/ copies when CONVERTED_DOCS_BACKEND=s3 (spec §6's
// persisted-state layout, extended with an optional remote backend).
type S3Config struct {
	Bucket                string
	Prefix                string
	Region                string
	Endpoint              string
	AccessKey             string
	SecretKey             string
	UsePathStyle          bool
	TLSInsecureSkipVerify bool
	SSE                   S3SSEConfig
}

// ObsConfig configures OpenTelemetry export for traces and metrics.
type ObsConfig struct {
	OTLP           string
	ServiceName    string
	ServiceVersion string
	Environment    string
}

// ObjectStoreConfig selects and configures the converted_docs/ persistence backend.
type ObjectStoreConfig struct {
	Backend string // "fs" (default), "memory", or "s3"
	S3      S3Config
}

func loadObjectStore() ObjectStoreConfig {
	cfg := ObjectStoreConfig{Backend: firstNonEmpty(os.Getenv("CONVERTED_DOCS_BACKEND"), "fs")}
	cfg.S3.Bucket = os.Getenv("CONVERTED_DOCS_S3_BUCKET")
	cfg.S3.Prefix = os.Getenv("CONVERTED_DOCS_S3_PREFIX")
	cfg.S3.Region = firstNonEmpty(os.Getenv("CONVERTED_DOCS_S3_REGION"), "us-east-1")
	cfg.S3.Endpoint = os.Getenv("CONVERTED_DOCS_S3_ENDPOINT")
	cfg.S3.AccessKey = os.Getenv("CONVERTED_DOCS_S3_ACCESS_KEY")
	cfg.S3.SecretKey = os.Getenv("CONVERTED_DOCS_S3_SECRET_KEY")
	cfg.S3.UsePathStyle = os.Getenv("CONVERTED_DOCS_S3_PATH_STYLE") == "true"
	cfg.S3.SSE.Mode = os.Getenv("CONVERTED_DOCS_S3_SSE_MODE")
	cfg.S3.SSE.KMSKeyID = os.Getenv("CONVERTED_DOCS_S3_SSE_KMS_KEY_ID")
	return cfg
}

func loadObservability() ObsConfig {
	return ObsConfig{
		OTLP:           os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:    firstNonEmpty(os.Getenv("OTEL_SERVICE_NAME"), "vellum"),
		ServiceVersion: firstNonEmpty(os.Getenv("OTEL_SERVICE_VERSION"), "dev"),
		Environment:    firstNonEmpty(os.Getenv("OTEL_ENVIRONMENT"), "development"),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
