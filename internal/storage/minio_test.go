package storage

import (
	"testing"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/config"
)

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in         string
		useSSL     bool
		wantHost   string
		wantSecure bool
	}{
		{"https://s3.example.com/", false, "s3.example.com", true},
		{"http://localhost:9000", true, "localhost:9000", false},
		{"minio.internal:9000", false, "minio.internal:9000", false},
		{"//bucket.host", true, "bucket.host", true},
	}
	for _, tt := range tests {
		host, secure := normalizeEndpoint(tt.in, tt.useSSL)
		if host != tt.wantHost || secure != tt.wantSecure {
			t.Errorf("normalizeEndpoint(%q, %v) = %q, %v; want %q, %v",
				tt.in, tt.useSSL, host, secure, tt.wantHost, tt.wantSecure)
		}
	}
}

func TestNewMinioClientValidation(t *testing.T) {
	valid := config.StorageConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "exports",
	}

	if _, err := NewMinioClient(valid); err != nil {
		t.Fatalf("expected valid config to build a client, got %v", err)
	}

	missing := []func(c *config.StorageConfig){
		func(c *config.StorageConfig) { c.Endpoint = "" },
		func(c *config.StorageConfig) { c.SecretKey = "" },
		func(c *config.StorageConfig) { c.Bucket = "" },
	}
	for i, mutate := range missing {
		cfg := valid
		mutate(&cfg)
		if _, err := NewMinioClient(cfg); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}
