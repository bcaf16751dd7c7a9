package s3

import "testing"

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		raw        string
		useSSL     bool
		wantHost   string
		wantSecure bool
	}{
		{raw: "localhost:9000", useSSL: false, wantHost: "localhost:9000", wantSecure: false},
		{raw: "localhost:9000", useSSL: true, wantHost: "localhost:9000", wantSecure: true},
		{raw: "https://s3.example.com/", useSSL: false, wantHost: "s3.example.com", wantSecure: true},
		{raw: " http://minio:9000 ", useSSL: true, wantHost: "minio:9000", wantSecure: false},
		{raw: "", useSSL: false, wantHost: "", wantSecure: false},
	}

	for _, tt := range tests {
		host, secure := normalizeEndpoint(tt.raw, tt.useSSL)
		if host != tt.wantHost || secure != tt.wantSecure {
			t.Fatalf("normalizeEndpoint(%q, %v) = (%q, %v), want (%q, %v)", tt.raw, tt.useSSL, host, secure, tt.wantHost, tt.wantSecure)
		}
	}
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	if _, err := NewClient(Config{Endpoint: "  "}); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
}
