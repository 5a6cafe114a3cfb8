package config

import (
	"reflect"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "ENV", "JWT_SECRET", "LOG_RETENTION_DAYS", "COOKIE_SECURE", "CORS_ALLOWED_ORIGINS", "TRUST_PROXY_HEADERS"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8000" {
		t.Errorf("Port: got %q, want 8000", cfg.Port)
	}
	if cfg.JWTSecret != DefaultJWTSecret {
		t.Errorf("JWTSecret: got %q", cfg.JWTSecret)
	}
	if cfg.CookieSecure {
		t.Error("CookieSecure should default to false outside prod")
	}
	if cfg.LogRetentionDays != 0 || cfg.RetentionCron != "@daily" {
		t.Errorf("retention defaults: %d %q", cfg.LogRetentionDays, cfg.RetentionCron)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Errorf("CORSAllowedOrigins: got %v, want nil", cfg.CORSAllowedOrigins)
	}
	if cfg.TrustProxyHeaders {
		t.Error("TrustProxyHeaders should default to false")
	}
}

func TestLoad_ProdCookieSecure(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("COOKIE_SECURE", "")
	if !Load().CookieSecure {
		t.Error("CookieSecure should default to true in prod")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"dev default secret", Config{Env: "dev", JWTSecret: DefaultJWTSecret}, false},
		{"prod default secret", Config{Env: "prod", JWTSecret: DefaultJWTSecret}, true},
		{"prod custom secret", Config{Env: "prod", JWTSecret: "long-random-value"}, false},
		{"half tls", Config{Env: "dev", JWTSecret: "x", TLSCertFile: "cert.pem"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() err=%v, wantErr=%v", err, tc.wantErr)
			}
		})
	}
}

func TestParseCORSOrigins(t *testing.T) {
	got := parseCORSOrigins(" http://a.example , ,http://b.example")
	want := []string{"http://a.example", "http://b.example"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDatabaseURL(t *testing.T) {
	cfg := Config{DBUser: "u", DBPass: "p", DBHost: "h", DBPort: "5432", DBName: "d", DBSSLMode: "disable"}
	if got := cfg.DatabaseURL(); got != "postgres://u:p@h:5432/d?sslmode=disable" {
		t.Errorf("DatabaseURL: got %q", got)
	}
}

func TestDatabaseURL_EscapesPassword(t *testing.T) {
	cfg := Config{DBUser: "u", DBPass: "p@ss/w", DBHost: "h", DBPort: "5432", DBName: "d", DBSSLMode: "require"}
	if got := cfg.DatabaseURL(); got != "postgres://u:p%40ss%2Fw@h:5432/d?sslmode=require" {
		t.Errorf("DatabaseURL: got %q", got)
	}
}
