package internal

import (
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Auth.AuthEnabled() {
		t.Error("auth must default to disabled")
	}
	if got := cfg.App.HTTP.Address(); got != ":8080" {
		t.Errorf("address = %q", got)
	}
}

func TestAuthConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     AuthConfig
		wantErr bool
	}{
		{"empty mode defaults to disabled", AuthConfig{}, false},
		{"disabled", AuthConfig{Mode: AuthModeDisabled}, false},
		{"token with token", AuthConfig{Mode: AuthModeToken, Token: "s3cret"}, false},
		{"token without token", AuthConfig{Mode: AuthModeToken}, true},
		{"unknown mode", AuthConfig{Mode: "oauth"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestNotesConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     NotesConfig
		wantErr bool
	}{
		{"valid", NotesConfig{BaseDir: "./notes", Tenants: []string{"acme", "beta-corp"}}, false},
		{"missing base dir", NotesConfig{Tenants: []string{"acme"}}, true},
		{"zero tenants", NotesConfig{BaseDir: "./notes"}, true},
		{"empty tenant id", NotesConfig{BaseDir: "./notes", Tenants: []string{""}}, true},
		{"tenant with slash", NotesConfig{BaseDir: "./notes", Tenants: []string{"a/b"}}, true},
		{"tenant with leading dot", NotesConfig{BaseDir: "./notes", Tenants: []string{".hidden"}}, true},
		{"tenant with dots inside", NotesConfig{BaseDir: "./notes", Tenants: []string{"acme.v2"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestApplicationConfigLogFormat(t *testing.T) {
	cfg := ApplicationConfig{HTTP: HTTPConfig{Port: 8080}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty log format should default: %v", err)
	}
	if cfg.LogFormat != LogFormatJSON {
		t.Errorf("log format = %q, want json", cfg.LogFormat)
	}

	cfg = ApplicationConfig{LogFormat: "xml", HTTP: HTTPConfig{Port: 8080}}
	if err := cfg.Validate(); err == nil {
		t.Error("unknown log format must fail validation")
	}
}

func TestHTTPConfigValidate(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := HTTPConfig{Port: port}
		if err := cfg.Validate(); err == nil {
			t.Errorf("port %d should fail validation", port)
		}
	}
}
