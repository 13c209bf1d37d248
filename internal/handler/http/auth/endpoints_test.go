package auth

import "testing"

func TestIsPublicEndpoint(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/health", true},
		{"/health/", true},
		{"/ready", true},
		{"/live", true},
		{"/metrics", true},
		{"/swagger/", true},
		{"/swagger/index.html", true},
		{"/healthcheck", false},
		{"/health/detail", false},
		{"/metrics-admin", false},
		{"/swagger", false},
		{"/v1/accounts", false},
		{"/v1/providers", false},
		{"/", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsPublicEndpoint(tt.path); got != tt.want {
				t.Errorf("IsPublicEndpoint(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
