package clientip_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/dimreg/pkg/clientip"
)

func TestGetIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{"remote addr", nil, "192.0.2.10:5000", "192.0.2.10"},
		{"cloudflare wins", map[string]string{"CF-Connecting-IP": "203.0.113.1", "X-Real-IP": "198.51.100.2"}, "10.0.0.1:80", "203.0.113.1"},
		{"leftmost forwarded entry", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.2, 10.0.0.3"}, "10.0.0.1:80", "203.0.113.5"},
		{"invalid header skipped", map[string]string{"X-Forwarded-For": "bogus", "X-Real-IP": "198.51.100.7"}, "10.0.0.1:80", "198.51.100.7"},
		{"unspecified address skipped", map[string]string{"X-Real-IP": "0.0.0.0"}, "10.0.0.1:80", "10.0.0.1"},
		{"ipv6 normalized", map[string]string{"X-Real-IP": "2001:DB8::1"}, "10.0.0.1:80", "2001:db8::1"},
		{"unparseable remote addr returned as is", nil, "pipe", "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.GetIP(r))
		})
	}
}
