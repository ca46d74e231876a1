package metadata

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"

	"market/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	proxies := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	tests := []struct {
		name    string
		proxies []netip.Prefix
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "ipv4 remote addr", remote: "192.0.2.10:5555", want: "192.0.2.10"},
		{name: "ipv6 remote addr", remote: "[::1]:5555", want: "::1"},
		{name: "no address", remote: "", want: "unknown"},
		{name: "forwarded header ignored without trusted proxies", headers: map[string]string{"X-Forwarded-For": "203.0.113.7"}, remote: "192.0.2.10:1234", want: "192.0.2.10"},
		{name: "real ip ignored without trusted proxies", headers: map[string]string{"X-Real-IP": "203.0.113.7"}, remote: "192.0.2.10:1234", want: "192.0.2.10"},
		{name: "forwarded header ignored from untrusted peer", proxies: proxies, headers: map[string]string{"X-Forwarded-For": "203.0.113.7"}, remote: "192.0.2.10:1234", want: "192.0.2.10"},
		{name: "trusted proxy forwards client", proxies: proxies, headers: map[string]string{"X-Forwarded-For": "203.0.113.7"}, remote: "10.0.0.2:1234", want: "203.0.113.7"},
		{name: "spoofed left entry is skipped", proxies: proxies, headers: map[string]string{"X-Forwarded-For": "1.2.3.4, 203.0.113.7, 10.0.0.1"}, remote: "10.0.0.2:1234", want: "203.0.113.7"},
		{name: "trusted proxy real ip", proxies: proxies, headers: map[string]string{"X-Real-IP": " 198.51.100.4 "}, remote: "10.0.0.2:1234", want: "198.51.100.4"},
		{name: "garbage header falls back to peer", proxies: proxies, headers: map[string]string{"X-Forwarded-For": "not-an-ip"}, remote: "10.0.0.2:1234", want: "10.0.0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIPFromRequest(r, tt.proxies))
		})
	}
}

func TestClientMetadataMiddleware(t *testing.T) {
	var gotIP, gotUA string
	h := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = requestcontext.ClientIP(r.Context())
		gotUA = requestcontext.UserAgent(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1000"
	r.Header.Set("User-Agent", "market-test")
	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "192.0.2.1", gotIP)
	assert.Equal(t, "market-test", gotUA)
}
