package naming

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Resolver turns a domain-style handle ("alice.eth", "bob.crypto") into a
// wallet address on the given network.
type Resolver interface {
	Resolve(ctx context.Context, handle, network string) (string, error)
}

// Handle-ish input: contains a dot and no spaces.
func LooksLikeHandle(s string) bool {
	s = strings.TrimSpace(s)
	return strings.Contains(s, ".") && !strings.ContainsAny(s, " \t\n") && len(s) > 3
}

// HTTPResolver resolves handles through a naming-service REST API.
type HTTPResolver struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewHTTPResolver creates a resolver with optional proxy support.
func NewHTTPResolver(baseURL, apiKey, proxyURL string) *HTTPResolver {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &HTTPResolver{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
	}
}

// Resolve looks the handle up and returns the address recorded for the
// network, falling back to the handle's primary address.
func (r *HTTPResolver) Resolve(ctx context.Context, handle, network string) (string, error) {
	endpoint := fmt.Sprintf("%s/domains/%s", r.BaseURL, url.PathEscape(strings.ToLower(handle)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	if r.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.APIKey)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", handle, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("handle %s not registered", handle)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("resolve %s: status %d", handle, resp.StatusCode)
	}

	var decoded struct {
		Records map[string]string `json:"records"`
		Address string            `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode resolution for %s: %w", handle, err)
	}
	if addr, ok := decoded.Records[strings.ToLower(network)]; ok && addr != "" {
		return addr, nil
	}
	if decoded.Address != "" {
		return decoded.Address, nil
	}
	return "", fmt.Errorf("handle %s has no address for network %s", handle, network)
}

// MockResolver maps handles to fixed addresses for testing.
type MockResolver struct {
	Addresses map[string]string // handle -> address
	Err       error
}

func (m *MockResolver) Resolve(_ context.Context, handle, _ string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if addr, ok := m.Addresses[strings.ToLower(handle)]; ok {
		return addr, nil
	}
	return "", fmt.Errorf("handle %s not registered", handle)
}
