package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnavailable means no wallet backend is configured, so balances (and
// with them percentage amounts) cannot be resolved.
var ErrUnavailable = errors.New("wallet balance unavailable")

// Wallet reports a user's spendable balance for an asset. Needed to turn
// percentage and "all" amounts into absolute quantities.
type Wallet interface {
	Balance(ctx context.Context, userID, asset, network string) (float64, error)
}

// RESTWallet queries a custodial wallet service.
type RESTWallet struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTWallet creates a wallet client with optional proxy support.
func NewRESTWallet(baseURL, apiKey, proxyURL string) *RESTWallet {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &RESTWallet{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
	}
}

func (w *RESTWallet) Balance(ctx context.Context, userID, asset, network string) (float64, error) {
	endpoint := fmt.Sprintf("%s/users/%s/balances?asset=%s&network=%s",
		w.BaseURL, url.PathEscape(userID), strings.ToUpper(asset), network)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	if w.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.APIKey)
	}

	resp, err := w.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch balance: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch balance: status %d", resp.StatusCode)
	}

	var decoded struct {
		Balance float64 `json:"balance,string"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("decode balance: %w", err)
	}
	return decoded.Balance, nil
}

// NoopWallet is used when no wallet service is configured; every balance
// query fails with ErrUnavailable.
type NoopWallet struct{}

func (NoopWallet) Balance(context.Context, string, string, string) (float64, error) {
	return 0, ErrUnavailable
}

// MockWallet returns fixed balances keyed by asset for testing.
type MockWallet struct {
	Balances map[string]float64
}

func (m *MockWallet) Balance(_ context.Context, _, asset, _ string) (float64, error) {
	if b, ok := m.Balances[strings.ToUpper(asset)]; ok {
		return b, nil
	}
	return 0, fmt.Errorf("no balance for %s", asset)
}
