package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// coinIDs maps asset symbols to CoinGecko coin ids.
var coinIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"USDC":  "usd-coin",
	"USDT":  "tether",
	"DAI":   "dai",
	"MATIC": "matic-network",
	"POL":   "matic-network",
	"SOL":   "solana",
	"AVAX":  "avalanche-2",
	"BNB":   "binancecoin",
	"ARB":   "arbitrum",
	"OP":    "optimism",
	"LTC":   "litecoin",
	"DOGE":  "dogecoin",
	"XMR":   "monero",
	"TRX":   "tron",
	"ATOM":  "cosmos",
	"DOT":   "polkadot",
	"ADA":   "cardano",
	"XRP":   "ripple",
}

// CoinGeckoFeed implements Feed using the CoinGecko simple-price API.
type CoinGeckoFeed struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewCoinGeckoFeed creates a feed with optional proxy support.
func NewCoinGeckoFeed(baseURL, apiKey, proxyURL string) *CoinGeckoFeed {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	return &CoinGeckoFeed{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *CoinGeckoFeed) Name() string { return "coingecko" }

// GetPrices returns current USD prices for the given symbols. Unknown
// symbols and any transport failure produce an empty or partial map.
func (f *CoinGeckoFeed) GetPrices(ctx context.Context, symbols []string) map[string]float64 {
	out := make(map[string]float64)
	for symbol, pc := range f.fetch(ctx, symbols, false) {
		out[symbol] = pc.Price
	}
	return out
}

// GetPricesWithChange returns current USD prices plus 24h change percent.
func (f *CoinGeckoFeed) GetPricesWithChange(ctx context.Context, symbols []string) map[string]PriceChange {
	return f.fetch(ctx, symbols, true)
}

func (f *CoinGeckoFeed) fetch(ctx context.Context, symbols []string, withChange bool) map[string]PriceChange {
	out := make(map[string]PriceChange)

	// Map symbols to ids, remembering the reverse for the response.
	idToSymbol := make(map[string]string)
	var ids []string
	for _, s := range symbols {
		s = strings.ToUpper(s)
		id, ok := coinIDs[s]
		if !ok {
			log.Printf("[WARN] pricefeed: no coin id for symbol %s", s)
			continue
		}
		if _, dup := idToSymbol[id]; !dup {
			ids = append(ids, id)
		}
		idToSymbol[id] = s
	}
	if len(ids) == 0 {
		return out
	}

	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=%t",
		f.BaseURL, strings.Join(ids, ","), withChange)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		log.Printf("[WARN] pricefeed: create request: %v", err)
		return out
	}
	if f.APIKey != "" {
		req.Header.Set("x-cg-demo-api-key", f.APIKey)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		log.Printf("[WARN] pricefeed: fetch prices: %v", err)
		return out
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("[WARN] pricefeed: fetch prices: status %d", resp.StatusCode)
		return out
	}

	var decoded map[string]struct {
		USD       float64 `json:"usd"`
		USDChange float64 `json:"usd_24h_change"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		log.Printf("[WARN] pricefeed: decode prices: %v", err)
		return out
	}

	for id, v := range decoded {
		symbol, ok := idToSymbol[id]
		if !ok {
			continue
		}
		out[symbol] = PriceChange{Price: v.USD, Change24h: v.USDChange}
	}
	return out
}
