package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SideShiftVenue implements Venue against a SideShift-style REST API.
type SideShiftVenue struct {
	BaseURL     string
	Secret      string
	AffiliateID string
	Client      *http.Client
}

// NewSideShiftVenue creates a venue client with optional proxy support.
func NewSideShiftVenue(baseURL, secret, affiliateID, proxyURL string) *SideShiftVenue {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = "https://sideshift.ai/api/v2"
	}
	return &SideShiftVenue{
		BaseURL:     baseURL,
		Secret:      secret,
		AffiliateID: affiliateID,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (v *SideShiftVenue) Name() string { return "sideshift" }

// CreateQuote requests a fixed-rate quote. A venue-side rejection arrives in
// the quote's Error field with a nil error, so the caller can show it
// verbatim and stay retryable.
func (v *SideShiftVenue) CreateQuote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	payload := map[string]any{
		"depositCoin":    strings.ToLower(req.FromAsset),
		"depositNetwork": req.FromNetwork,
		"settleCoin":     strings.ToLower(req.ToAsset),
		"settleNetwork":  req.ToNetwork,
		"depositAmount":  fmt.Sprintf("%g", req.Amount),
	}
	if v.AffiliateID != "" {
		payload["affiliateId"] = v.AffiliateID
	}

	var quote Quote
	if err := v.post(ctx, "/quotes", payload, &quote); err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}
	return &quote, nil
}

// CreateOrder places a fixed shift against a previously created quote.
func (v *SideShiftVenue) CreateOrder(ctx context.Context, quoteID, settleAddress, refundAddress string) (*Order, error) {
	payload := map[string]any{
		"quoteId":       quoteID,
		"settleAddress": settleAddress,
	}
	if refundAddress != "" {
		payload["refundAddress"] = refundAddress
	}
	if v.AffiliateID != "" {
		payload["affiliateId"] = v.AffiliateID
	}

	var order Order
	if err := v.post(ctx, "/shifts/fixed", payload, &order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return &order, nil
}

// GetOrderStatus polls a placed order.
func (v *SideShiftVenue) GetOrderStatus(ctx context.Context, orderID string) (*OrderState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.BaseURL+"/shifts/"+orderID, nil)
	if err != nil {
		return nil, err
	}
	resp, err := v.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get order status: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get order status: status %d, body: %s", resp.StatusCode, string(body))
	}
	var state OrderState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, fmt.Errorf("decode order status: %w", err)
	}
	return &state, nil
}

func (v *SideShiftVenue) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if v.Secret != "" {
		req.Header.Set("x-sideshift-secret", v.Secret)
	}

	resp, err := v.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		// Venue errors arrive as {"error":{"message":"..."}}.
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("venue: %s", apiErr.Error.Message)
		}
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
