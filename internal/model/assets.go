package model

import "strings"

// defaultNetworks maps well-known asset symbols to their home network.
// Used when a command names an asset without a chain.
var defaultNetworks = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"USDC":  "ethereum",
	"USDT":  "ethereum",
	"DAI":   "ethereum",
	"MATIC": "polygon",
	"POL":   "polygon",
	"SOL":   "solana",
	"AVAX":  "avalanche",
	"BNB":   "bsc",
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

// DefaultNetwork returns the home network for an asset symbol, or "" if the
// asset is not known.
func DefaultNetwork(asset string) string {
	return defaultNetworks[strings.ToUpper(asset)]
}

// addressPatterns holds per-network raw address shape checks. These are
// format checks only, not checksum validation.
var addressPatterns = map[string]func(string) bool{
	"bitcoin": func(a string) bool {
		return (strings.HasPrefix(a, "bc1") && len(a) >= 42 && len(a) <= 62) ||
			((strings.HasPrefix(a, "1") || strings.HasPrefix(a, "3")) && len(a) >= 26 && len(a) <= 35)
	},
	"ethereum":  isHex40,
	"polygon":   isHex40,
	"arbitrum":  isHex40,
	"optimism":  isHex40,
	"avalanche": isHex40,
	"bsc":       isHex40,
	"solana": func(a string) bool {
		return len(a) >= 32 && len(a) <= 44 && isBase58(a)
	},
	"litecoin": func(a string) bool {
		return strings.HasPrefix(a, "ltc1") || strings.HasPrefix(a, "L") || strings.HasPrefix(a, "M")
	},
	"tron": func(a string) bool {
		return strings.HasPrefix(a, "T") && len(a) == 34
	},
}

func isHex40(a string) bool {
	if !strings.HasPrefix(a, "0x") || len(a) != 42 {
		return false
	}
	for _, r := range a[2:] {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')) {
			return false
		}
	}
	return true
}

func isBase58(a string) bool {
	for _, r := range a {
		if strings.ContainsRune("0OIl", r) {
			return false
		}
		if !((r >= '1' && r <= '9') || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')) {
			return false
		}
	}
	return true
}

// ValidAddress checks a raw address against the network's expected shape.
// Unknown networks fall back to a permissive length check.
func ValidAddress(network, address string) bool {
	address = strings.TrimSpace(address)
	if address == "" {
		return false
	}
	if check, ok := addressPatterns[strings.ToLower(network)]; ok {
		return check(address)
	}
	return len(address) >= 20 && !strings.ContainsAny(address, " \t\n")
}
