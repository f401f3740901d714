package parser

import (
	"regexp"
	"strconv"
	"strings"

	"SwapSentinel/internal/model"
)

// Matcher weights. Sized so a distinctive single clause (exclusion,
// allocation list) clears the threshold on its own, while a bare token pair
// needs at least one amount signal alongside it.
const (
	weightExclusion   = 50
	weightAllocations = 50
	weightPercentage  = 30
	weightQuoteAmount = 30
	weightTokenPair   = 40
	weightBareAmount  = 20
	weightConditional = 30
	weightIntentWord  = 10
)

// stopwords are short words the token pattern can match but that are never
// asset symbols.
var stopwords = map[string]bool{
	"of": true, "my": true, "the": true, "a": true, "an": true, "to": true,
	"into": true, "for": true, "from": true, "and": true, "or": true,
	"if": true, "when": true, "is": true, "at": true, "on": true, "in": true,
	"with": true, "all": true, "every": true, "except": true, "worth": true,
	"price": true, "above": true, "below": true, "over": true, "under": true,
	"half": true, "me": true, "it": true, "chain": true, "now": true,
	"then": true, "want": true, "need": true, "wanna": true, "some": true,
}

// actionVerbs are leading verbs the generic pair pattern can mistake for a
// source token.
var actionVerbs = map[string]bool{
	"swap": true, "convert": true, "trade": true, "sell": true, "buy": true,
	"send": true, "bridge": true, "move": true, "turn": true, "change": true,
	"get": true, "put": true, "make": true, "create": true, "set": true,
	"place": true, "go": true, "give": true,
}

// chainNames are network identifiers that can follow "on".
var chainNames = map[string]bool{
	"ethereum": true, "bitcoin": true, "polygon": true, "solana": true,
	"arbitrum": true, "optimism": true, "avalanche": true, "base": true,
	"bsc": true, "tron": true, "litecoin": true, "dogecoin": true,
	"cosmos": true, "cardano": true, "ripple": true, "monero": true,
	"polkadot": true, "mainnet": true,
}

func validToken(s string) bool {
	if s == "" || stopwords[s] || actionVerbs[s] || chainNames[s] {
		return false
	}
	return true
}

var (
	prepRe      = regexp.MustCompile(`\b(to|into|for)\b`)
	tokenRe     = regexp.MustCompile(`\b[a-z][a-z0-9]{1,5}\b`)
	onChainRe   = regexp.MustCompile(`\bon\s+[a-z][a-z0-9]+\b`)
	exclusionRe = regexp.MustCompile(`\b(?:all|everything)\b(?:\s+(?:of\s+)?(?:my\s+)?([a-z][a-z0-9]{1,5}))?\s+except\s+\$?(\d+(?:\.\d+)?)\s+([a-z][a-z0-9]{1,5})\b`)
	allocRe     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%\s*(?:to\s+|into\s+|in\s+)?([a-z][a-z0-9]{1,5})\b`)
	percentRe   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%(?:\s+of)?(?:\s+my)?(?:\s+([a-z][a-z0-9]{1,5}))?`)
	halfRe      = regexp.MustCompile(`\b(half|quarter)(?:\s+of)?(?:\s+my)?\s+([a-z][a-z0-9]{1,5})\b`)
	allRe       = regexp.MustCompile(`\b(?:all|everything|max|maximum)\b(?:\s+(?:of\s+)?(?:my\s+)?([a-z][a-z0-9]{1,5}))?`)
	worthFwdRe  = regexp.MustCompile(`\b([a-z][a-z0-9]{1,5})\s+worth\s+(?:of\s+)?\$?(\d+(?:\.\d+)?)\s*([a-z][a-z0-9]{1,5})?`)
	worthRevRe  = regexp.MustCompile(`\$?(\d+(?:\.\d+)?)\s+([a-z][a-z0-9]{1,5})\s+worth\s+of\s+([a-z][a-z0-9]{1,5})\b`)
	worthUsdRe  = regexp.MustCompile(`\$(\d+(?:\.\d+)?)\s+worth\s+of\s+([a-z][a-z0-9]{1,5})\b`)
	fromPairRe  = regexp.MustCompile(`\bfrom\s+([a-z][a-z0-9]{1,5})(?:\s+on\s+([a-z][a-z0-9]+))?\s+(?:to|into)\s+([a-z][a-z0-9]{1,5})(?:\s+on\s+([a-z][a-z0-9]+))?\b`)
	pairRe      = regexp.MustCompile(`\b([a-z][a-z0-9]{1,5})(?:\s+on\s+([a-z][a-z0-9]+))?\s+(?:to|into|for)\s+([a-z][a-z0-9]{1,5})(?:\s+on\s+([a-z][a-z0-9]+))?\b`)
	bareAmtRe   = regexp.MustCompile(`\$?(\d+(?:\.\d+)?)\s+([a-z][a-z0-9]{1,5})\b`)
	condRe      = regexp.MustCompile(`\b(?:if|when)\s+(?:([a-z][a-z0-9]{1,5})\s+)?price\s+(?:is\s+)?(?:goes\s+)?(above|below|over|under|>|<)\s*\$?(\d+(?:\.\d+)?)\s*([km])?\b`)
)

// rejectMultiSource aborts the parse when more than one source asset is
// named before a to/into/for preposition. It runs first because a positive
// match invalidates everything the later matchers would extract.
func rejectMultiSource(p *parse) int {
	prefix := p.text
	if loc := prepRe.FindStringIndex(p.text); loc != nil {
		prefix = p.text[:loc[0]]
	}
	// Quote-amount and exclusion clauses legitimately name a second asset;
	// chain mentions are not assets. Strip all three before counting.
	prefix = worthRevRe.ReplaceAllString(prefix, " ")
	prefix = worthFwdRe.ReplaceAllString(prefix, " ")
	prefix = exclusionRe.ReplaceAllString(prefix, " ")
	prefix = onChainRe.ReplaceAllString(prefix, " ")

	seen := map[string]bool{}
	for _, tok := range tokenRe.FindAllString(prefix, -1) {
		if validToken(tok) && model.DefaultNetwork(tok) != "" {
			seen[tok] = true
		}
	}
	if len(seen) > 1 {
		p.abort = true
		p.abortMsg = ErrMultipleSources
	}
	return 0
}

// matchExclusion handles "all X except N Y". The excluded token doubles as
// the source asset when none was stated.
func matchExclusion(p *parse) int {
	m := exclusionRe.FindStringSubmatch(p.text)
	if m == nil {
		return 0
	}
	p.swap.AmountType = model.AmountAll
	p.swap.ExcludeAmount = parseFloat(m[2])
	p.swap.ExcludeToken = strings.ToUpper(m[3])
	if p.swap.FromAsset == "" {
		if validToken(m[1]) {
			p.swap.FromAsset = strings.ToUpper(m[1])
		} else {
			p.swap.FromAsset = p.swap.ExcludeToken
		}
	}
	return weightExclusion
}

// matchAllocations fires when two or more "N% TOKEN" pairs appear, which
// marks a portfolio fan-out rather than a single percentage amount.
func matchAllocations(p *parse) int {
	var allocs []model.Allocation
	for _, m := range allocRe.FindAllStringSubmatch(p.text, -1) {
		if !validToken(m[2]) {
			continue
		}
		asset := strings.ToUpper(m[2])
		allocs = append(allocs, model.Allocation{
			ToAsset:    asset,
			ToChain:    model.DefaultNetwork(asset),
			Percentage: parseFloat(m[1]),
		})
	}
	if len(allocs) < 2 {
		return 0
	}
	p.allocations = allocs
	p.intentHint = model.IntentPortfolio
	return weightAllocations
}

// matchPercentage handles "N% of X", "half of X", "quarter of X" and a bare
// all/max. Skipped once an amount type is already set.
func matchPercentage(p *parse) int {
	if p.swap.AmountType != model.AmountUnset || len(p.allocations) >= 2 {
		return 0
	}
	if m := percentRe.FindStringSubmatch(p.text); m != nil {
		p.swap.AmountType = model.AmountPercentage
		p.swap.Amount = parseFloat(m[1])
		if p.swap.FromAsset == "" && validToken(m[2]) {
			p.swap.FromAsset = strings.ToUpper(m[2])
		}
		return weightPercentage
	}
	if m := halfRe.FindStringSubmatch(p.text); m != nil {
		p.swap.AmountType = model.AmountPercentage
		if m[1] == "half" {
			p.swap.Amount = 50
		} else {
			p.swap.Amount = 25
		}
		if p.swap.FromAsset == "" && validToken(m[2]) {
			p.swap.FromAsset = strings.ToUpper(m[2])
		}
		return weightPercentage
	}
	if m := allRe.FindStringSubmatch(p.text); m != nil {
		p.swap.AmountType = model.AmountAll
		if p.swap.FromAsset == "" && validToken(m[1]) {
			p.swap.FromAsset = strings.ToUpper(m[1])
		}
		return weightPercentage
	}
	return 0
}

// matchQuoteAmount handles amounts denominated in a different asset than the
// one being swapped: "ETH worth 100 USDC", "100 USDC worth of ETH",
// "$100 worth of ETH".
func matchQuoteAmount(p *parse) int {
	if m := worthRevRe.FindStringSubmatch(p.text); m != nil && validToken(m[2]) && validToken(m[3]) {
		p.swap.QuoteAmount = parseFloat(m[1])
		p.swap.QuoteAsset = strings.ToUpper(m[2])
		if p.swap.FromAsset == "" {
			p.swap.FromAsset = strings.ToUpper(m[3])
		}
		return weightQuoteAmount
	}
	if m := worthUsdRe.FindStringSubmatch(p.text); m != nil && validToken(m[2]) {
		p.swap.QuoteAmount = parseFloat(m[1])
		p.swap.QuoteAsset = "USD"
		if p.swap.FromAsset == "" {
			p.swap.FromAsset = strings.ToUpper(m[2])
		}
		return weightQuoteAmount
	}
	if m := worthFwdRe.FindStringSubmatch(p.text); m != nil && validToken(m[1]) {
		p.swap.QuoteAmount = parseFloat(m[2])
		if validToken(m[3]) {
			p.swap.QuoteAsset = strings.ToUpper(m[3])
		} else {
			p.swap.QuoteAsset = "USD"
		}
		if p.swap.FromAsset == "" {
			p.swap.FromAsset = strings.ToUpper(m[1])
		}
		return weightQuoteAmount
	}
	return 0
}

// matchTokenPair extracts the traded pair. An explicit "from X to Y" phrase
// wins; otherwise the first generic "X to/into/for Y" whose left side is not
// an action verb. A verb on the left still lets the right side seed the
// destination, but contributes no confidence.
func matchTokenPair(p *parse) int {
	if m := fromPairRe.FindStringSubmatch(p.text); m != nil && validToken(m[1]) && validToken(m[3]) {
		setPair(p, m[1], m[2], m[3], m[4])
		return weightTokenPair
	}
	for _, m := range pairRe.FindAllStringSubmatch(p.text, -1) {
		if !validToken(m[3]) {
			continue
		}
		if actionVerbs[m[1]] || !validToken(m[1]) {
			// "convert to BTC": left side is a verb, not a token.
			if p.swap.ToAsset == "" {
				p.swap.ToAsset = strings.ToUpper(m[3])
				if p.swap.ToChain == "" {
					p.swap.ToChain = chainOrDefault(m[4], p.swap.ToAsset)
				}
			}
			continue
		}
		setPair(p, m[1], m[2], m[3], m[4])
		return weightTokenPair
	}
	return 0
}

func setPair(p *parse, from, fromChain, to, toChain string) {
	if p.swap.FromAsset == "" {
		p.swap.FromAsset = strings.ToUpper(from)
	}
	if p.swap.ToAsset == "" {
		p.swap.ToAsset = strings.ToUpper(to)
	}
	if p.swap.FromChain == "" {
		p.swap.FromChain = chainOrDefault(fromChain, p.swap.FromAsset)
	}
	if p.swap.ToChain == "" {
		p.swap.ToChain = chainOrDefault(toChain, p.swap.ToAsset)
	}
}

func chainOrDefault(stated, asset string) string {
	if chainNames[stated] {
		return stated
	}
	return model.DefaultNetwork(asset)
}

// matchBareAmount handles a plain "N TOKEN" quantity. Only fires when no
// amount type and no quote amount were set by the earlier matchers.
func matchBareAmount(p *parse) int {
	if p.swap.AmountType != model.AmountUnset || p.swap.QuoteAmount != 0 {
		return 0
	}
	for _, m := range bareAmtRe.FindAllStringSubmatch(p.text, -1) {
		if !validToken(m[2]) {
			continue
		}
		p.swap.AmountType = model.AmountExact
		p.swap.Amount = parseFloat(m[1])
		if p.swap.FromAsset == "" {
			p.swap.FromAsset = strings.ToUpper(m[2])
		}
		return weightBareAmount
	}
	return 0
}

// matchConditional handles "if/when price above|below|>|< VALUE" with an
// optional k/m suffix and leading $. The condition asset defaults to the
// source asset later, when the parse is assembled.
func matchConditional(p *parse) int {
	m := condRe.FindStringSubmatch(p.text)
	if m == nil {
		return 0
	}
	cond := &model.PriceCondition{Value: parseFloat(m[3])}
	switch m[4] {
	case "k":
		cond.Value *= 1_000
	case "m":
		cond.Value *= 1_000_000
	}
	switch m[2] {
	case "above", "over", ">":
		cond.Operator = model.CondAbove
	default:
		cond.Operator = model.CondBelow
	}
	if validToken(m[1]) {
		cond.Asset = strings.ToUpper(m[1])
	}
	p.condition = cond
	return weightConditional
}

// matchIntentKeyword nudges the intent tag from action vocabulary.
func matchIntentKeyword(p *parse) int {
	switch {
	case containsAny(p.text, "checkout", "invoice", "payment link", "pay me"):
		p.intentHint = model.IntentCheckout
	case containsAny(p.text, "yield", "apy", "staking", "interest rate"):
		p.intentHint = model.IntentYieldQuery
	case containsAny(p.text, "portfolio", "diversify", "rebalance"):
		p.intentHint = model.IntentPortfolio
	case containsAny(p.text, "swap", "convert", "trade", "exchange", "buy", "sell", "bridge"):
		if p.intentHint == "" {
			p.intentHint = model.IntentSwap
		}
	default:
		return 0
	}
	return weightIntentWord
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
