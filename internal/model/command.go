package model

// Intent is the high-level action family a parsed command belongs to.
type Intent string

const (
	IntentSwap       Intent = "swap"
	IntentPortfolio  Intent = "portfolio"
	IntentCheckout   Intent = "checkout"
	IntentLimitOrder Intent = "limit_order"
	IntentYieldQuery Intent = "yield_query"
	// IntentAccumulation is never produced by the interpreter; it marks a
	// dialogue started by the explicit recurring-buy command.
	IntentAccumulation Intent = "accumulation"
	IntentUnknown      Intent = "unknown"
)

// AmountType says how the stated amount is to be interpreted.
type AmountType string

const (
	AmountUnset      AmountType = ""
	AmountExact      AmountType = "exact"
	AmountPercentage AmountType = "percentage"
	AmountAll        AmountType = "all"
)

// ConditionOperator is the comparison of a price trigger.
type ConditionOperator string

const (
	CondAbove ConditionOperator = "gt"
	CondBelow ConditionOperator = "lt"
)

// Command is the interpreter's output: a shared envelope plus one variant
// payload selected by Intent. Recognized means a command shape was detected;
// Actionable means every required field for execution is present and valid.
// The two are deliberately separate booleans.
type Command struct {
	Intent           Intent
	Confidence       int // 0-100, clamped
	Recognized       bool
	Actionable       bool
	ValidationErrors []string
	OriginalInput    string

	Swap      *SwapDetails      // swap, and the trade leg of limit_order
	Portfolio *PortfolioDetails // portfolio
	Checkout  *CheckoutDetails  // checkout
	Condition *PriceCondition   // limit_order
}

// SwapDetails carries the fields of a single-pair trade.
type SwapDetails struct {
	FromAsset string
	FromChain string
	ToAsset   string
	ToChain   string

	Amount     float64
	AmountType AmountType

	// Set when AmountType is "all" with an exclusion clause.
	ExcludeAmount float64
	ExcludeToken  string

	// A value stated in a different asset than the one being swapped
	// ("ETH worth 100 USDC"). Zero when absent.
	QuoteAmount float64
	QuoteAsset  string

	SettleAddress string
}

// Allocation is one leg of a portfolio command.
type Allocation struct {
	ToAsset    string
	ToChain    string
	Percentage float64
}

// PortfolioDetails carries a fan-out trade: one source asset split across
// several destinations by percentage.
type PortfolioDetails struct {
	FromAsset   string
	FromChain   string
	Amount      float64
	AmountType  AmountType
	Allocations []Allocation
}

// CheckoutDetails carries a payment-request command.
type CheckoutDetails struct {
	SettleAsset   string
	SettleNetwork string
	SettleAddress string
	SettleAmount  float64
}

// PriceCondition is the trigger of a limit-order command.
type PriceCondition struct {
	Asset    string
	Operator ConditionOperator
	Value    float64
}

// AddError appends a validation message and drops confidence by penalty,
// floored at zero.
func (c *Command) AddError(msg string, penalty int) {
	c.ValidationErrors = append(c.ValidationErrors, msg)
	c.Confidence -= penalty
	if c.Confidence < 0 {
		c.Confidence = 0
	}
}

// ClampConfidence bounds confidence to [0, 100].
func (c *Command) ClampConfidence() {
	if c.Confidence < 0 {
		c.Confidence = 0
	}
	if c.Confidence > 100 {
		c.Confidence = 100
	}
}
