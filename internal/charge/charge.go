package charge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidDefinition is returned when a charge definition cannot be resolved
// against the provided base.
var ErrInvalidDefinition = errors.New("charge: invalid definition")

// Nature describes how a charge value is interpreted.
type Nature string

const (
	// NaturePercentage applies the value as a percentage of the base amount.
	NaturePercentage Nature = "percentage"
	// NatureFlatAmount applies the value as-is.
	NatureFlatAmount Nature = "flatAmount"
	// NaturePerUnit multiplies the value by the base quantity.
	NaturePerUnit Nature = "perUnit"
)

// ParseNature normalises a raw nature string into a Nature.
func ParseNature(raw string) (Nature, error) {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "percentage", "percent":
		return NaturePercentage, nil
	case "flatamount", "flat":
		return NatureFlatAmount, nil
	case "perunit", "per_unit":
		return NaturePerUnit, nil
	default:
		return "", fmt.Errorf("unknown charge nature %q: %w", raw, ErrInvalidDefinition)
	}
}

// Valid reports whether the nature is one of the known variants.
func (n Nature) Valid() bool {
	switch n {
	case NaturePercentage, NatureFlatAmount, NaturePerUnit:
		return true
	}
	return false
}

// Scope declares whether a charge applies to a single line item or to the
// whole document.
type Scope string

const (
	// ScopeItem charges apply to one line item.
	ScopeItem Scope = "item"
	// ScopeDocument charges apply to the aggregated document.
	ScopeDocument Scope = "document"
)

// Definition describes one tax or charge attached to an item or document.
type Definition struct {
	Name    string          `json:"name"`
	Kind    Kind            `json:"kind"`
	Nature  Nature          `json:"nature"`
	Scope   Scope           `json:"scope"`
	Value   decimal.Decimal `json:"value"`
	Enabled bool            `json:"enabled"`
}

// Base carries the amounts a charge may be resolved against. Nil fields mean
// the caller did not supply that base.
type Base struct {
	ItemBasic *decimal.Decimal
	Quantity  *decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Resolve converts a charge definition into its monetary value against the
// given base. Disabled definitions resolve to zero without inspecting Value.
// No rounding happens here; callers round once at breakdown construction.
func Resolve(def Definition, base Base) (decimal.Decimal, error) {
	if !def.Enabled {
		return decimal.Zero, nil
	}
	switch def.Nature {
	case NaturePercentage:
		if base.ItemBasic == nil {
			return decimal.Zero, fmt.Errorf("charge %q: percentage nature requires a basic amount: %w", def.Name, ErrInvalidDefinition)
		}
		return base.ItemBasic.Mul(def.Value).Div(hundred), nil
	case NatureFlatAmount:
		return def.Value, nil
	case NaturePerUnit:
		if base.Quantity == nil {
			return decimal.Zero, fmt.Errorf("charge %q: perUnit nature requires a quantity: %w", def.Name, ErrInvalidDefinition)
		}
		return def.Value.Mul(*base.Quantity), nil
	default:
		return decimal.Zero, fmt.Errorf("charge %q: unknown nature %q: %w", def.Name, def.Nature, ErrInvalidDefinition)
	}
}

// Normalize fills in the Kind from the charge name when the caller left it
// unset. Definitions coming off the wire usually carry only a display name.
func Normalize(def Definition) Definition {
	if def.Kind == "" {
		def.Kind = ParseKind(def.Name)
	}
	return def
}
