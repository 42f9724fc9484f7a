package charge

import "strings"

// Kind is the closed set of charge categories the engine buckets by. Names on
// incoming definitions are parsed once at the boundary; downstream code only
// ever switches on Kind, never on the raw name.
type Kind string

const (
	// KindIGST is integrated GST, levied on interstate transactions.
	KindIGST Kind = "igst"
	// KindCGST is the central half of intrastate GST.
	KindCGST Kind = "cgst"
	// KindSGST is the state half of intrastate GST.
	KindSGST Kind = "sgst"
	// KindPackaging covers packaging and forwarding charges.
	KindPackaging Kind = "packaging"
	// KindFreight covers transport charges.
	KindFreight Kind = "freight"
	// KindOther is any charge that does not match a known category.
	KindOther Kind = "other"
)

// ParseKind maps a free-form charge name onto a Kind. Matching is
// case-insensitive on the leading token so names like "IGST @18%" or
// "Packaging & Forwarding" categorise correctly.
func ParseKind(name string) Kind {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.HasPrefix(n, "igst"):
		return KindIGST
	case strings.HasPrefix(n, "cgst"):
		return KindCGST
	case strings.HasPrefix(n, "sgst"):
		return KindSGST
	case strings.HasPrefix(n, "packag"), strings.HasPrefix(n, "p&f"), strings.Contains(n, "forwarding"):
		return KindPackaging
	case strings.HasPrefix(n, "freight"), strings.HasPrefix(n, "transport"):
		return KindFreight
	default:
		return KindOther
	}
}

// GST reports whether the kind is one of the GST buckets.
func (k Kind) GST() bool {
	switch k {
	case KindIGST, KindCGST, KindSGST:
		return true
	}
	return false
}
