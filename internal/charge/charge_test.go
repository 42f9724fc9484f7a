package charge

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestResolvePercentage(t *testing.T) {
	basic := dec("900")
	def := Definition{Name: "IGST", Nature: NaturePercentage, Scope: ScopeItem, Value: dec("18"), Enabled: true}
	got, err := Resolve(def, Base{ItemBasic: &basic})
	require.NoError(t, err)
	require.True(t, got.Equal(dec("162")), "got %s", got)
}

func TestResolveFlatAmount(t *testing.T) {
	def := Definition{Name: "Loading", Nature: NatureFlatAmount, Scope: ScopeDocument, Value: dec("250.50"), Enabled: true}
	got, err := Resolve(def, Base{})
	require.NoError(t, err)
	require.True(t, got.Equal(dec("250.50")))
}

func TestResolvePerUnit(t *testing.T) {
	qty := dec("12")
	def := Definition{Name: "Packing", Nature: NaturePerUnit, Scope: ScopeItem, Value: dec("2.5"), Enabled: true}
	got, err := Resolve(def, Base{Quantity: &qty})
	require.NoError(t, err)
	require.True(t, got.Equal(dec("30")))
}

func TestResolveDisabledIsZero(t *testing.T) {
	// Value would be invalid for a percentage with no base, but disabled
	// definitions must short-circuit before inspecting anything.
	def := Definition{Name: "IGST", Nature: NaturePercentage, Value: dec("18"), Enabled: false}
	got, err := Resolve(def, Base{})
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestResolveErrors(t *testing.T) {
	basic := dec("100")
	cases := []struct {
		name string
		def  Definition
		base Base
	}{
		{"unknown nature", Definition{Name: "X", Nature: Nature("weird"), Enabled: true}, Base{ItemBasic: &basic}},
		{"percentage without basic", Definition{Name: "IGST", Nature: NaturePercentage, Value: dec("18"), Enabled: true}, Base{}},
		{"per unit without quantity", Definition{Name: "Packing", Nature: NaturePerUnit, Value: dec("2"), Enabled: true}, Base{ItemBasic: &basic}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resolve(tc.def, tc.base)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidDefinition))
		})
	}
}

func TestParseNature(t *testing.T) {
	for raw, want := range map[string]Nature{
		"percentage": NaturePercentage,
		"Percent":    NaturePercentage,
		"flatAmount": NatureFlatAmount,
		"flat":       NatureFlatAmount,
		"perUnit":    NaturePerUnit,
		"per_unit":   NaturePerUnit,
	} {
		got, err := ParseNature(raw)
		require.NoError(t, err, raw)
		require.Equal(t, want, got, raw)
	}

	_, err := ParseNature("progressive")
	require.True(t, errors.Is(err, ErrInvalidDefinition))
}

func TestParseKind(t *testing.T) {
	for name, want := range map[string]Kind{
		"IGST":                   KindIGST,
		"igst @ 18%":             KindIGST,
		"CGST":                   KindCGST,
		"SGST":                   KindSGST,
		"Packaging & Forwarding": KindPackaging,
		"Freight":                KindFreight,
		"Transportation":         KindFreight,
		"Inspection Fee":         KindOther,
	} {
		require.Equal(t, want, ParseKind(name), name)
	}
}

func TestNormalizeKeepsExplicitKind(t *testing.T) {
	def := Normalize(Definition{Name: "Special Levy", Kind: KindFreight})
	require.Equal(t, KindFreight, def.Kind)

	def = Normalize(Definition{Name: "CGST"})
	require.Equal(t, KindCGST, def.Kind)
}
