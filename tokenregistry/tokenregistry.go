// Package tokenregistry holds per-token metadata: decimals and, per
// provider, the fee fraction, minimum/maximum amount, and anonymity set
// size an adapter advertises for that token. Entries load from a JSON file
// via the teacher's JsonConfigObj[T] -> ConvertToDomain() pattern, the same
// generic config-loading shape as system/pkg/utilities.
package tokenregistry

import (
	"encoding/json"
	"math"
	"math/big"
	"os"
	"sort"

	"github.com/privacycash/toolkit/errs"
)

// ProviderFees describes one provider's terms for one token.
type ProviderFees struct {
	FeeFraction      float64
	MinAmount        float64
	MaxAmount        *float64
	AnonymitySetSize *int
}

// TokenInfo is a token's full metadata: its base-unit scale and the
// per-provider fee table.
type TokenInfo struct {
	Symbol    string
	Decimals  int
	Providers map[string]ProviderFees
}

// Registry is a static, in-memory lookup table keyed by token symbol.
type Registry struct {
	tokens map[string]TokenInfo
}

// New builds an empty Registry.
func New() *Registry {
	return &Registry{tokens: make(map[string]TokenInfo)}
}

// Register adds or replaces a token's metadata.
func (r *Registry) Register(info TokenInfo) {
	r.tokens[info.Symbol] = info
}

// Lookup returns the metadata for symbol, or UnsupportedToken.
func (r *Registry) Lookup(symbol string) (TokenInfo, error) {
	info, ok := r.tokens[symbol]
	if !ok {
		return TokenInfo{}, errs.UnsupportedToken(symbol)
	}
	return info, nil
}

// Symbols returns every registered symbol, alphabetically sorted.
func (r *Registry) Symbols() []string {
	out := make([]string, 0, len(r.tokens))
	for s := range r.tokens {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// ToBaseUnits converts a human-facing amount into the token's base units:
// round(amount * 10^decimals).
func (r *Registry) ToBaseUnits(amount float64, symbol string) (*big.Int, error) {
	info, err := r.Lookup(symbol)
	if err != nil {
		return nil, err
	}
	scale := math.Pow10(info.Decimals)
	rounded := math.Round(amount * scale)
	bf := new(big.Float).SetFloat64(rounded)
	out, _ := bf.Int(nil)
	return out, nil
}

// FromBaseUnits is ToBaseUnits's inverse.
func (r *Registry) FromBaseUnits(units *big.Int, symbol string) (float64, error) {
	info, err := r.Lookup(symbol)
	if err != nil {
		return 0, err
	}
	scale := math.Pow10(info.Decimals)
	bf := new(big.Float).SetInt(units)
	f, _ := bf.Float64()
	return f / scale, nil
}

// fileEntry is the JSON wire shape for one token's config row.
type fileEntry struct {
	Symbol    string                         `json:"symbol"`
	Decimals  int                            `json:"decimals"`
	Providers map[string]fileProviderFees `json:"providers"`
}

type fileProviderFees struct {
	FeeFraction      float64  `json:"feeFraction"`
	MinAmount        float64  `json:"minAmount"`
	MaxAmount        *float64 `json:"maxAmount,omitempty"`
	AnonymitySetSize *int     `json:"anonymitySetSize,omitempty"`
}

// ConvertToDomain turns the wire row into the domain TokenInfo, following
// the teacher's JsonConfigObj[T].ConvertToDomain() convention.
func (f fileEntry) ConvertToDomain() TokenInfo {
	providers := make(map[string]ProviderFees, len(f.Providers))
	for name, p := range f.Providers {
		providers[name] = ProviderFees{
			FeeFraction:      p.FeeFraction,
			MinAmount:        p.MinAmount,
			MaxAmount:        p.MaxAmount,
			AnonymitySetSize: p.AnonymitySetSize,
		}
	}
	return TokenInfo{
		Symbol:    f.Symbol,
		Decimals:  f.Decimals,
		Providers: providers,
	}
}

// LoadFromFile reads a JSON array of token entries and returns a populated
// Registry.
func LoadFromFile(path string) (*Registry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries []fileEntry
	if err := json.Unmarshal(content, &entries); err != nil {
		return nil, err
	}

	reg := New()
	for _, e := range entries {
		reg.Register(e.ConvertToDomain())
	}
	return reg, nil
}
