package area

import (
	_ "embed"
	"fmt"
	"maps"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Taxonomy selects one of the three area tables of the transparency portal.
type Taxonomy string

const (
	ControlArea         Taxonomy = "control_area"
	BiddingZone         Taxonomy = "bidding_zone"
	MarketBalancingArea Taxonomy = "market_balancing_area"
)

var Taxonomies = []Taxonomy{ControlArea, BiddingZone, MarketBalancingArea}

// AreaType is the discriminator the portal expects in the areaType parameter.
func (t Taxonomy) AreaType() string {
	switch t {
	case ControlArea:
		return "CTA"
	case BiddingZone:
		return "BZN"
	case MarketBalancingArea:
		return "MBA"
	}
	return ""
}

func ParseTaxonomy(s string) (Taxonomy, error) {
	for _, t := range Taxonomies {
		if strings.EqualFold(s, string(t)) || strings.EqualFold(s, t.AreaType()) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown taxonomy %q", s)
}

type Record struct {
	Code      string `yaml:"-"`
	Country   string `yaml:"country"`
	ID        string `yaml:"id"`        // External identifier, passed verbatim to the portal
	Market    string `yaml:"market"`    // Optional market override
	Frequency string `yaml:"frequency"` // Optional frequency override
}

// UnknownAreaError is returned when a code is not part of a taxonomy.
type UnknownAreaError struct {
	Taxonomy Taxonomy
	Code     string
	Valid    []string
}

func (e *UnknownAreaError) Error() string {
	return fmt.Sprintf("%s code not found for %q, options are [%s]",
		e.Taxonomy, e.Code, strings.Join(e.Valid, ", "))
}

//go:embed areas.yaml
var areasYaml []byte

type Registry struct {
	tables map[Taxonomy]map[string]Record
}

var defaultRegistry = mustLoad(areasYaml)

// Default returns the registry built from the embedded tables.
func Default() *Registry {
	return defaultRegistry
}

func Load(data []byte) (*Registry, error) {
	var raw map[Taxonomy]map[string]Record
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal area tables: %w", err)
	}

	r := &Registry{tables: make(map[Taxonomy]map[string]Record, len(Taxonomies))}
	for _, t := range Taxonomies {
		table := make(map[string]Record, len(raw[t]))
		for code, rec := range raw[t] {
			if rec.ID == "" {
				return nil, fmt.Errorf("%s %q has no external id", t, code)
			}
			rec.Code = code
			table[code] = rec
		}
		r.tables[t] = table
	}
	return r, nil
}

func mustLoad(data []byte) *Registry {
	r, err := Load(data)
	if err != nil {
		panic(fmt.Sprintf("failed to load area tables: %v", err))
	}
	return r
}

func (r *Registry) Lookup(t Taxonomy, code string) (Record, error) {
	rec, ok := r.tables[t][code]
	if !ok {
		return Record{}, &UnknownAreaError{Taxonomy: t, Code: code, Valid: r.Codes(t)}
	}
	return rec, nil
}

// Codes returns the sorted codes of a taxonomy.
func (r *Registry) Codes(t Taxonomy) []string {
	return slices.Sorted(maps.Keys(r.tables[t]))
}

func Lookup(t Taxonomy, code string) (Record, error) {
	return defaultRegistry.Lookup(t, code)
}

func Codes(t Taxonomy) []string {
	return defaultRegistry.Codes(t)
}
