// Package world loads the world layout and wires the simulated economy from it
package world

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/andrescamacho/gangsim/internal/domain/boost"
)

//go:embed world.schema.json
var schemaJSON string

//go:embed default_world.yaml
var defaultLayout []byte

var layoutSchema = jsonschema.MustCompileString("world.schema.json", schemaJSON)

// Layout describes the locations, routes and boosters of a world
type Layout struct {
	Graph     string                 `yaml:"graph"`
	Ledger    string                 `yaml:"ledger"`
	Registry  string                 `yaml:"registry"`
	Manager   string                 `yaml:"manager"`
	Towns     []TownSpec             `yaml:"towns"`
	Locations []LocationSpec         `yaml:"locations,omitempty"`
	Sites     []SiteSpec             `yaml:"sites,omitempty"`
	Boosters  map[string]BoosterSpec `yaml:"boosters,omitempty"`
}

type TownSpec struct {
	Address    string   `yaml:"address"`
	Routes     []string `yaml:"routes,omitempty"`
	Currencies []string `yaml:"currencies,omitempty"`
}

type LocationSpec struct {
	Address string   `yaml:"address"`
	Routes  []string `yaml:"routes,omitempty"`
}

type SiteSpec struct {
	Address  string `yaml:"address"`
	Resource string `yaml:"resource"`
	Stake    string `yaml:"stake"`
	// BaseProdDaily in whole units; empty uses the economy default
	BaseProdDaily string `yaml:"base_prod_daily,omitempty"`
	// TravelTime overrides the economy travel time
	TravelTime        string   `yaml:"travel_time,omitempty"`
	Routes            []string `yaml:"routes,omitempty"`
	FixedDestinations []string `yaml:"fixed_destinations,omitempty"`
}

type BoosterSpec struct {
	Additive       []ModifierSpec `yaml:"additive,omitempty"`
	Multiplicative []ModifierSpec `yaml:"multiplicative,omitempty"`
}

// ModifierSpec selects one boost modifier.
//
//	constant:       amount (additive, whole units) or bps (multiplicative)
//	stored_balance: currency, bps of the stored balance
//	item_count:     collection, base + per_item for every item held
type ModifierSpec struct {
	Kind       string `yaml:"kind"`
	Name       string `yaml:"name,omitempty"`
	Amount     string `yaml:"amount,omitempty"`
	Currency   string `yaml:"currency,omitempty"`
	Collection string `yaml:"collection,omitempty"`
	Bps        int64  `yaml:"bps,omitempty"`
	Base       int64  `yaml:"base,omitempty"`
	PerItem    int64  `yaml:"per_item,omitempty"`
}

// Load reads the layout at path. An empty path selects the built-in layout.
func Load(path string) (Layout, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to read world layout: %w", err)
	}
	layout, err := Parse(b)
	if err != nil {
		return Layout{}, fmt.Errorf("%s: %w", path, err)
	}
	return layout, nil
}

// Default returns the built-in layout
func Default() (Layout, error) {
	return Parse(defaultLayout)
}

// Parse decodes, schema-checks, normalizes and validates a YAML layout
func Parse(data []byte) (Layout, error) {
	if err := validateSchema(data); err != nil {
		return Layout{}, err
	}
	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return Layout{}, fmt.Errorf("world layout: %w", err)
	}
	layout.Normalize()
	if err := layout.Validate(); err != nil {
		return Layout{}, fmt.Errorf("world layout: %w", err)
	}
	return layout, nil
}

// validateSchema checks the document against the embedded JSON schema
func validateSchema(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("world layout: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("world layout: %w", err)
	}
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("world layout: %w", err)
	}
	if err := layoutSchema.Validate(v); err != nil {
		return fmt.Errorf("world layout: %w", err)
	}
	return nil
}

// Normalize fills default system addresses and trims names
func (l *Layout) Normalize() {
	if l == nil {
		return
	}
	l.Graph = orDefault(l.Graph, "location-controller")
	l.Ledger = orDefault(l.Ledger, "entity-store")
	l.Registry = orDefault(l.Registry, "gangs")
	l.Manager = orDefault(l.Manager, "manager")
	for i := range l.Towns {
		l.Towns[i].Address = strings.TrimSpace(l.Towns[i].Address)
	}
	for i := range l.Locations {
		l.Locations[i].Address = strings.TrimSpace(l.Locations[i].Address)
	}
	for i := range l.Sites {
		l.Sites[i].Address = strings.TrimSpace(l.Sites[i].Address)
		l.Sites[i].BaseProdDaily = strings.TrimSpace(l.Sites[i].BaseProdDaily)
	}
}

// Validate checks that names are unique and every route leads somewhere
func (l Layout) Validate() error {
	if len(l.Towns) == 0 {
		return fmt.Errorf("at least one town is required")
	}

	known := make(map[string]bool)
	for _, system := range []string{l.Graph, l.Ledger, l.Registry, l.Manager} {
		known[system] = true
	}
	if len(known) != 4 {
		return fmt.Errorf("graph, ledger, registry and manager addresses must differ")
	}
	add := func(addr string) error {
		if addr == "" {
			return fmt.Errorf("location address must not be empty")
		}
		if known[addr] {
			return fmt.Errorf("duplicate address %s", addr)
		}
		known[addr] = true
		return nil
	}
	for _, t := range l.Towns {
		if err := add(t.Address); err != nil {
			return err
		}
	}
	for _, loc := range l.Locations {
		if err := add(loc.Address); err != nil {
			return err
		}
	}
	for _, s := range l.Sites {
		if err := add(s.Address); err != nil {
			return err
		}
	}

	routes := make(map[string][]string)
	for _, t := range l.Towns {
		routes[t.Address] = t.Routes
	}
	for _, loc := range l.Locations {
		routes[loc.Address] = loc.Routes
	}
	for _, s := range l.Sites {
		routes[s.Address] = s.Routes
		if s.TravelTime != "" {
			if d, err := time.ParseDuration(s.TravelTime); err != nil || d < 0 {
				return fmt.Errorf("site %s: invalid travel time %q", s.Address, s.TravelTime)
			}
		}
		for _, dest := range s.FixedDestinations {
			if !contains(s.Routes, dest) {
				return fmt.Errorf("site %s: fixed destination %s is not a route", s.Address, dest)
			}
		}
	}
	for _, from := range sortedKeys(routes) {
		for _, to := range routes[from] {
			if _, ok := routes[to]; !ok {
				return fmt.Errorf("%s: route to unknown location %s", from, to)
			}
			if to == from {
				return fmt.Errorf("%s: route to itself", from)
			}
		}
	}

	for category, spec := range l.Boosters {
		switch boost.Category(category) {
		case boost.CategoryGangPull, boost.CategoryGangPower, boost.CategoryGangProdDaily:
		default:
			return fmt.Errorf("unknown booster category %s", category)
		}
		for _, m := range append(append([]ModifierSpec(nil), spec.Additive...), spec.Multiplicative...) {
			if err := m.validate(); err != nil {
				return fmt.Errorf("booster %s: %w", category, err)
			}
		}
	}
	return nil
}

func (m ModifierSpec) validate() error {
	switch m.Kind {
	case "constant":
		if m.Name == "" {
			return fmt.Errorf("constant modifier needs a name")
		}
	case "stored_balance":
		if m.Currency == "" {
			return fmt.Errorf("stored_balance modifier needs a currency")
		}
	case "item_count":
		if m.Collection == "" {
			return fmt.Errorf("item_count modifier needs a collection")
		}
	default:
		return fmt.Errorf("unknown modifier kind %q", m.Kind)
	}
	return nil
}

// Marshal renders the layout as YAML
func (l Layout) Marshal() ([]byte, error) {
	return yaml.Marshal(l)
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
