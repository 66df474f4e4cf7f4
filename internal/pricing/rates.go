// Package pricing provides the read-only service rate tables used for
// informational price display and booking estimates.
package pricing

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed rates.yaml
var defaultRates []byte

// Table maps a category to a class to a price-range string.
type Table map[string]map[string]string

// Rates holds the shop's price tables. It is never mutated after loading.
type Rates struct {
	// Services is keyed by service category, then device class
	// (e.g. screen_replacement -> iphone).
	Services Table `yaml:"services" json:"services"`
	// Estimates is keyed by booking device category, then booking service
	// (e.g. mobile -> screen).
	Estimates Table `yaml:"estimates" json:"estimates"`
}

// Default returns the built-in rate tables.
func Default() (*Rates, error) {
	return Parse(defaultRates)
}

// LoadFile reads rate tables from a YAML file.
func LoadFile(path string) (*Rates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rates file: %w", err)
	}
	return Parse(data)
}

// Parse decodes rate tables from YAML.
func Parse(data []byte) (*Rates, error) {
	var r Rates
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse rates: %w", err)
	}
	if len(r.Services) == 0 {
		return nil, fmt.Errorf("parse rates: no services defined")
	}
	if r.Estimates == nil {
		r.Estimates = Table{}
	}
	return &r, nil
}

// Lookup returns the price range for a service category and device class.
func (r *Rates) Lookup(service, class string) (string, bool) {
	return r.Services.get(service, class)
}

// Estimate returns the booking estimate for a device category and service.
func (r *Rates) Estimate(device, service string) (string, bool) {
	return r.Estimates.get(device, service)
}

// ServicesFor lists the booking services offered for a device category in
// lexical order.
func (r *Rates) ServicesFor(device string) []string {
	inner := r.Estimates[device]
	out := make([]string, 0, len(inner))
	for k := range inner {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (t Table) get(outer, inner string) (string, bool) {
	m, ok := t[outer]
	if !ok {
		return "", false
	}
	v, ok := m[inner]
	return v, ok
}
