// Package compliance provides the regulatory adapter: certification
// requirements per target market and applicable EMC standards per product
// category. The knowledge base is local and versioned with the code, so
// calls never fail transiently.
package compliance

import (
	"context"
	"fmt"
	"strings"

	"github.com/UIDickinson/EE-RI-Bot/core"
)

// Requirements summarizes what shipping into one market takes.
type Requirements struct {
	Market         string   `json:"market"`
	Certifications []string `json:"certifications"`
	Timeline       string   `json:"timeline"`
	CostRange      string   `json:"cost_range"`
}

// Adapter implements core.LookupAdapter for regulatory requirements.
type Adapter struct {
	markets map[string]Requirements
	emc     map[string][]string
}

// New constructs the adapter with the built-in knowledge base.
func New() *Adapter {
	return &Adapter{
		markets: map[string]Requirements{
			"EU": {
				Market:         "EU",
				Certifications: []string{"CE Mark", "RoHS", "REACH"},
				Timeline:       "3-6 months",
				CostRange:      "€5,000-€15,000",
			},
			"USA": {
				Market:         "USA",
				Certifications: []string{"FCC Part 15", "UL/ETL (optional)"},
				Timeline:       "2-4 months",
				CostRange:      "$3,000-$10,000",
			},
			"CHINA": {
				Market:         "China",
				Certifications: []string{"CCC", "RoHS China"},
				Timeline:       "4-8 months",
				CostRange:      "$8,000-$20,000",
			},
		},
		emc: map[string][]string{
			"consumer_electronics": {"EN 55032", "EN 55035", "EN 61000-3-2", "EN 61000-3-3"},
			"industrial":           {"EN 61000-6-2", "EN 61000-6-4"},
			"automotive":           {"CISPR 25", "ISO 11452"},
			"medical":              {"IEC 60601-1-2"},
			"wireless":             {"EN 301 489", "EN 300 328"},
		},
	}
}

// Name implements core.Adapter.
func (a *Adapter) Name() string { return "compliance" }

// canonical maps market aliases to knowledge-base keys.
func canonical(market string) string {
	switch strings.ToUpper(strings.TrimSpace(market)) {
	case "EU", "EUROPE":
		return "EU"
	case "USA", "US":
		return "USA"
	case "CHINA", "CN", "ASIA":
		return "CHINA"
	}
	return ""
}

// Search implements core.Adapter: markets and product categories mentioned
// in the query text each contribute a result.
func (a *Adapter) Search(_ context.Context, query string) ([]core.SearchResult, error) {
	lower := strings.ToLower(query)
	var results []core.SearchResult

	for _, alias := range []string{"EU", "Europe", "USA", "China", "Asia"} {
		if !strings.Contains(lower, strings.ToLower(alias)) {
			continue
		}
		key := canonical(alias)
		req, ok := a.markets[key]
		if !ok {
			continue
		}
		results = append(results, core.SearchResult{
			ID:     "market:" + key,
			Title:  fmt.Sprintf("%s market requirements", req.Market),
			Source: "compliance",
			Metadata: map[string]any{
				"certifications": req.Certifications,
				"timeline":       req.Timeline,
			},
		})
	}

	for category, standards := range a.emc {
		if !strings.Contains(lower, strings.ReplaceAll(category, "_", " ")) && !strings.Contains(lower, category) {
			continue
		}
		results = append(results, core.SearchResult{
			ID:     "emc:" + category,
			Title:  fmt.Sprintf("EMC standards for %s", category),
			Source: "compliance",
			Metadata: map[string]any{
				"standards": standards,
			},
		})
	}

	return results, nil
}

// Lookup implements core.LookupAdapter: the identifier is a target market.
// Unknown markets are a permanent error.
func (a *Adapter) Lookup(_ context.Context, market string) (core.Record, error) {
	key := canonical(market)
	req, ok := a.markets[key]
	if !ok {
		return core.Record{}, fmt.Errorf("no compliance data for market %q", market)
	}
	return core.Record{
		ID:     key,
		Source: "compliance",
		Fields: map[string]any{
			"certifications": req.Certifications,
			"timeline":       req.Timeline,
			"cost_range":     req.CostRange,
		},
	}, nil
}

// EMCStandards returns the applicable EMC standards for a product category,
// falling back to the generic EN 55032 profile.
func (a *Adapter) EMCStandards(category string) []string {
	if standards, ok := a.emc[category]; ok {
		return standards
	}
	return []string{"EN 55032 (Generic)"}
}

// EMCCategory maps an application keyword, as datasheets phrase it, onto the
// EMC profile covering it.
func EMCCategory(keyword string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(keyword)) {
	case "consumer", "consumer electronics", "consumer_electronics", "iot", "wearable", "battery-powered":
		return "consumer_electronics", true
	case "industrial", "motor control":
		return "industrial", true
	case "automotive":
		return "automotive", true
	case "medical":
		return "medical", true
	case "wireless":
		return "wireless", true
	}
	return "", false
}
