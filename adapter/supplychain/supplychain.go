// Package supplychain provides the distributor availability adapter. The
// distributor catalogue and regional split mirror the EU/Asia sourcing focus
// of the system; per-distributor quoting is pluggable so real integrations
// (Digi-Key, Mouser, Octopart) can be wired in.
package supplychain

import (
	"context"
	"fmt"
	"time"

	"github.com/UIDickinson/EE-RI-Bot/core"
	"github.com/UIDickinson/EE-RI-Bot/logging"
)

// Region selects which distributor set a lookup covers.
type Region string

const (
	// RegionEU covers European distributors.
	RegionEU Region = "EU"
	// RegionAsia covers Asian distributors.
	RegionAsia Region = "Asia"
	// RegionBoth covers the full catalogue.
	RegionBoth Region = "both"
)

// Quote is one distributor's answer for a part.
type Quote struct {
	Distributor string  `json:"distributor"`
	Region      string  `json:"region"`
	Status      string  `json:"status"` // "in_stock", "out_of_stock", "unknown"
	Stock       int     `json:"stock,omitempty"`
	UnitPrice   float64 `json:"unit_price,omitempty"`
	Currency    string  `json:"currency,omitempty"`
}

// Quoter resolves one part at one distributor. Errors follow the
// transient/permanent taxonomy.
type Quoter interface {
	Quote(ctx context.Context, partNumber, distributor string) (Quote, error)
}

// Options configures the supply chain adapter.
type Options struct {
	// Region restricts lookups to one distributor set.
	Region Region
	// Quoter performs per-distributor quoting. When nil, lookups report
	// status "unknown" per distributor, which still counts as a finding.
	Quoter Quoter
	// Logger receives per-call diagnostics.
	Logger logging.Logger
}

// Adapter implements core.LookupAdapter for distributor availability.
type Adapter struct {
	opts         Options
	distributors map[Region][]string
}

// New constructs the adapter.
func New(optFns ...func(o *Options)) *Adapter {
	opts := Options{Region: RegionBoth, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Adapter{
		opts: opts,
		distributors: map[Region][]string{
			RegionEU:   {"Digi-Key", "Mouser", "RS Components", "Farnell"},
			RegionAsia: {"Digi-Key Asia", "Mouser Asia", "LCSC", "Element14 Asia"},
		},
	}
}

// Name implements core.Adapter.
func (a *Adapter) Name() string { return "supply_chain" }

// Distributors returns the distributor names covered for the configured
// region.
func (a *Adapter) Distributors() []string {
	switch a.opts.Region {
	case RegionEU:
		return a.distributors[RegionEU]
	case RegionAsia:
		return a.distributors[RegionAsia]
	default:
		out := append([]string{}, a.distributors[RegionEU]...)
		return append(out, a.distributors[RegionAsia]...)
	}
}

func (a *Adapter) regionOf(distributor string) string {
	for _, d := range a.distributors[RegionEU] {
		if d == distributor {
			return string(RegionEU)
		}
	}
	return string(RegionAsia)
}

// Search implements core.Adapter: the query is treated as a part number and
// each covered distributor contributes one result.
func (a *Adapter) Search(ctx context.Context, query string) ([]core.SearchResult, error) {
	rec, err := a.Lookup(ctx, query)
	if err != nil {
		return nil, err
	}
	quotes, _ := rec.Fields["quotes"].([]Quote)
	results := make([]core.SearchResult, 0, len(quotes))
	for _, q := range quotes {
		results = append(results, core.SearchResult{
			ID:     query + "@" + q.Distributor,
			Title:  fmt.Sprintf("%s at %s", query, q.Distributor),
			Source: "supply_chain",
			Metadata: map[string]any{
				"status": q.Status,
				"region": q.Region,
			},
		})
	}
	return results, nil
}

// Lookup implements core.LookupAdapter: one part across all covered
// distributors. A part unknown to every distributor yields a permanent
// error so the miss is recorded for observability.
func (a *Adapter) Lookup(ctx context.Context, partNumber string) (core.Record, error) {
	quotes := make([]Quote, 0, 8)
	available := 0

	for _, d := range a.Distributors() {
		select {
		case <-ctx.Done():
			return core.Record{}, ctx.Err()
		default:
		}

		q, err := a.quote(ctx, partNumber, d)
		if err != nil {
			a.opts.Logger.Warn("quote for %s at %s failed: %v", partNumber, d, err)
			continue
		}
		quotes = append(quotes, q)
		if q.Status == "in_stock" {
			available++
		}
	}

	if len(quotes) == 0 {
		return core.Record{}, fmt.Errorf("part %s not listed at any distributor", partNumber)
	}

	return core.Record{
		ID:     partNumber,
		Source: "supply_chain",
		Fields: map[string]any{
			"quotes":       quotes,
			"in_stock_at":  available,
			"region":       string(a.opts.Region),
			"checked_at":   time.Now().UTC().Format(time.RFC3339),
			"distributors": len(quotes),
		},
	}, nil
}

func (a *Adapter) quote(ctx context.Context, partNumber, distributor string) (Quote, error) {
	if a.opts.Quoter != nil {
		return a.opts.Quoter.Quote(ctx, partNumber, distributor)
	}
	return Quote{
		Distributor: distributor,
		Region:      a.regionOf(distributor),
		Status:      "unknown",
	}, nil
}
