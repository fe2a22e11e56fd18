// Package datasheet provides the component analysis adapter: part-number
// type detection plus specification extraction from datasheet text. Fetching
// the text itself is pluggable so real sources (distributor APIs, PDF
// extractors) can be wired in without touching the pipeline.
package datasheet

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/UIDickinson/EE-RI-Bot/core"
	"github.com/UIDickinson/EE-RI-Bot/logging"
)

// TextFetcher resolves a part number to raw datasheet text. Implementations
// wrap PDF extraction or vendor APIs; errors follow the transient/permanent
// taxonomy.
type TextFetcher interface {
	Fetch(ctx context.Context, partNumber string) (string, error)
}

// Options configures the datasheet adapter.
type Options struct {
	// Fetcher supplies datasheet text per part. When nil, lookups return
	// type detection only.
	Fetcher TextFetcher
	// Logger receives per-call diagnostics.
	Logger logging.Logger
}

// Adapter implements core.LookupAdapter for component datasheets.
type Adapter struct {
	opts Options
}

// New constructs the adapter.
func New(optFns ...func(o *Options)) *Adapter {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Adapter{opts: opts}
}

// Name implements core.Adapter.
func (a *Adapter) Name() string { return "datasheet" }

// Search implements core.Adapter by extracting part-number-shaped tokens
// from free text. This backs the degraded path when the analysis stage
// produced no component list.
func (a *Adapter) Search(_ context.Context, query string) ([]core.SearchResult, error) {
	parts := DetectParts(query)
	results := make([]core.SearchResult, 0, len(parts))
	for _, p := range parts {
		results = append(results, core.SearchResult{
			ID:     p,
			Title:  p,
			Source: "datasheet",
			Metadata: map[string]any{
				"component_type": DetectType(p),
			},
		})
	}
	return results, nil
}

// Lookup implements core.LookupAdapter: detected component type plus, when a
// fetcher is configured, specifications extracted from the datasheet text.
func (a *Adapter) Lookup(ctx context.Context, partNumber string) (core.Record, error) {
	fields := map[string]any{
		"component_type": DetectType(partNumber),
	}

	if a.opts.Fetcher != nil {
		text, err := a.opts.Fetcher.Fetch(ctx, partNumber)
		if err != nil {
			return core.Record{}, fmt.Errorf("fetch datasheet for %s: %w", partNumber, err)
		}
		fields["specifications"] = ExtractSpecs(text)
		fields["features"] = ExtractFeatures(text)
		fields["applications"] = ExtractApplications(text)
	}

	a.opts.Logger.Debug("datasheet lookup for %s resolved type %s", partNumber, fields["component_type"])

	return core.Record{ID: partNumber, Source: "datasheet", Fields: fields}, nil
}

// Part-number prefix heuristics per component family.
var (
	mcuPrefixes    = []string{"STM32", "ESP32", "NRF", "MSP430", "ATMEGA", "PIC", "RP2040"}
	powerPrefixes  = []string{"TPS", "LM", "MAX", "LT", "MP", "TLV", "NCP", "EPC", "GS"}
	sensorPrefixes = []string{"BME", "BMP", "MPU", "LSM", "SHT", "ICM"}
)

// DetectType classifies a part number into a coarse component family.
func DetectType(partNumber string) string {
	upper := strings.ToUpper(partNumber)
	for _, p := range mcuPrefixes {
		if strings.HasPrefix(upper, p) {
			return "microcontroller"
		}
	}
	for _, p := range powerPrefixes {
		if strings.HasPrefix(upper, p) {
			return "power_ic"
		}
	}
	for _, p := range sensorPrefixes {
		if strings.HasPrefix(upper, p) {
			return "sensor"
		}
	}
	return "unknown"
}

// partPattern matches manufacturer-style part numbers: a letter prefix
// followed by digits, optionally more alphanumerics (STM32F407, TPS54331DR).
var partPattern = regexp.MustCompile(`\b[A-Z]{2,}[0-9]{2,}[A-Z0-9-]*\b`)

// DetectParts extracts candidate part numbers from free text, preserving
// first-seen order and dropping duplicates.
func DetectParts(text string) []string {
	matches := partPattern.FindAllString(strings.ToUpper(text), -1)
	seen := map[string]bool{}
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		if seen[m] || DetectType(m) == "unknown" {
			continue
		}
		seen[m] = true
		parts = append(parts, m)
	}
	return parts
}

// specPatterns extract numeric electrical characteristics from datasheet
// text, keyed by specification name.
var specPatterns = map[string]*regexp.Regexp{
	"voltage":     regexp.MustCompile(`(?i)(\d+\.?\d*)\s*V(?:olts?)?\b`),
	"current":     regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(?:m|µ)?A(?:mps?)?\b`),
	"frequency":   regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(?:k|M|G)?Hz\b`),
	"temperature": regexp.MustCompile(`(?i)(-?\d+\.?\d*)\s*°?C\b`),
	"power":       regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(?:m|µ)?W(?:atts?)?\b`),
	"efficiency":  regexp.MustCompile(`(?i)(\d+\.?\d*)\s*%\s*(?:efficiency|eff\.)`),
}

const maxSpecMatches = 5

// ExtractSpecs pulls numeric specifications out of datasheet text, keeping
// the first few matches per specification kind.
func ExtractSpecs(text string) map[string][]string {
	specs := map[string][]string{}
	for kind, pattern := range specPatterns {
		matches := pattern.FindAllStringSubmatch(text, maxSpecMatches)
		if len(matches) == 0 {
			continue
		}
		vals := make([]string, 0, len(matches))
		for _, m := range matches {
			vals = append(vals, m[1])
		}
		specs[kind] = vals
	}
	return specs
}

const maxFeatures = 15

// ExtractFeatures collects bullet-pointed feature lines.
func ExtractFeatures(text string) []string {
	var features []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "•") && !strings.HasPrefix(trimmed, "-") && !strings.HasPrefix(trimmed, "●") {
			continue
		}
		feature := strings.TrimSpace(strings.TrimLeft(trimmed, "•-● "))
		if len(feature) > 10 {
			features = append(features, feature)
		}
		if len(features) == maxFeatures {
			break
		}
	}
	return features
}

// applicationKeywords are markets a datasheet typically names on its first
// page.
var applicationKeywords = []string{
	"automotive", "industrial", "consumer", "medical", "iot",
	"wearable", "battery-powered", "wireless", "motor control",
	"power supply", "led driver", "sensor interface",
}

// ExtractApplications returns the application keywords mentioned in text.
func ExtractApplications(text string) []string {
	lower := strings.ToLower(text)
	var apps []string
	for _, kw := range applicationKeywords {
		if strings.Contains(lower, kw) {
			apps = append(apps, kw)
		}
	}
	return apps
}
