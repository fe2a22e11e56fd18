package datasheet

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectType(t *testing.T) {
	tests := []struct {
		part string
		want string
	}{
		{"STM32F407VG", "microcontroller"},
		{"esp32-s3", "microcontroller"},
		{"RP2040", "microcontroller"},
		{"TPS62840", "power_ic"},
		{"LM2904", "power_ic"},
		{"EPC2040", "power_ic"},
		{"BME280", "sensor"},
		{"LSM6DSO", "sensor"},
		{"XYZ999", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.part, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectType(tt.part))
		})
	}
}

func TestDetectParts(t *testing.T) {
	text := "Compare the TPS62840 against the STM32L476 companion PMIC, then the TPS62840 again"

	parts := DetectParts(text)
	assert.Equal(t, []string{"TPS62840", "STM32L476"}, parts, "ordered, deduplicated")
}

func TestDetectPartsIgnoresUnknownFamilies(t *testing.T) {
	assert.Empty(t, DetectParts("the ABC123 word processor and ISO9001 certification"))
	assert.Empty(t, DetectParts("no part numbers here"))
}

func TestExtractSpecs(t *testing.T) {
	text := "Input range 3.3 V to 5.5 V, quiescent current 60 µA, switching at 1.8 MHz, up to 95 % efficiency"

	specs := ExtractSpecs(text)
	assert.Contains(t, specs["voltage"], "3.3")
	assert.Contains(t, specs["voltage"], "5.5")
	assert.Contains(t, specs["current"], "60")
	assert.Contains(t, specs["frequency"], "1.8")
	assert.Contains(t, specs["efficiency"], "95")
	assert.NotContains(t, specs, "power")
}

func TestExtractFeatures(t *testing.T) {
	text := `Features
• 60-nA quiescent current consumption
• Input voltage range from 1.8 V to 6.5 V
- ok
● 100% duty cycle operation capability
Regular prose line`

	features := ExtractFeatures(text)
	require.Len(t, features, 3, "short bullets and prose are skipped")
	assert.Equal(t, "60-nA quiescent current consumption", features[0])
}

func TestExtractApplications(t *testing.T) {
	text := "Designed for battery-powered IoT nodes and wearable devices in industrial settings."

	apps := ExtractApplications(text)
	assert.Contains(t, apps, "battery-powered")
	assert.Contains(t, apps, "iot")
	assert.Contains(t, apps, "wearable")
	assert.Contains(t, apps, "industrial")
	assert.NotContains(t, apps, "automotive")
}

func TestLookupWithoutFetcher(t *testing.T) {
	a := New()

	rec, err := a.Lookup(context.Background(), "TPS62840")
	require.NoError(t, err)

	assert.Equal(t, "TPS62840", rec.ID)
	assert.Equal(t, "datasheet", rec.Source)
	assert.Equal(t, "power_ic", rec.Fields["component_type"])
	assert.NotContains(t, rec.Fields, "specifications")
}

type stubFetcher struct {
	text string
	err  error
}

func (f stubFetcher) Fetch(_ context.Context, _ string) (string, error) { return f.text, f.err }

func TestLookupWithFetcher(t *testing.T) {
	a := New(func(o *Options) {
		o.Fetcher = stubFetcher{text: "Output 3.3 V at 750 mA\n• Ultra-low quiescent current"}
	})

	rec, err := a.Lookup(context.Background(), "TPS62840")
	require.NoError(t, err)

	specs, ok := rec.Fields["specifications"].(map[string][]string)
	require.True(t, ok)
	assert.Contains(t, specs["voltage"], "3.3")
	assert.Equal(t, []string{"Ultra-low quiescent current"}, rec.Fields["features"])
}

func TestLookupFetcherError(t *testing.T) {
	boom := errors.New("pdf extraction failed")
	a := New(func(o *Options) { o.Fetcher = stubFetcher{err: boom} })

	_, err := a.Lookup(context.Background(), "TPS62840")
	assert.ErrorIs(t, err, boom)
}

func TestSearchDetectsParts(t *testing.T) {
	a := New()

	results, err := a.Search(context.Background(), "evaluate BME280 and STM32G071")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "BME280", results[0].ID)
	assert.Equal(t, "sensor", results[0].Metadata["component_type"])
}
