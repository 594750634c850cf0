// Package testsupport provides fixture loading and domain seed data for the
// engine's tests, plus a scriptable fake remote that stands in for the
// HomeIQ API.
package testsupport

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AryanKumar02/HomeIQ-sub001/homeiq"
)

// LoadFixture loads test data from a fixture file, relative to the test
// package directory.
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}
	return data
}

// LoadFixtureJSON loads a JSON fixture file and unmarshals it into dest.
func LoadFixtureJSON(t *testing.T, path string, dest any) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// WriteGolden writes expected output to a golden file. Only called when
// updating goldens.
func WriteGolden(t *testing.T, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write golden file to %s: %v", path, err)
	}
}

// CompareWithGolden compares actual output with the golden file, creating the
// golden on first run.
func CompareWithGolden(t *testing.T, path string, actual []byte) {
	t.Helper()

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Logf("golden file %s does not exist, creating it", path)
			WriteGolden(t, path, actual)
			return
		}
		t.Fatalf("failed to read golden file %s: %v", path, err)
	}
	if string(actual) != string(expected) {
		t.Errorf("output mismatch for %s:\nExpected:\n%s\nActual:\n%s", path, expected, actual)
	}
}

// FixturePath constructs a path to a fixture file under testdata/.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// SeedProperties builds n deterministic properties (ids p1..pn), alternating
// available/occupied.
func SeedProperties(n int) []homeiq.Property {
	out := make([]homeiq.Property, 0, n)
	for i := 1; i <= n; i++ {
		status := homeiq.PropertyAvailable
		if i%2 == 0 {
			status = homeiq.PropertyOccupied
		}
		out = append(out, homeiq.Property{
			ID:          fmt.Sprintf("p%d", i),
			Title:       fmt.Sprintf("Flat %d", i),
			AddressLine: fmt.Sprintf("%d High Street", i),
			City:        "Norwich",
			Postcode:    fmt.Sprintf("NR1 %dAA", i),
			Status:      status,
			MonthlyRent: 850 + float64(i)*25,
			Bedrooms:    1 + i%3,
			Bathrooms:   1,
			UpdatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		})
	}
	return out
}

// SeedTenants builds n deterministic active tenants (ids t1..tn) attached to
// property p1.
func SeedTenants(n int) []homeiq.Tenant {
	out := make([]homeiq.Tenant, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, homeiq.Tenant{
			ID:         fmt.Sprintf("t%d", i),
			PropertyID: "p1",
			FirstName:  fmt.Sprintf("Tenant%d", i),
			LastName:   "Example",
			Email:      fmt.Sprintf("tenant%d@example.com", i),
			Status:     homeiq.TenantActive,
			LeaseStart: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			LeaseEnd:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		})
	}
	return out
}

// PropertyID extracts a property's id; the shape expected by
// resourcecache.WithIDFunc.
func PropertyID(p homeiq.Property) string { return p.ID }

// TenantID extracts a tenant's id.
func TenantID(t homeiq.Tenant) string { return t.ID }
