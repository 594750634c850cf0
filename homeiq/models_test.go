package homeiq_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AryanKumar02/HomeIQ-sub001/homeiq"
	"github.com/AryanKumar02/HomeIQ-sub001/pkg/testsupport"
)

func TestProperty_Validate(t *testing.T) {
	var valid homeiq.Property
	testsupport.LoadFixtureJSON(t, testsupport.FixturePath("property.json"), &valid)
	require.NoError(t, valid.Validate())
	assert.Equal(t, "p1", valid.ID)
	assert.Equal(t, 925.0, valid.MonthlyRent)

	cases := []struct {
		name   string
		mutate func(*homeiq.Property)
	}{
		{"missing title", func(p *homeiq.Property) { p.Title = "" }},
		{"missing address", func(p *homeiq.Property) { p.AddressLine = "" }},
		{"missing city", func(p *homeiq.Property) { p.City = "" }},
		{"unknown status", func(p *homeiq.Property) { p.Status = "demolished" }},
		{"negative rent", func(p *homeiq.Property) { p.MonthlyRent = -1 }},
		{"negative bedrooms", func(p *homeiq.Property) { p.Bedrooms = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			tc.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestUnit_Validate(t *testing.T) {
	valid := homeiq.Unit{
		ID:          "u1",
		PropertyID:  "p1",
		Name:        "Flat A",
		Status:      homeiq.PropertyAvailable,
		MonthlyRent: 650,
	}
	require.NoError(t, valid.Validate())

	missingProperty := valid
	missingProperty.PropertyID = ""
	assert.Error(t, missingProperty.Validate())

	missingName := valid
	missingName.Name = ""
	assert.Error(t, missingName.Validate())
}

func TestTenant_Validate(t *testing.T) {
	var valid homeiq.Tenant
	testsupport.LoadFixtureJSON(t, testsupport.FixturePath("tenant.json"), &valid)
	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*homeiq.Tenant)
	}{
		{"missing first name", func(tn *homeiq.Tenant) { tn.FirstName = "" }},
		{"missing last name", func(tn *homeiq.Tenant) { tn.LastName = "" }},
		{"bad email", func(tn *homeiq.Tenant) { tn.Email = "not-an-email" }},
		{"unknown status", func(tn *homeiq.Tenant) { tn.Status = "evicted" }},
		{"lease ends before it starts", func(tn *homeiq.Tenant) {
			tn.LeaseStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			tn.LeaseEnd = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tn := valid
			tc.mutate(&tn)
			assert.Error(t, tn.Validate())
		})
	}

	// A zero lease end is allowed for rolling contracts.
	rolling := valid
	rolling.LeaseEnd = time.Time{}
	assert.NoError(t, rolling.Validate())
}
