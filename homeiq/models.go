// Package homeiq holds the HomeIQ domain model (properties, units, tenants)
// and the HTTP client for the HomeIQ API. The client's typed services
// implement resourcecache.Remote and are the engine's only collaborators.
package homeiq

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Property statuses.
const (
	PropertyAvailable   = "available"
	PropertyOccupied    = "occupied"
	PropertyMaintenance = "maintenance"
	PropertyOffline     = "offline"
)

// Tenant statuses.
const (
	TenantActive  = "active"
	TenantPending = "pending"
	TenantEnded   = "ended"
)

// Property is a rentable property listing.
type Property struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	AddressLine string    `json:"addressLine"`
	City        string    `json:"city"`
	Postcode    string    `json:"postcode"`
	Status      string    `json:"status"`
	MonthlyRent float64   `json:"monthlyRent"`
	Bedrooms    int       `json:"bedrooms"`
	Bathrooms   int       `json:"bathrooms"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Validate checks the fields a create/update form must provide.
func (p Property) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.AddressLine, validation.Required),
		validation.Field(&p.City, validation.Required),
		validation.Field(&p.Status, validation.Required,
			validation.In(PropertyAvailable, PropertyOccupied, PropertyMaintenance, PropertyOffline)),
		validation.Field(&p.MonthlyRent, validation.Min(0.0)),
		validation.Field(&p.Bedrooms, validation.Min(0)),
		validation.Field(&p.Bathrooms, validation.Min(0)),
	)
}

// Unit is one lettable unit within a property.
type Unit struct {
	ID          string  `json:"id"`
	PropertyID  string  `json:"propertyId"`
	Name        string  `json:"name"`
	Status      string  `json:"status"`
	MonthlyRent float64 `json:"monthlyRent"`
}

// Validate checks the unit form fields.
func (u Unit) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.PropertyID, validation.Required),
		validation.Field(&u.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&u.MonthlyRent, validation.Min(0.0)),
	)
}

// Tenant is a renter with a lease on a property or unit.
type Tenant struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"propertyId"`
	UnitID     string    `json:"unitId,omitempty"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Status     string    `json:"status"`
	LeaseStart time.Time `json:"leaseStart"`
	LeaseEnd   time.Time `json:"leaseEnd"`
}

// Validate checks the tenant form fields.
func (t Tenant) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&t.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&t.Email, validation.Required, is.Email),
		validation.Field(&t.Status, validation.Required,
			validation.In(TenantActive, TenantPending, TenantEnded)),
		validation.Field(&t.LeaseEnd, validation.By(t.leaseEndAfterStart)),
	)
}

func (t Tenant) leaseEndAfterStart(any) error {
	if !t.LeaseEnd.IsZero() && !t.LeaseStart.IsZero() && t.LeaseEnd.Before(t.LeaseStart) {
		return validation.NewError("validation_lease_range", "lease end must not precede lease start")
	}
	return nil
}

// PropertyFilter narrows a property list read. Filters become query-key
// arguments, so a zero filter and a populated one cache independently.
type PropertyFilter struct {
	Status   string
	Search   string
	Page     int
	PageSize int
}

// TenantFilter narrows a tenant list read.
type TenantFilter struct {
	PropertyID string
	Status     string
	Search     string
	Page       int
	PageSize   int
}

// UnitFilter narrows a unit list read.
type UnitFilter struct {
	PropertyID string
	Status     string
}
