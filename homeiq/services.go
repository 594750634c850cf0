package homeiq

import (
	"context"
	"net/http"
	"net/url"

	"github.com/AryanKumar02/HomeIQ-sub001/resourcecache"
)

// Interface assertions: each service is a resourcecache remote.
var (
	_ resourcecache.Remote[Property] = (*PropertyService)(nil)
	_ resourcecache.Remote[Unit]     = (*UnitService)(nil)
	_ resourcecache.Remote[Tenant]   = (*TenantService)(nil)
)

// PropertyService accesses /properties.
type PropertyService struct {
	c *Client
}

// List implements resourcecache.Remote. filter should be a PropertyFilter;
// any other value lists unfiltered.
func (s *PropertyService) List(ctx context.Context, filter any) (resourcecache.ListResult[Property], error) {
	q := url.Values{}
	if f, ok := filter.(PropertyFilter); ok {
		if f.Status != "" {
			q.Set("status", f.Status)
		}
		if f.Search != "" {
			q.Set("search", f.Search)
		}
		pagingQuery(q, f.Page, f.PageSize)
	}
	var env listEnvelope[Property]
	if err := s.c.do(ctx, http.MethodGet, []string{"properties"}, q, nil, &env); err != nil {
		return resourcecache.ListResult[Property]{}, err
	}
	return resourcecache.ListResult[Property]{Items: env.Items, Total: env.Total}, nil
}

func (s *PropertyService) Get(ctx context.Context, id string) (Property, error) {
	var p Property
	err := s.c.do(ctx, http.MethodGet, []string{"properties", id}, nil, nil, &p)
	return p, err
}

func (s *PropertyService) Create(ctx context.Context, input Property) (Property, error) {
	if err := input.Validate(); err != nil {
		return Property{}, err
	}
	var p Property
	err := s.c.do(ctx, http.MethodPost, []string{"properties"}, nil, input, &p)
	return p, err
}

func (s *PropertyService) Update(ctx context.Context, id string, input Property) (Property, error) {
	if err := input.Validate(); err != nil {
		return Property{}, err
	}
	var p Property
	err := s.c.do(ctx, http.MethodPut, []string{"properties", id}, nil, input, &p)
	return p, err
}

func (s *PropertyService) Delete(ctx context.Context, id string) error {
	return s.c.do(ctx, http.MethodDelete, []string{"properties", id}, nil, nil, nil)
}

// UnitService accesses /units.
type UnitService struct {
	c *Client
}

func (s *UnitService) List(ctx context.Context, filter any) (resourcecache.ListResult[Unit], error) {
	q := url.Values{}
	if f, ok := filter.(UnitFilter); ok {
		if f.PropertyID != "" {
			q.Set("propertyId", f.PropertyID)
		}
		if f.Status != "" {
			q.Set("status", f.Status)
		}
	}
	var env listEnvelope[Unit]
	if err := s.c.do(ctx, http.MethodGet, []string{"units"}, q, nil, &env); err != nil {
		return resourcecache.ListResult[Unit]{}, err
	}
	return resourcecache.ListResult[Unit]{Items: env.Items, Total: env.Total}, nil
}

func (s *UnitService) Get(ctx context.Context, id string) (Unit, error) {
	var u Unit
	err := s.c.do(ctx, http.MethodGet, []string{"units", id}, nil, nil, &u)
	return u, err
}

func (s *UnitService) Create(ctx context.Context, input Unit) (Unit, error) {
	if err := input.Validate(); err != nil {
		return Unit{}, err
	}
	var u Unit
	err := s.c.do(ctx, http.MethodPost, []string{"units"}, nil, input, &u)
	return u, err
}

func (s *UnitService) Update(ctx context.Context, id string, input Unit) (Unit, error) {
	if err := input.Validate(); err != nil {
		return Unit{}, err
	}
	var u Unit
	err := s.c.do(ctx, http.MethodPut, []string{"units", id}, nil, input, &u)
	return u, err
}

func (s *UnitService) Delete(ctx context.Context, id string) error {
	return s.c.do(ctx, http.MethodDelete, []string{"units", id}, nil, nil, nil)
}

// TenantService accesses /tenants.
type TenantService struct {
	c *Client
}

func (s *TenantService) List(ctx context.Context, filter any) (resourcecache.ListResult[Tenant], error) {
	q := url.Values{}
	if f, ok := filter.(TenantFilter); ok {
		if f.PropertyID != "" {
			q.Set("propertyId", f.PropertyID)
		}
		if f.Status != "" {
			q.Set("status", f.Status)
		}
		if f.Search != "" {
			q.Set("search", f.Search)
		}
		pagingQuery(q, f.Page, f.PageSize)
	}
	var env listEnvelope[Tenant]
	if err := s.c.do(ctx, http.MethodGet, []string{"tenants"}, q, nil, &env); err != nil {
		return resourcecache.ListResult[Tenant]{}, err
	}
	return resourcecache.ListResult[Tenant]{Items: env.Items, Total: env.Total}, nil
}

func (s *TenantService) Get(ctx context.Context, id string) (Tenant, error) {
	var t Tenant
	err := s.c.do(ctx, http.MethodGet, []string{"tenants", id}, nil, nil, &t)
	return t, err
}

func (s *TenantService) Create(ctx context.Context, input Tenant) (Tenant, error) {
	if err := input.Validate(); err != nil {
		return Tenant{}, err
	}
	var t Tenant
	err := s.c.do(ctx, http.MethodPost, []string{"tenants"}, nil, input, &t)
	return t, err
}

func (s *TenantService) Update(ctx context.Context, id string, input Tenant) (Tenant, error) {
	if err := input.Validate(); err != nil {
		return Tenant{}, err
	}
	var t Tenant
	err := s.c.do(ctx, http.MethodPut, []string{"tenants", id}, nil, input, &t)
	return t, err
}

func (s *TenantService) Delete(ctx context.Context, id string) error {
	return s.c.do(ctx, http.MethodDelete, []string{"tenants", id}, nil, nil, nil)
}
