package resourcecache_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AryanKumar02/HomeIQ-sub001/cache"
	"github.com/AryanKumar02/HomeIQ-sub001/homeiq"
	"github.com/AryanKumar02/HomeIQ-sub001/pkg/testsupport"
	"github.com/AryanKumar02/HomeIQ-sub001/resourcecache"
)

type engine struct {
	store cache.Store
	exec  *resourcecache.Executor
	inv   *resourcecache.Invalidator
	coord *resourcecache.Coordinator
}

func newEngine(t *testing.T) engine {
	t.Helper()
	store := newStore(t)
	exec := resourcecache.NewExecutor(store, time.Hour, nil)
	inv := resourcecache.NewInvalidator(store, exec, nil)
	return engine{
		store: store,
		exec:  exec,
		inv:   inv,
		coord: resourcecache.NewCoordinator(store, inv, nil),
	}
}

func assignPropertyID(p homeiq.Property, id string) homeiq.Property {
	p.ID = id
	return p
}

func assignTenantID(tn homeiq.Tenant, id string) homeiq.Tenant {
	tn.ID = id
	return tn
}

func newPropertyResource(t *testing.T, eng engine, seed ...homeiq.Property) (*resourcecache.Resource[homeiq.Property], *testsupport.FakeRemote[homeiq.Property]) {
	t.Helper()
	remote := testsupport.NewFakeRemote(testsupport.PropertyID, assignPropertyID, seed...)
	res := resourcecache.New[homeiq.Property]("properties", remote, eng.store, eng.exec, eng.coord)
	return res, remote
}

func newTenantResource(t *testing.T, eng engine, rules resourcecache.Rules, seed ...homeiq.Tenant) (*resourcecache.Resource[homeiq.Tenant], *testsupport.FakeRemote[homeiq.Tenant]) {
	t.Helper()
	remote := testsupport.NewFakeRemote(testsupport.TenantID, assignTenantID, seed...)
	res := resourcecache.New[homeiq.Tenant]("tenants", remote, eng.store, eng.exec, eng.coord,
		resourcecache.WithRules[homeiq.Tenant](rules))
	return res, remote
}

func TestResource_ListFetchesOnceWhileFresh(t *testing.T) {
	eng := newEngine(t)
	res, remote := newPropertyResource(t, eng, testsupport.SeedProperties(3)...)

	filter := homeiq.PropertyFilter{Status: homeiq.PropertyAvailable}
	first, err := res.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, first.Items, 3)
	assert.Equal(t, 3, first.Total)

	second, err := res.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, remote.Calls(testsupport.OpList), "an equivalent filter must reuse the cached page")

	// A different filter is a different key.
	_, err = res.List(context.Background(), homeiq.PropertyFilter{Status: homeiq.PropertyOccupied})
	require.NoError(t, err)
	assert.Equal(t, 2, remote.Calls(testsupport.OpList))
}

func TestResource_ConcurrentDetailQueriesShareOneFetch(t *testing.T) {
	eng := newEngine(t)
	res, remote := newPropertyResource(t, eng, testsupport.SeedProperties(1)...)

	release := remote.Gate(testsupport.OpGet)
	results := make(chan homeiq.Property, 2)
	for i := 0; i < 2; i++ {
		go func() {
			p, err := res.Get(context.Background(), "p1")
			assert.NoError(t, err)
			results <- p
		}()
	}

	require.Eventually(t, func() bool {
		return remote.Calls(testsupport.OpGet) == 1
	}, time.Second, time.Millisecond)
	// Give the second query time to join the gated flight.
	time.Sleep(20 * time.Millisecond)
	release()

	a, b := <-results, <-results
	assert.Equal(t, a, b)
	assert.Equal(t, 1, remote.Calls(testsupport.OpGet), "both components share a single request")
}

func TestResource_GetWithEmptyIDIsDisabled(t *testing.T) {
	eng := newEngine(t)
	res, remote := newPropertyResource(t, eng)

	_, err := res.Get(context.Background(), "")
	require.ErrorIs(t, err, cache.ErrQueryDisabled)
	assert.Zero(t, remote.Calls(testsupport.OpGet))
}

func TestResource_UpdateOptimisticThenRollback(t *testing.T) {
	eng := newEngine(t)
	res, remote := newPropertyResource(t, eng, testsupport.SeedProperties(2)...)

	listBefore, err := res.List(context.Background(), nil)
	require.NoError(t, err)
	detailBefore, err := res.Get(context.Background(), "p1")
	require.NoError(t, err)

	edited := detailBefore
	edited.Title = "Renamed Flat"

	remote.FailNext(testsupport.OpUpdate, &homeiq.APIError{Status: http.StatusInternalServerError, Message: "server error"})
	release := remote.Gate(testsupport.OpUpdate)

	done := make(chan error, 1)
	go func() {
		_, err := res.Update(context.Background(), "p1", edited)
		done <- err
	}()

	// While the request is in flight both views show the edited title.
	require.Eventually(t, func() bool {
		ent, ok := eng.store.Get(res.DetailKey("p1"))
		if !ok {
			return false
		}
		p, ok := ent.Value.(homeiq.Property)
		return ok && p.Title == "Renamed Flat"
	}, time.Second, time.Millisecond)

	listEnt, ok := eng.store.Get(res.ListKey(nil))
	require.True(t, ok)
	optimisticList := listEnt.Value.(resourcecache.ListResult[homeiq.Property])
	assert.Equal(t, "Renamed Flat", optimisticList.Items[0].Title)

	release()
	err = <-done
	require.Error(t, err)
	var apiErr *homeiq.APIError
	assert.ErrorAs(t, err, &apiErr)

	// Both views return to their pre-mutation values.
	listAfter, err := res.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, listBefore, listAfter)
	detailAfter, err := res.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, detailBefore, detailAfter)
	assert.Equal(t, 1, remote.Calls(testsupport.OpList), "rollback must not force a refetch")
}

func TestResource_UpdateCommitUsesServerResponse(t *testing.T) {
	eng := newEngine(t)
	res, remote := newPropertyResource(t, eng, testsupport.SeedProperties(2)...)

	serverStamp := time.Date(2025, 7, 4, 9, 30, 0, 0, time.UTC)
	remote.SetUpdateTransform(func(p homeiq.Property) homeiq.Property {
		p.UpdatedAt = serverStamp
		return p
	})

	_, err := res.List(context.Background(), nil)
	require.NoError(t, err)
	before, err := res.Get(context.Background(), "p1")
	require.NoError(t, err)

	edited := before
	edited.Title = "Renamed Flat"
	updated, err := res.Update(context.Background(), "p1", edited)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Flat", updated.Title)
	assert.Equal(t, serverStamp, updated.UpdatedAt, "the caller gets the server's item, not the optimistic one")

	// Detail and every cached list hold the server's item, field for field.
	detailEnt, ok := eng.store.Get(res.DetailKey("p1"))
	require.True(t, ok)
	assert.Equal(t, updated, detailEnt.Value)

	listEnt, ok := eng.store.Get(res.ListKey(nil))
	require.True(t, ok)
	list := listEnt.Value.(resourcecache.ListResult[homeiq.Property])
	assert.Equal(t, updated, list.Items[0], "list and detail must agree after commit")
}

func TestResource_DeleteRejectionRestoresList(t *testing.T) {
	eng := newEngine(t)
	res, remote := newTenantResource(t, eng, resourcecache.Rules{}, testsupport.SeedTenants(10)...)

	before, err := res.List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, before.Items, 10)

	remote.FailNext(testsupport.OpDelete, &homeiq.APIError{Status: http.StatusBadRequest, Message: "cannot delete tenant with active lease"})
	release := remote.Gate(testsupport.OpDelete)

	done := make(chan error, 1)
	go func() { done <- res.Delete(context.Background(), "t1") }()

	// Mid-flight the list optimistically shows nine tenants.
	require.Eventually(t, func() bool {
		ent, ok := eng.store.Get(res.ListKey(nil))
		if !ok {
			return false
		}
		list, ok := ent.Value.(resourcecache.ListResult[homeiq.Tenant])
		return ok && len(list.Items) == 9 && list.Total == 9
	}, time.Second, time.Millisecond)

	release()
	err = <-done
	require.Error(t, err)
	var apiErr *homeiq.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)

	after, err := res.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, before.Items, after.Items, "all ten tenants back, original order")
	assert.Equal(t, 10, after.Total)
	assert.Equal(t, 1, remote.Calls(testsupport.OpList))
}

func TestResource_DeleteCommitRemovesDetailAndFiresRules(t *testing.T) {
	eng := newEngine(t)
	propRes, propRemote := newPropertyResource(t, eng, testsupport.SeedProperties(2)...)
	tenantRes, _ := newTenantResource(t, eng, resourcecache.Rules{
		OnDelete: []string{propRes.ListPrefix()},
	}, testsupport.SeedTenants(2)...)

	_, err := propRes.List(context.Background(), nil)
	require.NoError(t, err)
	_, err = tenantRes.List(context.Background(), nil)
	require.NoError(t, err)
	_, err = tenantRes.Get(context.Background(), "t2")
	require.NoError(t, err)

	require.NoError(t, tenantRes.Delete(context.Background(), "t2"))

	_, ok := eng.store.Get(tenantRes.DetailKey("t2"))
	assert.False(t, ok, "the deleted tenant's detail entry is removed")

	listEnt, ok := eng.store.Get(tenantRes.ListKey(nil))
	require.True(t, ok)
	list := listEnt.Value.(resourcecache.ListResult[homeiq.Tenant])
	assert.Len(t, list.Items, 1)
	assert.Equal(t, "t1", list.Items[0].ID)

	// The cross-entity rule marks the property lists stale (occupancy counts
	// may have changed server-side). Nobody subscribes, so no refetch yet.
	propEnt, ok := eng.store.Get(propRes.ListKey(nil))
	require.True(t, ok)
	assert.Equal(t, cache.StatusStale, propEnt.Status)
	assert.Equal(t, 1, propRemote.Calls(testsupport.OpList))
}

func TestResource_FailedMutationDoesNotInvalidate(t *testing.T) {
	eng := newEngine(t)
	propRes, _ := newPropertyResource(t, eng, testsupport.SeedProperties(1)...)
	tenantRes, tenantRemote := newTenantResource(t, eng, resourcecache.Rules{
		OnDelete: []string{propRes.ListPrefix()},
	}, testsupport.SeedTenants(1)...)

	_, err := propRes.List(context.Background(), nil)
	require.NoError(t, err)

	tenantRemote.FailNext(testsupport.OpDelete, &homeiq.APIError{Status: http.StatusBadRequest, Message: "cannot delete tenant with active lease"})
	require.Error(t, tenantRes.Delete(context.Background(), "t1"))

	propEnt, ok := eng.store.Get(propRes.ListKey(nil))
	require.True(t, ok)
	assert.Equal(t, cache.StatusFresh, propEnt.Status, "dependents are untouched when the mutation fails")
}

func TestResource_CreateSwapsPlaceholderForServerItem(t *testing.T) {
	eng := newEngine(t)
	res, remote := newTenantResource(t, eng, resourcecache.Rules{}, testsupport.SeedTenants(1)...)

	_, err := res.List(context.Background(), nil)
	require.NoError(t, err)

	input := homeiq.Tenant{
		PropertyID: "p1",
		FirstName:  "New",
		LastName:   "Tenant",
		Email:      "new@example.com",
		Status:     homeiq.TenantPending,
		LeaseStart: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		LeaseEnd:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}

	release := remote.Gate(testsupport.OpCreate)
	done := make(chan homeiq.Tenant, 1)
	go func() {
		created, err := res.Create(context.Background(), input)
		assert.NoError(t, err)
		done <- created
	}()

	// While the create is in flight the list shows the item under a
	// placeholder id.
	require.Eventually(t, func() bool {
		ent, ok := eng.store.Get(res.ListKey(nil))
		if !ok {
			return false
		}
		list, ok := ent.Value.(resourcecache.ListResult[homeiq.Tenant])
		if !ok || len(list.Items) != 2 || list.Total != 2 {
			return false
		}
		return strings.HasPrefix(list.Items[1].ID, "optimistic-")
	}, time.Second, time.Millisecond)

	release()
	created := <-done
	assert.Equal(t, "srv-1", created.ID)

	ent, ok := eng.store.Get(res.ListKey(nil))
	require.True(t, ok)
	list := ent.Value.(resourcecache.ListResult[homeiq.Tenant])
	require.Len(t, list.Items, 2)
	assert.Equal(t, "srv-1", list.Items[1].ID, "the placeholder is swapped for the server's item")
	assert.Equal(t, cache.StatusStale, ent.Status, "own lists go stale so ordering catches up on the next read")
}

func TestResource_StaleTimeOverride(t *testing.T) {
	eng := newEngine(t)
	remote := testsupport.NewFakeRemote(testsupport.PropertyID, assignPropertyID, testsupport.SeedProperties(1)...)
	res := resourcecache.New[homeiq.Property]("properties", remote, eng.store, eng.exec, eng.coord,
		resourcecache.WithResourceStaleTime[homeiq.Property](0))

	_, err := res.List(context.Background(), nil)
	require.NoError(t, err)
	_, err = res.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, remote.Calls(testsupport.OpList), "zero stale time disables the freshness short-circuit")
}
