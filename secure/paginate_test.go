package secure

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/hypernetix/hyperspot-sub000/dialect"
	"github.com/hypernetix/hyperspot-sub000/dialect/sql"
	"github.com/hypernetix/hyperspot-sub000/entity"
	"github.com/hypernetix/hyperspot-sub000/paginate"
	"github.com/hypernetix/hyperspot-sub000/security"
)

const orderSchema = `CREATE TABLE orders (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	status TEXT NOT NULL,
	amount REAL NOT NULL,
	seq INTEGER NOT NULL
)`

func newSQLiteDriver(t *testing.T, name string) *sql.Driver {
	t.Helper()
	drv, err := sql.Open(dialect.SQLite, "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { drv.Close() })
	require.NoError(t, drv.Exec(context.Background(), orderSchema, []any{}, nil))
	return drv
}

func seedOrders(t *testing.T, drv dialect.Driver, tenant uuid.UUID, status string, amounts []float64) []uuid.UUID {
	t.Helper()
	scope := tenantScope(tenant)
	ids := make([]uuid.UUID, len(amounts))
	for i, amount := range amounts {
		ids[i] = uuid.New()
		ins, err := InsertOne(drv, orderSpec()).
			Set("id", ids[i].String()).
			Set("tenant_id", tenant.String()).
			Set("status", status).
			Set("amount", amount).
			Set("seq", int64(i+1)).
			Apply(scope)
		require.NoError(t, err)
		require.NoError(t, ins.Exec(context.Background()))
	}
	return ids
}

func scopedOrders(t *testing.T, drv dialect.Driver, scope security.AccessScope) *Scoped[order] {
	t.Helper()
	q, err := ApplyScope(Query(drv, orderSpec()), scope)
	require.NoError(t, err)
	return q
}

func TestPaginateWalk(t *testing.T) {
	drv := newSQLiteDriver(t, "secure_paginate_walk")
	ctx := context.Background()
	tenantA, tenantB := uuid.New(), uuid.New()

	// Equal amounts across a page boundary exercise the tiebreaker: no
	// row may be skipped or served twice.
	seedOrders(t, drv, tenantA, "paid", []float64{30, 20, 20, 20, 10})
	seedOrders(t, drv, tenantB, "paid", []float64{999})

	req := paginate.Request[order]{Order: []string{"-amount"}, Limit: 2}
	seen := make(map[uuid.UUID]int)
	pages := 0
	for {
		page, err := scopedOrders(t, drv, tenantScope(tenantA)).
			Paginate(ctx, req, paginate.DefaultLimits, paginate.Options{})
		require.NoError(t, err)
		for _, o := range page.Items {
			assert.Equal(t, tenantA, o.TenantID)
			seen[o.ID]++
		}
		pages++
		if !page.PageInfo.HasMore {
			break
		}
		require.NotEmpty(t, page.PageInfo.NextCursor)
		req = paginate.Request[order]{Cursor: page.PageInfo.NextCursor, Limit: 2}
	}

	assert.Equal(t, 3, pages)
	assert.Len(t, seen, 5)
	for id, n := range seen {
		assert.Equal(t, 1, n, "row %s served %d times", id, n)
	}
}

func TestPaginateBackward(t *testing.T) {
	drv := newSQLiteDriver(t, "secure_paginate_backward")
	ctx := context.Background()
	tenant := uuid.New()
	seedOrders(t, drv, tenant, "paid", []float64{50, 40, 30, 20, 10})

	first, err := scopedOrders(t, drv, tenantScope(tenant)).
		Paginate(ctx, paginate.Request[order]{Order: []string{"-amount"}, Limit: 2}, paginate.DefaultLimits, paginate.Options{})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Empty(t, first.PageInfo.PrevCursor)

	second, err := scopedOrders(t, drv, tenantScope(tenant)).
		Paginate(ctx, paginate.Request[order]{Cursor: first.PageInfo.NextCursor, Limit: 2}, paginate.DefaultLimits, paginate.Options{})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	require.NotEmpty(t, second.PageInfo.PrevCursor)

	// Travelling back from the second page returns the first page rows
	// in request order.
	back, err := scopedOrders(t, drv, tenantScope(tenant)).
		Paginate(ctx, paginate.Request[order]{Cursor: second.PageInfo.PrevCursor, Limit: 2}, paginate.DefaultLimits, paginate.Options{})
	require.NoError(t, err)
	require.Len(t, back.Items, 2)
	assert.Equal(t, first.Items[0].ID, back.Items[0].ID)
	assert.Equal(t, first.Items[1].ID, back.Items[1].ID)
}

func TestPaginateCursorBindsRequest(t *testing.T) {
	drv := newSQLiteDriver(t, "secure_paginate_binding")
	ctx := context.Background()
	tenant := uuid.New()
	seedOrders(t, drv, tenant, "paid", []float64{50, 40, 30})
	seedOrders(t, drv, tenant, "pending", []float64{5})

	paidFilter := orderStatus.EQ("paid")
	page, err := scopedOrders(t, drv, tenantScope(tenant)).
		Paginate(ctx, paginate.Request[order]{Filter: paidFilter, Order: []string{"-amount"}, Limit: 2}, paginate.DefaultLimits, paginate.Options{})
	require.NoError(t, err)
	require.True(t, page.PageInfo.HasMore)
	cursor := page.PageInfo.NextCursor

	// The cursor already binds the order; restating one is rejected.
	_, err = scopedOrders(t, drv, tenantScope(tenant)).
		Paginate(ctx, paginate.Request[order]{Cursor: cursor, Order: []string{"-amount"}, Limit: 2}, paginate.DefaultLimits, paginate.Options{})
	require.ErrorIs(t, err, paginate.ErrOrderWithCursor)

	// Changing the filter between pages invalidates the cursor.
	_, err = scopedOrders(t, drv, tenantScope(tenant)).
		Paginate(ctx, paginate.Request[order]{Filter: orderStatus.EQ("pending"), Cursor: cursor, Limit: 2}, paginate.DefaultLimits, paginate.Options{})
	require.ErrorIs(t, err, paginate.ErrCursorFilterMismatch)

	// Unchanged filter continues cleanly.
	next, err := scopedOrders(t, drv, tenantScope(tenant)).
		Paginate(ctx, paginate.Request[order]{Filter: paidFilter, Cursor: cursor, Limit: 2}, paginate.DefaultLimits, paginate.Options{})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Equal(t, "paid", next.Items[0].Status)
	assert.False(t, next.PageInfo.HasMore)
}

func TestPaginateClampsLimit(t *testing.T) {
	drv := newSQLiteDriver(t, "secure_paginate_clamp")
	ctx := context.Background()
	tenant := uuid.New()
	seedOrders(t, drv, tenant, "paid", []float64{5, 4, 3, 2, 1})

	// Oversized requests are clamped, never rejected.
	page, err := scopedOrders(t, drv, tenantScope(tenant)).
		Paginate(ctx, paginate.Request[order]{Order: []string{"-amount"}, Limit: 500}, paginate.Limits{Default: 2, Max: 3}, paginate.Options{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.True(t, page.PageInfo.HasMore)

	// A request without an explicit size gets the configured default.
	page, err = scopedOrders(t, drv, tenantScope(tenant)).
		Paginate(ctx, paginate.Request[order]{Order: []string{"-amount"}}, paginate.Limits{Default: 2, Max: 3}, paginate.Options{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestPaginateStableUnderInserts(t *testing.T) {
	drv := newSQLiteDriver(t, "secure_paginate_inserts")
	ctx := context.Background()
	tenant := uuid.New()
	original := seedOrders(t, drv, tenant, "paid", []float64{1, 2, 3, 4, 5, 6})

	// Rows written between page fetches may join the result set, but no
	// pre-existing row may be skipped or served twice.
	req := paginate.Request[order]{Order: []string{"+seq"}, Limit: 2}
	seen := make(map[uuid.UUID]int)
	nextSeq := int64(100)
	for {
		page, err := scopedOrders(t, drv, tenantScope(tenant)).
			Paginate(ctx, req, paginate.DefaultLimits, paginate.Options{})
		require.NoError(t, err)
		for _, o := range page.Items {
			seen[o.ID]++
		}
		if !page.PageInfo.HasMore {
			break
		}

		ins, err := InsertOne(drv, orderSpec()).
			Set("id", uuid.New().String()).
			Set("tenant_id", tenant.String()).
			Set("status", "paid").
			Set("amount", 7.0).
			Set("seq", nextSeq).
			Apply(tenantScope(tenant))
		require.NoError(t, err)
		require.NoError(t, ins.Exec(ctx))
		nextSeq++

		req = paginate.Request[order]{Cursor: page.PageInfo.NextCursor, Limit: 2}
	}

	for _, id := range original {
		assert.Equal(t, 1, seen[id], "original row %s", id)
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "row %s served %d times", id, n)
	}
	assert.GreaterOrEqual(t, len(seen), len(original))
}

// event is a fixture entity ordered by a text timestamp column, the
// form the library stores time fields in.
type event struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	CreatedAt time.Time
}

func eventSpec() *entity.Spec[event] {
	return &entity.Spec[event]{
		Label:   "event",
		Table:   "events",
		Columns: []string{"id", "tenant_id", "created_at"},
		Scope: entity.Restricted(
			entity.Column("tenant_id"),
			entity.Column("id"),
			entity.Absent(),
			entity.Absent(),
		),
		Fields: entity.MustFieldMap(
			entity.Field{Name: "id", Column: "id", Kind: entity.KindUUID, Unique: true},
			entity.Field{Name: "created_at", Column: "created_at", Kind: entity.KindTime},
		),
		ScanRow: func(row sql.ColumnScanner) (*event, error) {
			var (
				e           event
				id, tid, ts string
			)
			if err := row.Scan(&id, &tid, &ts); err != nil {
				return nil, err
			}
			var err error
			if e.ID, err = uuid.Parse(id); err != nil {
				return nil, err
			}
			if e.TenantID, err = uuid.Parse(tid); err != nil {
				return nil, err
			}
			if e.CreatedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
				return nil, err
			}
			return &e, nil
		},
		Value: func(e *event, column string) (any, error) {
			switch column {
			case "id":
				return e.ID, nil
			case "tenant_id":
				return e.TenantID, nil
			case "created_at":
				return e.CreatedAt, nil
			default:
				return nil, fmt.Errorf("event: unknown column %q", column)
			}
		},
	}
}

func seedEvent(t *testing.T, drv dialect.Driver, tenant uuid.UUID, at time.Time) uuid.UUID {
	t.Helper()
	id := uuid.New()
	ins, err := InsertOne(drv, eventSpec()).
		Set("id", id.String()).
		Set("tenant_id", tenant.String()).
		Set("created_at", at.UTC().Format(time.RFC3339Nano)).
		Apply(tenantScope(tenant))
	require.NoError(t, err)
	require.NoError(t, ins.Exec(context.Background()))
	return id
}

func TestPaginateTimeOrdered(t *testing.T) {
	drv := newSQLiteDriver(t, "secure_paginate_time")
	require.NoError(t, drv.Exec(context.Background(), `CREATE TABLE events (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`, []any{}, nil))
	ctx := context.Background()
	tenantA, tenantB := uuid.New(), uuid.New()

	// Timestamp keyset comparisons must collate against the stored text
	// form; a mismatched binding silently drops every later page.
	base := time.Date(2026, 1, 2, 4, 4, 5, 0, time.UTC)
	older := seedEvent(t, drv, tenantA, base)
	newer := seedEvent(t, drv, tenantA, base.Add(time.Hour))
	seedEvent(t, drv, tenantB, base.Add(2*time.Hour))

	scoped := func() *Scoped[event] {
		q, err := ApplyScope(Query(drv, eventSpec()), tenantScope(tenantA))
		require.NoError(t, err)
		return q
	}

	first, err := scoped().Paginate(ctx,
		paginate.Request[event]{Order: []string{"-created_at"}, Limit: 1},
		paginate.DefaultLimits, paginate.Options{})
	require.NoError(t, err)
	require.Len(t, first.Items, 1)
	assert.Equal(t, newer, first.Items[0].ID)
	require.True(t, first.PageInfo.HasMore)
	require.NotEmpty(t, first.PageInfo.NextCursor)

	second, err := scoped().Paginate(ctx,
		paginate.Request[event]{Cursor: first.PageInfo.NextCursor, Limit: 1},
		paginate.DefaultLimits, paginate.Options{})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, older, second.Items[0].ID)
	assert.Equal(t, tenantA, second.Items[0].TenantID)
	assert.False(t, second.PageInfo.HasMore)
}

func TestPaginateDeferredError(t *testing.T) {
	drv := newSQLiteDriver(t, "secure_paginate_deferred")
	ctx := context.Background()
	tenant := uuid.New()

	badSpec := orderSpec()
	badSpec.Scope = entity.Restricted(
		entity.Column("tenant_id"),
		entity.Absent(),
		entity.Absent(),
		entity.Absent(),
	)
	bad, err := ApplyScope(Query(drv, badSpec), tenantScope(tenant))
	require.NoError(t, err)
	_, err = bad.AndID(uuid.New()).
		Paginate(ctx, paginate.Request[order]{Limit: 2}, paginate.DefaultLimits, paginate.Options{})
	require.ErrorIs(t, err, ErrUnsupportedDimension)
}
