package secure

import (
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hypernetix/hyperspot-sub000/dialect"
	"github.com/hypernetix/hyperspot-sub000/dialect/sql"
	"github.com/hypernetix/hyperspot-sub000/entity"
	"github.com/hypernetix/hyperspot-sub000/filter"
)

// order is the tenant-scoped fixture entity. It carries tenant and
// resource columns and explicitly no owner or type attribution.
type order struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Status   string
	Amount   float64
	Seq      int64
}

var (
	orderColumns = []string{"id", "tenant_id", "status", "amount", "seq"}

	orderFields = entity.MustFieldMap(
		entity.Field{Name: "id", Column: "id", Kind: entity.KindUUID, Unique: true},
		entity.Field{Name: "status", Column: "status", Kind: entity.KindString},
		entity.Field{Name: "amount", Column: "amount", Kind: entity.KindFloat64},
		entity.Field{Name: "seq", Column: "seq", Kind: entity.KindInt64},
	)

	orderStatus = filter.StringRef[order]("status")
	orderAmount = filter.Float64Ref[order]("amount")
)

func orderSpec() *entity.Spec[order] {
	return &entity.Spec[order]{
		Label:   "order",
		Table:   "orders",
		Columns: orderColumns,
		Scope: entity.Restricted(
			entity.Column("tenant_id"),
			entity.Column("id"),
			entity.Absent(),
			entity.Absent(),
		),
		Fields:  orderFields,
		ScanRow: scanOrder,
		Value:   orderValue,
	}
}

func scanOrder(row sql.ColumnScanner) (*order, error) {
	var (
		o       order
		id, tid string
	)
	if err := row.Scan(&id, &tid, &o.Status, &o.Amount, &o.Seq); err != nil {
		return nil, err
	}
	var err error
	if o.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("order: parsing id: %w", err)
	}
	if o.TenantID, err = uuid.Parse(tid); err != nil {
		return nil, fmt.Errorf("order: parsing tenant_id: %w", err)
	}
	return &o, nil
}

func orderValue(o *order, column string) (any, error) {
	switch column {
	case "id":
		return o.ID, nil
	case "tenant_id":
		return o.TenantID, nil
	case "status":
		return o.Status, nil
	case "amount":
		return o.Amount, nil
	case "seq":
		return o.Seq, nil
	default:
		return nil, fmt.Errorf("order: unknown column %q", column)
	}
}

// document is the fixture entity with all four dimensions declared.
type document struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	Kind    string
}

var documentFields = entity.MustFieldMap(
	entity.Field{Name: "id", Column: "id", Kind: entity.KindUUID, Unique: true},
	entity.Field{Name: "kind", Column: "doc_type", Kind: entity.KindString},
)

func documentSpec() *entity.Spec[document] {
	return &entity.Spec[document]{
		Label:   "document",
		Table:   "documents",
		Columns: []string{"id", "owner_id", "doc_type"},
		Scope: entity.Restricted(
			entity.Column("tenant_id"),
			entity.Column("id"),
			entity.Column("owner_id"),
			entity.Column("doc_type"),
		),
		Fields: documentFields,
		ScanRow: func(row sql.ColumnScanner) (*document, error) {
			var (
				d       document
				id, oid string
			)
			if err := row.Scan(&id, &oid, &d.Kind); err != nil {
				return nil, err
			}
			var err error
			if d.ID, err = uuid.Parse(id); err != nil {
				return nil, err
			}
			if d.OwnerID, err = uuid.Parse(oid); err != nil {
				return nil, err
			}
			return &d, nil
		},
		Value: func(d *document, column string) (any, error) {
			switch column {
			case "id":
				return d.ID, nil
			case "owner_id":
				return d.OwnerID, nil
			case "doc_type":
				return d.Kind, nil
			default:
				return nil, fmt.Errorf("document: unknown column %q", column)
			}
		},
	}
}

// setting is the unrestricted fixture entity.
type setting struct {
	Key   string
	Value string
}

func settingSpec() *entity.Spec[setting] {
	return &entity.Spec[setting]{
		Label:   "setting",
		Table:   "settings",
		Columns: []string{"key", "value"},
		Scope:   entity.Unrestricted(),
		Fields: entity.MustFieldMap(
			entity.Field{Name: "key", Column: "key", Kind: entity.KindString, Unique: true},
		),
		ScanRow: func(row sql.ColumnScanner) (*setting, error) {
			var s setting
			if err := row.Scan(&s.Key, &s.Value); err != nil {
				return nil, err
			}
			return &s, nil
		},
		Value: func(s *setting, column string) (any, error) {
			switch column {
			case "key":
				return s.Key, nil
			case "value":
				return s.Value, nil
			default:
				return nil, fmt.Errorf("setting: unknown column %q", column)
			}
		},
	}
}

// newMockDriver returns a postgres-dialect driver over sqlmock with
// exact statement matching, so tests assert the rendered SQL verbatim.
func newMockDriver(t *testing.T) (*sql.Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	drv := sql.OpenDB(dialect.Postgres, db)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		drv.Close()
	})
	return drv, mock
}

func sqlmockRowsCount(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func orderRows(orders ...*order) *sqlmock.Rows {
	rows := sqlmock.NewRows(orderColumns)
	for _, o := range orders {
		rows.AddRow(o.ID.String(), o.TenantID.String(), o.Status, o.Amount, o.Seq)
	}
	return rows
}
