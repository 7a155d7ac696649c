package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// row is one catalog row in column order.
type row []any

// fakeRows serves rows positionally through Scan.
type fakeRows struct {
	rows   []row
	i      int
	err    error
	closed bool
}

func (f *fakeRows) Close()                                       { f.closed = true }
func (f *fakeRows) Err() error                                   { return f.err }
func (f *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (f *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (f *fakeRows) Values() ([]any, error)                       { return f.rows[f.i-1], nil }
func (f *fakeRows) RawValues() [][]byte                          { return nil }
func (f *fakeRows) Conn() *pgx.Conn                              { return nil }

func (f *fakeRows) Next() bool {
	if f.i >= len(f.rows) {
		return false
	}
	f.i++
	return true
}

func (f *fakeRows) Scan(dest ...any) error {
	return scanInto(f.rows[f.i-1], dest)
}

// fakeRow is a single-row result.
type fakeRow struct {
	r   row
	err error
}

func (f fakeRow) Scan(dest ...any) error {
	if f.err != nil {
		return f.err
	}
	return scanInto(f.r, dest)
}

func scanInto(r row, dest []any) error {
	if len(r) != len(dest) {
		return fmt.Errorf("scan: %d values into %d targets", len(r), len(dest))
	}
	for i, v := range r {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *float64:
			*d = v.(float64)
		case *bool:
			*d = v.(bool)
		case *[]string:
			if v != nil {
				*d = v.([]string)
			}
		case **string:
			if v != nil {
				s := v.(string)
				*d = &s
			}
		case **float64:
			if v != nil {
				f := v.(float64)
				*d = &f
			}
		default:
			return fmt.Errorf("scan: unsupported target %T", dest[i])
		}
	}
	return nil
}

// fakeDB records queries and answers with canned results.
type fakeDB struct {
	rows    *fakeRows
	row     fakeRow
	err     error
	pingErr error

	lastSQL  string
	lastArgs []any
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.lastSQL, f.lastArgs = sql, args
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.lastSQL, f.lastArgs = sql, args
	return f.row
}

func (f *fakeDB) Ping(_ context.Context) error { return f.pingErr }

func santoriniRow() row {
	return row{
		"d1", "Santorini", "Fira", "Greece", "Caldera views", 890.0,
		[]string{"sailing"}, []string{"island"}, []string{"playa"}, 4.8, true, "https://img/santorini.jpg",
		36.4167, 25.4333, "Fira 847 00",
	}
}

func noLocationRow(id string) row {
	return row{
		id, "Cusco", "Cusco", "Peru", "", 780.0,
		nil, nil, []string{"historia"}, 4.5, false, nil,
		nil, nil, nil,
	}
}
