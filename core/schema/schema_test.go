package schema_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/FocuswithJustin/litescan/core/ddl"
	apperrors "github.com/FocuswithJustin/litescan/core/errors"
	"github.com/FocuswithJustin/litescan/core/record"
	"github.com/FocuswithJustin/litescan/core/schema"
)

func tableRow(name, sql string, root uint32) schema.Row {
	return schema.Row{Kind: "table", Name: name, TableName: name, RootPage: root, SQL: sql}
}

func indexRow(name, table, sql string, root uint32) schema.Row {
	return schema.Row{Kind: "index", Name: name, TableName: table, RootPage: root, SQL: sql}
}

func buildCatalog(t *testing.T, rows ...schema.Row) *schema.Catalog {
	t.Helper()
	cat, err := schema.Build(rows, ddl.New())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return cat
}

func TestBuildTableAndIndex(t *testing.T) {
	// Index row first: attachment must not depend on row order.
	cat := buildCatalog(t,
		indexRow("idx", "t", "CREATE INDEX idx ON t (v)", 3),
		tableRow("t", "CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)", 2),
	)

	tbl, ok := cat.FindTable("t")
	if !ok {
		t.Fatal("FindTable(t) not found")
	}
	if tbl.RootPage != 2 {
		t.Errorf("RootPage = %d, want 2", tbl.RootPage)
	}
	if len(tbl.Columns) != 2 {
		t.Fatalf("Columns = %d, want 2", len(tbl.Columns))
	}
	if !tbl.Columns[0].PrimaryKey || tbl.Columns[0].Name != "id" {
		t.Errorf("Columns[0] = %+v, want primary key id", tbl.Columns[0])
	}
	if tbl.Columns[1].PrimaryKey {
		t.Errorf("Columns[1] = %+v, want non-key", tbl.Columns[1])
	}
	if len(tbl.Indexes) != 1 {
		t.Fatalf("Indexes = %d, want 1", len(tbl.Indexes))
	}
	idx := tbl.Indexes[0]
	if idx.Name != "idx" || idx.Columns[0] != "v" || idx.TableName != "t" || idx.RootPage != 3 {
		t.Errorf("Indexes[0] = %+v", idx)
	}
}

func TestBuildOrphanIndex(t *testing.T) {
	cat, err := schema.Build([]schema.Row{
		tableRow("t", "CREATE TABLE t (a)", 2),
		indexRow("i", "missing", "CREATE INDEX i ON missing (a)", 3),
	}, ddl.New())
	if cat != nil {
		t.Error("Build() returned a catalog alongside the error")
	}
	if !errors.Is(err, apperrors.ErrOrphanIndex) {
		t.Fatalf("Build() error = %v, want ErrOrphanIndex", err)
	}
	var oe *apperrors.OrphanIndexError
	if !errors.As(err, &oe) || oe.Index != "i" || oe.Table != "missing" {
		t.Errorf("error = %#v", err)
	}
}

func TestBuildParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		row     schema.Row
		wantErr bool
	}{
		{"bad table ddl", tableRow("t", "CREATE TABLE t (", 2), true},
		{"bad index ddl", indexRow("i", "t", "CREATE INDEX i", 3), true},
		{"bad view ddl is ignored", schema.Row{Kind: "view", Name: "v", SQL: "garbage"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := schema.Build([]schema.Row{tt.row}, ddl.New())
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Build() error = %v", err)
				}
				return
			}
			if cat != nil {
				t.Error("Build() returned a partial catalog")
			}
			if !errors.Is(err, apperrors.ErrSchemaParse) {
				t.Fatalf("Build() error = %v, want ErrSchemaParse", err)
			}
			var se *apperrors.SchemaParseError
			if !errors.As(err, &se) || se.Name != tt.row.Name || se.Kind != tt.row.Kind {
				t.Errorf("error = %#v", err)
			}
		})
	}
}

func TestUserTables(t *testing.T) {
	cat := buildCatalog(t,
		tableRow("b", "CREATE TABLE b (x)", 2),
		tableRow("sqlite_sequence", "CREATE TABLE sqlite_sequence(name,seq)", 3),
		tableRow("a", "CREATE TABLE a (y)", 4),
		schema.Row{Kind: "view", Name: "v", SQL: "CREATE VIEW v AS SELECT x FROM b"},
		schema.Row{Kind: "trigger", Name: "tr", TableName: "a", SQL: "CREATE TRIGGER tr AFTER INSERT ON a BEGIN DELETE FROM b; END"},
	)

	var names []string
	for tbl := range cat.UserTables() {
		names = append(names, tbl.Name)
	}
	if !slices.Equal(names, []string{"b", "a"}) {
		t.Errorf("UserTables() = %v, want [b a]", names)
	}
	if !slices.Equal(cat.TableNames(), names) {
		t.Errorf("TableNames() = %v, want %v", cat.TableNames(), names)
	}
	if cat.Len() != 3 {
		t.Errorf("Len() = %d, want 3", cat.Len())
	}

	if _, ok := cat.FindTable("sqlite_sequence"); ok {
		t.Error("FindTable(sqlite_sequence) found an internal table")
	}
	if tbl, ok := cat.LookupTable("sqlite_sequence"); !ok || tbl.IsUserTable() {
		t.Errorf("LookupTable(sqlite_sequence) = %v, %v", tbl, ok)
	}
	if _, ok := cat.FindTable("v"); ok {
		t.Error("FindTable(v) found a view")
	}
}

func TestUserTablesStopsEarly(t *testing.T) {
	cat := buildCatalog(t,
		tableRow("a", "CREATE TABLE a (x)", 2),
		tableRow("b", "CREATE TABLE b (x)", 3),
	)
	n := 0
	for range cat.UserTables() {
		n++
		break
	}
	if n != 1 {
		t.Errorf("iterations = %d, want 1", n)
	}
}

func TestDuplicateTableName(t *testing.T) {
	cat := buildCatalog(t,
		tableRow("t", "CREATE TABLE t (a)", 2),
		tableRow("t", "CREATE TABLE t (a, b)", 5),
	)
	if got := cat.TableNames(); !slices.Equal(got, []string{"t"}) {
		t.Errorf("TableNames() = %v, want [t]", got)
	}
	tbl, _ := cat.FindTable("t")
	if tbl.RootPage != 5 || len(tbl.Columns) != 2 {
		t.Errorf("table = %+v, want the later definition", tbl)
	}
}

func TestFindTableCaseInsensitive(t *testing.T) {
	cat := buildCatalog(t,
		tableRow("Users", "CREATE TABLE Users (Name TEXT)", 2),
		indexRow("users_name", "users", "CREATE INDEX users_name ON users (name)", 3),
	)
	tbl, ok := cat.FindTable("USERS")
	if !ok {
		t.Fatal("FindTable(USERS) not found")
	}
	if len(tbl.Indexes) != 1 {
		t.Errorf("Indexes = %d, want the index attached through a case-insensitive match", len(tbl.Indexes))
	}
	if i, col, ok := tbl.FindColumn("name"); !ok || i != 0 || col.Name != "Name" {
		t.Errorf("FindColumn(name) = %d, %v, %v", i, col, ok)
	}
}

func TestFindColumn(t *testing.T) {
	cat := buildCatalog(t,
		tableRow("t", "CREATE TABLE t (a INTEGER, b TEXT, c REAL)", 2),
		indexRow("t_cb", "t", "CREATE INDEX t_cb ON t (c, b)", 3),
	)
	tbl, _ := cat.FindTable("t")

	if i, col, ok := tbl.FindColumn("c"); !ok || i != 2 || col.Type != "REAL" {
		t.Errorf("FindColumn(c) = %d, %+v, %v", i, col, ok)
	}
	if _, _, ok := tbl.FindColumn("z"); ok {
		t.Error("FindColumn(z) found a column")
	}

	idx := &tbl.Indexes[0]
	if i, name, ok := idx.FindColumn("b"); !ok || i != 1 || name != "b" {
		t.Errorf("Index.FindColumn(b) = %d, %q, %v", i, name, ok)
	}
	if _, _, ok := idx.FindColumn("a"); ok {
		t.Error("Index.FindColumn(a) found a column")
	}
}

func TestRowIDAlias(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want int
		ok   bool
	}{
		{"integer primary key", "CREATE TABLE t (x TEXT, id INTEGER PRIMARY KEY)", 1, true},
		{"int is not an alias", "CREATE TABLE t (id INT PRIMARY KEY)", -1, false},
		{"composite key", "CREATE TABLE t (a INTEGER, b INTEGER, PRIMARY KEY (a, b))", -1, false},
		{"without rowid", "CREATE TABLE t (id INTEGER PRIMARY KEY) WITHOUT ROWID", -1, false},
		{"no key", "CREATE TABLE t (a)", -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := buildCatalog(t, tableRow("t", tt.sql, 2))
			tbl, _ := cat.FindTable("t")
			got, ok := tbl.RowIDAlias()
			if got != tt.want || ok != tt.ok {
				t.Errorf("RowIDAlias() = %d, %v, want %d, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestFindApplicableIndex(t *testing.T) {
	cat := buildCatalog(t,
		tableRow("t", "CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT, w TEXT)", 2),
		indexRow("idx", "t", "CREATE INDEX idx ON t (v)", 3),
		indexRow("idx_wv", "t", "CREATE INDEX idx_wv ON t (w, v)", 4),
		indexRow("idx_v2", "t", "CREATE INDEX idx_v2 ON t (v, w)", 5),
	)
	tbl, _ := cat.FindTable("t")

	tests := []struct {
		name   string
		filter *schema.Filter
		want   string
	}{
		{"no filter", nil, ""},
		{"leading column", &schema.Filter{Field: "v", Value: "x"}, "idx"},
		{"second index leading column", &schema.Filter{Field: "w"}, "idx_wv"},
		{"case-insensitive", &schema.Filter{Field: "V"}, "idx"},
		{"unknown field", &schema.Filter{Field: "nonexistent"}, ""},
		{"not a leading column", &schema.Filter{Field: "id"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tbl.FindApplicableIndex(tt.filter)
			if tt.want == "" {
				if got != nil {
					t.Errorf("FindApplicableIndex() = %s, want nil", got.Name)
				}
				return
			}
			if got == nil || got.Name != tt.want {
				t.Errorf("FindApplicableIndex() = %v, want %s", got, tt.want)
			}
		})
	}
}

func schemaRecord(rowid int64, kind, name, tbl string, root int64, sql record.Value) *record.Record {
	rec, err := record.Decode(rowid, record.Encode([]record.Value{
		record.Text(kind), record.Text(name), record.Text(tbl), record.Int(root), sql,
	}))
	if err != nil {
		panic(err)
	}
	return rec
}

func TestFromRecord(t *testing.T) {
	rec := schemaRecord(4, "index", "idx", "t", 3, record.Text("CREATE INDEX idx ON t (v)"))
	row, err := schema.FromRecord(rec)
	if err != nil {
		t.Fatalf("FromRecord() error = %v", err)
	}
	want := schema.Row{RowID: 4, Kind: "index", Name: "idx", TableName: "t", RootPage: 3, SQL: "CREATE INDEX idx ON t (v)"}
	if *row != want {
		t.Errorf("FromRecord() = %+v, want %+v", *row, want)
	}

	// rootpage stored as the constant one
	rec = schemaRecord(1, "table", "t", "t", 1, record.Text("CREATE TABLE t (a)"))
	if row, err := schema.FromRecord(rec); err != nil || row.RootPage != 1 {
		t.Errorf("FromRecord() = %+v, %v", row, err)
	}
}

func TestFromRecordShapeErrors(t *testing.T) {
	good := []record.Value{
		record.Text("table"), record.Text("t"), record.Text("t"), record.Int(2), record.Text("CREATE TABLE t (a)"),
	}
	replace := func(i int, v record.Value) *record.Record {
		vals := slices.Clone(good)
		vals[i] = v
		return &record.Record{RowID: 1, Values: vals}
	}

	tests := []struct {
		name  string
		rec   *record.Record
		field string
	}{
		{"too few columns", &record.Record{Values: good[:4]}, "record"},
		{"too many columns", &record.Record{Values: append(slices.Clone(good), record.Null())}, "record"},
		{"kind not text", replace(0, record.Int(5)), "kind"},
		{"name null", replace(1, record.Null()), "name"},
		{"tbl_name blob", replace(2, record.Blob([]byte("t"))), "tbl_name"},
		{"rootpage text", replace(3, record.Text("2")), "rootpage"},
		{"rootpage negative", replace(3, record.Int(-1)), "rootpage"},
		{"sql null", replace(4, record.Null()), "sql"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := schema.FromRecord(tt.rec)
			if row != nil {
				t.Error("FromRecord() returned a row alongside the error")
			}
			if !errors.Is(err, apperrors.ErrInvalidSchemaShape) {
				t.Fatalf("FromRecord() error = %v, want ErrInvalidSchemaShape", err)
			}
			var se *apperrors.ShapeError
			if !errors.As(err, &se) || se.Field != tt.field {
				t.Errorf("error = %v, want field %s", err, tt.field)
			}
		})
	}
}

// memSource serves encoded cells for a single root page.
type memSource struct {
	root  uint32
	cells []record.Record
}

func (m *memSource) ScanTable(root uint32, fn func(int64, []byte) error) error {
	if root != m.root {
		return apperrors.NewNotFound("page", "root")
	}
	for _, c := range m.cells {
		if err := fn(c.RowID, record.Encode(c.Values)); err != nil {
			return err
		}
	}
	return nil
}

func TestLoad(t *testing.T) {
	src := &memSource{root: schema.SchemaRootPage, cells: []record.Record{
		*schemaRecord(1, "table", "t", "t", 2, record.Text("CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT UNIQUE)")),
		*schemaRecord(2, "index", "sqlite_autoindex_t_1", "t", 3, record.Null()),
		*schemaRecord(3, "index", "idx", "t", 4, record.Text("CREATE INDEX idx ON t (v)")),
	}}

	rows, err := schema.ReadRows(src)
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("ReadRows() = %d rows, want 2 (autoindex skipped)", len(rows))
	}

	cat, err := schema.Load(src, ddl.New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	tbl, ok := cat.FindTable("t")
	if !ok || len(tbl.Indexes) != 1 || tbl.Indexes[0].RootPage != 4 {
		t.Errorf("FindTable(t) = %+v, %v", tbl, ok)
	}
}

func TestLoadBadRow(t *testing.T) {
	src := &memSource{root: schema.SchemaRootPage, cells: []record.Record{
		{RowID: 1, Values: []record.Value{record.Text("table"), record.Text("t")}},
	}}
	if _, err := schema.Load(src, ddl.New()); !errors.Is(err, apperrors.ErrInvalidSchemaShape) {
		t.Errorf("Load() error = %v, want ErrInvalidSchemaShape", err)
	}
}
