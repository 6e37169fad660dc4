// Package schema builds an in-memory catalog of tables, columns and indexes
// from the rows of a database's schema table.
package schema

import (
	"iter"
	"strings"

	"github.com/FocuswithJustin/litescan/core/errors"
	"github.com/FocuswithJustin/litescan/internal/logging"
)

// ReservedPrefix marks internal tables such as sqlite_sequence and
// sqlite_stat1. They are kept in the catalog but are not user tables.
const ReservedPrefix = "sqlite_"

// CommandKind distinguishes the statements a DDLParser recognizes.
type CommandKind int

const (
	// CommandOther is any statement that is neither CREATE TABLE nor
	// CREATE INDEX (views, triggers, virtual tables).
	CommandOther CommandKind = iota
	// CommandCreateTable is a CREATE TABLE statement.
	CommandCreateTable
	// CommandCreateIndex is a CREATE INDEX statement.
	CommandCreateIndex
)

// Command is a parsed DDL statement. Exactly one of Table or Index is set
// for the two create kinds.
type Command struct {
	Kind  CommandKind
	Table *CreateTable
	Index *CreateIndex
}

// CreateTable is a parsed CREATE TABLE statement.
type CreateTable struct {
	Name         string
	Fields       []Field
	WithoutRowID bool
}

// Field is one column definition of a CREATE TABLE statement.
type Field struct {
	Name       string
	Type       string // Declared type, empty if none
	PrimaryKey bool
}

// CreateIndex is a parsed CREATE INDEX statement.
type CreateIndex struct {
	Name    string
	Table   string
	Columns []string
	Unique  bool
}

// DDLParser turns schema DDL text into a Command.
type DDLParser interface {
	ParseDDL(sql string) (*Command, error)
}

// Column is a table column.
type Column struct {
	Name       string
	Type       string
	PrimaryKey bool
}

// Index is an index attached to a table. The first entry of Columns is the
// only one eligible for filter matching.
type Index struct {
	Name      string
	Columns   []string
	TableName string
	RootPage  uint32
	Unique    bool
}

// FindColumn returns the position of the named column within the index.
func (idx *Index) FindColumn(name string) (int, string, bool) {
	for i, c := range idx.Columns {
		if strings.EqualFold(c, name) {
			return i, c, true
		}
	}
	return -1, "", false
}

// Table is a table with its columns and indexes.
type Table struct {
	Name         string
	Columns      []Column
	Indexes      []Index
	RootPage     uint32
	WithoutRowID bool
}

// FindColumn returns the position and definition of the named column.
func (t *Table) FindColumn(name string) (int, *Column, bool) {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return i, &t.Columns[i], true
		}
	}
	return -1, nil, false
}

// IsUserTable reports whether the table is outside the reserved namespace.
func (t *Table) IsUserTable() bool {
	return !hasReservedPrefix(t.Name)
}

// RowIDAlias returns the position of the column that aliases the rowid.
// That is the sole primary key column of a rowid table when it is declared
// with type INTEGER. Its stored value is NULL; readers take it from the rowid.
func (t *Table) RowIDAlias() (int, bool) {
	if t.WithoutRowID {
		return -1, false
	}
	pos := -1
	for i, c := range t.Columns {
		if !c.PrimaryKey {
			continue
		}
		if pos >= 0 {
			return -1, false
		}
		pos = i
	}
	if pos < 0 || !strings.EqualFold(t.Columns[pos].Type, "INTEGER") {
		return -1, false
	}
	return pos, true
}

// Catalog holds every table of a schema keyed by name, plus the order in
// which user tables were first seen.
type Catalog struct {
	tables map[string]*Table
	names  []string
}

// Build constructs a catalog from schema rows in two passes: tables first,
// then indexes. It returns no catalog at all if any table or index DDL
// fails to parse or an index names a table that does not exist.
func Build(rows []Row, p DDLParser) (*Catalog, error) {
	cmds := make([]*Command, len(rows))
	for i := range rows {
		row := &rows[i]
		cmd, err := p.ParseDDL(row.SQL)
		if err != nil {
			if row.Kind == "table" || row.Kind == "index" {
				return nil, &errors.SchemaParseError{Kind: row.Kind, Name: row.Name, Err: err}
			}
			logging.SchemaRowSkipped(row.Kind, row.Name, "unparsed", "error", err.Error())
			continue
		}
		cmds[i] = cmd
	}

	c := &Catalog{tables: make(map[string]*Table)}

	for i, cmd := range cmds {
		if cmd == nil || cmd.Kind != CommandCreateTable {
			continue
		}
		c.addTable(newTable(cmd.Table, rows[i].RootPage))
	}

	indexes := 0
	for i, cmd := range cmds {
		if cmd == nil {
			continue
		}
		switch cmd.Kind {
		case CommandCreateIndex:
			ci := cmd.Index
			t, ok := c.tables[ci.Table]
			if !ok {
				t = c.lookupFold(ci.Table)
			}
			if t == nil {
				return nil, &errors.OrphanIndexError{Index: ci.Name, Table: ci.Table}
			}
			t.Indexes = append(t.Indexes, Index{
				Name:      ci.Name,
				Columns:   append([]string(nil), ci.Columns...),
				TableName: t.Name,
				RootPage:  rows[i].RootPage,
				Unique:    ci.Unique,
			})
			indexes++
		case CommandOther:
			logging.SchemaRowSkipped(rows[i].Kind, rows[i].Name, "not a table or index")
		}
	}

	logging.CatalogBuilt(len(c.tables), len(c.names), indexes)
	return c, nil
}

func newTable(ct *CreateTable, root uint32) *Table {
	t := &Table{
		Name:         ct.Name,
		Columns:      make([]Column, len(ct.Fields)),
		RootPage:     root,
		WithoutRowID: ct.WithoutRowID,
	}
	for i, f := range ct.Fields {
		t.Columns[i] = Column{Name: f.Name, Type: f.Type, PrimaryKey: f.PrimaryKey}
	}
	return t
}

func (c *Catalog) addTable(t *Table) {
	if _, seen := c.tables[t.Name]; !seen && t.IsUserTable() {
		c.names = append(c.names, t.Name)
	}
	c.tables[t.Name] = t
}

func (c *Catalog) lookup(name string) *Table {
	if t, ok := c.tables[name]; ok {
		return t
	}
	return c.lookupFold(name)
}

// lookupFold prefers tables in first-seen order so the result does not
// depend on map iteration.
func (c *Catalog) lookupFold(name string) *Table {
	for _, n := range c.names {
		if strings.EqualFold(n, name) {
			return c.tables[n]
		}
	}
	for n, t := range c.tables {
		if hasReservedPrefix(n) && strings.EqualFold(n, name) {
			return t
		}
	}
	return nil
}

// FindTable returns the named user table.
func (c *Catalog) FindTable(name string) (*Table, bool) {
	t := c.lookup(name)
	if t == nil || !t.IsUserTable() {
		return nil, false
	}
	return t, true
}

// LookupTable returns the named table, including internal tables.
func (c *Catalog) LookupTable(name string) (*Table, bool) {
	t := c.lookup(name)
	return t, t != nil
}

// UserTables yields user tables in first-seen order.
func (c *Catalog) UserTables() iter.Seq[*Table] {
	return func(yield func(*Table) bool) {
		for _, n := range c.names {
			if !yield(c.tables[n]) {
				return
			}
		}
	}
}

// TableNames returns user table names in first-seen order.
func (c *Catalog) TableNames() []string {
	return append([]string(nil), c.names...)
}

// Len returns the number of tables, internal ones included.
func (c *Catalog) Len() int {
	return len(c.tables)
}

func hasReservedPrefix(name string) bool {
	return len(name) >= len(ReservedPrefix) && strings.EqualFold(name[:len(ReservedPrefix)], ReservedPrefix)
}
