package schema

import (
	"fmt"
	"math"

	"github.com/FocuswithJustin/litescan/core/errors"
	"github.com/FocuswithJustin/litescan/core/record"
)

// The schema table has the fixed layout
//
//	CREATE TABLE sqlite_schema (
//	  type TEXT,      -- "table", "index", "trigger", "view"
//	  name TEXT,
//	  tbl_name TEXT,  -- owning table for indexes and triggers
//	  rootpage INT,
//	  sql TEXT
//	);
//
// and is always rooted at page 1. Columns are read by position.
const (
	// SchemaRootPage is the root page of the schema table.
	SchemaRootPage = 1

	schemaColumns = 5
)

var schemaFields = [schemaColumns]string{"kind", "name", "tbl_name", "rootpage", "sql"}

// Row is one schema table entry.
type Row struct {
	RowID     int64
	Kind      string // "table", "index", "view", "trigger"
	Name      string
	TableName string
	RootPage  uint32
	SQL       string
}

// FromRecord projects a decoded record onto the schema row layout.
// kind, name, tbl_name and sql must be text and rootpage must be numeric.
func FromRecord(rec *record.Record) (*Row, error) {
	if rec == nil || len(rec.Values) != schemaColumns {
		n := 0
		if rec != nil {
			n = len(rec.Values)
		}
		return nil, errors.NewShape("record", fmt.Sprintf("have %d columns, want %d", n, schemaColumns))
	}

	var text [schemaColumns]string
	for _, i := range []int{0, 1, 2, 4} {
		v := rec.Values[i]
		if v.Class != record.ClassText {
			return nil, errors.NewShape(schemaFields[i], "expected text, found "+v.Class.String())
		}
		text[i] = v.Text()
	}

	root := rec.Values[3]
	if !root.IsNumber() {
		return nil, errors.NewShape(schemaFields[3], "expected number, found "+root.Class.String())
	}
	n, _ := root.Int64()
	if n < 0 || n > math.MaxUint32 {
		return nil, errors.NewShape(schemaFields[3], fmt.Sprintf("page %d out of range", n))
	}

	return &Row{
		RowID:     rec.RowID,
		Kind:      text[0],
		Name:      text[1],
		TableName: text[2],
		RootPage:  uint32(n),
		SQL:       text[4],
	}, nil
}
