package schema

import (
	"github.com/FocuswithJustin/litescan/core/errors"
	"github.com/FocuswithJustin/litescan/core/record"
	"github.com/FocuswithJustin/litescan/internal/logging"
)

// CellSource yields the cells of a table b-tree in key order. Each payload
// is already contiguous and is only valid for the duration of the callback.
type CellSource interface {
	ScanTable(root uint32, fn func(rowid int64, payload []byte) error) error
}

// ReadRows scans the schema table and projects every cell onto a Row.
// Implicit indexes created for UNIQUE and PRIMARY KEY constraints have no
// DDL and are skipped.
func ReadRows(src CellSource) ([]Row, error) {
	var rows []Row
	err := src.ScanTable(SchemaRootPage, func(rowid int64, payload []byte) error {
		rec, err := record.Decode(rowid, payload)
		if err != nil {
			return errors.Wrapf(err, "schema row %d", rowid)
		}
		if isAutoIndex(rec) {
			logging.SchemaRowSkipped("index", rec.Values[1].Text(), "no sql")
			return nil
		}
		row, err := FromRecord(rec)
		if err != nil {
			return errors.Wrapf(err, "schema row %d", rowid)
		}
		rows = append(rows, *row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Load reads the schema table and builds a catalog from it.
func Load(src CellSource, p DDLParser) (*Catalog, error) {
	rows, err := ReadRows(src)
	if err != nil {
		return nil, err
	}
	return Build(rows, p)
}

func isAutoIndex(rec *record.Record) bool {
	return len(rec.Values) == schemaColumns &&
		rec.Values[0].Class == record.ClassText &&
		rec.Values[0].Text() == "index" &&
		rec.Values[4].IsNull()
}
