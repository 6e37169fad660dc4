// Package export renders a catalog as JSON or XML and answers XPath
// queries against the XML form.
package export

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/litescan/core/schema"
)

// Document is the exported form of a catalog.
type Document struct {
	XMLName xml.Name `json:"-" xml:"catalog"`
	Tables  []Table  `json:"tables" xml:"table"`
}

// Table is an exported table.
type Table struct {
	Name         string   `json:"name" xml:"name,attr"`
	RootPage     uint32   `json:"root_page" xml:"rootpage,attr"`
	WithoutRowID bool     `json:"without_rowid,omitempty" xml:"without_rowid,attr,omitempty"`
	Columns      []Column `json:"columns" xml:"column"`
	Indexes      []Index  `json:"indexes" xml:"index"`
}

// Column is an exported column.
type Column struct {
	Name       string `json:"name" xml:"name,attr"`
	Type       string `json:"type,omitempty" xml:"type,attr,omitempty"`
	PrimaryKey bool   `json:"primary_key,omitempty" xml:"pk,attr,omitempty"`
}

// Index is an exported index. Keys lists the indexed columns in order.
type Index struct {
	Name     string   `json:"name" xml:"name,attr"`
	RootPage uint32   `json:"root_page" xml:"rootpage,attr"`
	Unique   bool     `json:"unique,omitempty" xml:"unique,attr,omitempty"`
	Keys     []string `json:"keys" xml:"key"`
}

// Build converts the user tables of cat, in first-seen order.
func Build(cat *schema.Catalog) *Document {
	doc := &Document{Tables: []Table{}}
	for t := range cat.UserTables() {
		et := Table{
			Name:         t.Name,
			RootPage:     t.RootPage,
			WithoutRowID: t.WithoutRowID,
			Columns:      make([]Column, len(t.Columns)),
			Indexes:      make([]Index, len(t.Indexes)),
		}
		for i, c := range t.Columns {
			et.Columns[i] = Column{Name: c.Name, Type: c.Type, PrimaryKey: c.PrimaryKey}
		}
		for i, idx := range t.Indexes {
			et.Indexes[i] = Index{Name: idx.Name, RootPage: idx.RootPage, Unique: idx.Unique, Keys: idx.Columns}
		}
		doc.Tables = append(doc.Tables, et)
	}
	return doc
}

// JSON writes cat as indented JSON.
func JSON(w io.Writer, cat *schema.Catalog) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Build(cat))
}

// XML writes cat as indented XML with a declaration.
func XML(w io.Writer, cat *schema.Catalog) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(Build(cat)); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Query evaluates an XPath expression against the XML form of cat. Node
// sets yield the string value of each node; numbers, strings and booleans
// yield a single result.
func Query(cat *schema.Catalog, expr string) ([]string, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}

	var buf bytes.Buffer
	if err := XML(&buf, cat); err != nil {
		return nil, err
	}
	root, err := xmlquery.Parse(&buf)
	if err != nil {
		return nil, fmt.Errorf("parse catalog xml: %w", err)
	}

	switch v := compiled.Evaluate(xmlquery.CreateXPathNavigator(root)).(type) {
	case *xpath.NodeIterator:
		results := []string{}
		for v.MoveNext() {
			results = append(results, v.Current().Value())
		}
		return results, nil
	case float64:
		return []string{strconv.FormatFloat(v, 'f', -1, 64)}, nil
	case string:
		return []string{v}, nil
	case bool:
		return []string{strconv.FormatBool(v)}, nil
	default:
		return nil, fmt.Errorf("xpath %q: unexpected result %T", expr, v)
	}
}
