// Package ddl parses the CREATE statements stored in a database's schema
// table into schema commands.
package ddl

import (
	"strings"

	"github.com/FocuswithJustin/litescan/core/errors"
	"github.com/FocuswithJustin/litescan/core/schema"
)

// Parser implements schema.DDLParser.
type Parser struct{}

// New returns a DDL parser.
func New() *Parser {
	return &Parser{}
}

// ParseDDL parses a single CREATE TABLE, CREATE INDEX, CREATE VIEW,
// CREATE TRIGGER or CREATE VIRTUAL TABLE statement.
func (p *Parser) ParseDDL(sql string) (*schema.Command, error) {
	return Parse(sql)
}

// Parse parses a single CREATE statement. Views, triggers and virtual
// tables are recognized but not interpreted.
func Parse(sql string) (*schema.Command, error) {
	stmt, err := ddlParser.ParseString("", sql)
	if err != nil {
		return nil, &errors.ParseError{Format: "DDL", Message: err.Error(), Err: errors.ErrSchemaParse}
	}

	switch {
	case stmt.Table != nil:
		return &schema.Command{Kind: schema.CommandCreateTable, Table: buildTable(stmt.Table)}, nil
	case stmt.Index != nil:
		return &schema.Command{Kind: schema.CommandCreateIndex, Index: buildIndex(stmt.Index)}, nil
	default:
		return &schema.Command{Kind: schema.CommandOther}, nil
	}
}

// Words that end a column's type name and begin its constraints.
var constraintWords = map[string]bool{
	"CONSTRAINT": true,
	"PRIMARY":    true,
	"NOT":        true,
	"NULL":       true,
	"UNIQUE":     true,
	"CHECK":      true,
	"DEFAULT":    true,
	"COLLATE":    true,
	"REFERENCES": true,
	"GENERATED":  true,
	"AS":         true,
}

// Words that open a table constraint instead of a column definition.
var tableConstraintWords = map[string]bool{
	"CONSTRAINT": true,
	"PRIMARY":    true,
	"UNIQUE":     true,
	"CHECK":      true,
	"FOREIGN":    true,
}

func buildTable(ts *tableStmt) *schema.CreateTable {
	ct := &schema.CreateTable{
		Name:         ts.Name.last(),
		WithoutRowID: hasWords(ts.Options, "WITHOUT", "ROWID"),
	}

	var pkColumns []string
	for _, it := range ts.Items {
		if isTableConstraint(it) {
			pkColumns = append(pkColumns, primaryKeyColumns(it)...)
			continue
		}
		ct.Fields = append(ct.Fields, buildField(it))
	}

	for _, name := range pkColumns {
		for i := range ct.Fields {
			if strings.EqualFold(ct.Fields[i].Name, name) {
				ct.Fields[i].PrimaryKey = true
			}
		}
	}
	return ct
}

func buildField(it *item) schema.Field {
	f := schema.Field{Name: unquote(it.Terms[0].Word)}

	rest := it.Terms[1:]
	var typeWords []string
	i := 0
	for ; i < len(rest); i++ {
		t := rest[i]
		if t.Group != nil {
			if len(typeWords) == 0 {
				break
			}
			typeWords[len(typeWords)-1] += t.Group.text()
			continue
		}
		if constraintWords[strings.ToUpper(t.Word)] {
			break
		}
		typeWords = append(typeWords, unquote(t.Word))
	}
	f.Type = strings.Join(typeWords, " ")

	for j := i; j+1 < len(rest); j++ {
		if strings.EqualFold(rest[j].Word, "PRIMARY") && strings.EqualFold(rest[j+1].Word, "KEY") {
			f.PrimaryKey = true
			break
		}
	}
	return f
}

func isTableConstraint(it *item) bool {
	first := it.Terms[0]
	return first.Group == nil && tableConstraintWords[strings.ToUpper(first.Word)]
}

// primaryKeyColumns returns the columns named by a PRIMARY KEY table
// constraint, or nil for any other constraint.
func primaryKeyColumns(it *item) []string {
	terms := it.Terms
	if strings.EqualFold(terms[0].Word, "CONSTRAINT") && len(terms) > 2 {
		terms = terms[2:]
	}
	if len(terms) < 3 || !strings.EqualFold(terms[0].Word, "PRIMARY") ||
		!strings.EqualFold(terms[1].Word, "KEY") || terms[2].Group == nil {
		return nil
	}
	var cols []string
	for _, c := range terms[2].Group.Items {
		cols = append(cols, indexedColumn(c))
	}
	return cols
}

func buildIndex(is *indexStmt) *schema.CreateIndex {
	ci := &schema.CreateIndex{
		Name:   is.Name.last(),
		Table:  unquote(is.Table),
		Unique: is.Unique,
	}
	for _, it := range is.Columns {
		ci.Columns = append(ci.Columns, indexedColumn(it))
	}
	return ci
}

// indexedColumn names an indexed column. Sort order and collation are
// dropped; an expression is named by its source text.
func indexedColumn(it *item) string {
	terms := it.Terms
	if n := len(terms); n > 1 && terms[n-1].Group == nil {
		switch strings.ToUpper(terms[n-1].Word) {
		case "ASC", "DESC":
			terms = terms[:n-1]
		}
	}
	if n := len(terms); n > 2 && strings.EqualFold(terms[n-2].Word, "COLLATE") {
		terms = terms[:n-2]
	}
	if len(terms) == 1 && terms[0].Group == nil {
		return unquote(terms[0].Word)
	}
	return termsText(terms)
}

func (q *qualifiedName) last() string {
	return unquote(q.Parts[len(q.Parts)-1])
}

func (g *group) text() string {
	parts := make([]string, len(g.Items))
	for i, it := range g.Items {
		parts[i] = termsText(it.Terms)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func termsText(terms []*term) string {
	var sb strings.Builder
	for i, t := range terms {
		if t.Group != nil {
			sb.WriteString(t.Group.text())
			continue
		}
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.Word)
	}
	return sb.String()
}

func hasWords(words []string, a, b string) bool {
	for i := 0; i+1 < len(words); i++ {
		if strings.EqualFold(words[i], a) && strings.EqualFold(words[i+1], b) {
			return true
		}
	}
	return false
}

// unquote strips identifier or string quoting, collapsing doubled quotes.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	switch s[0] {
	case '"', '\'', '`':
		q := s[:1]
		if s[len(s)-1] == s[0] {
			return strings.ReplaceAll(s[1:len(s)-1], q+q, q)
		}
	case '[':
		if s[len(s)-1] == ']' {
			return s[1 : len(s)-1]
		}
	}
	return s
}
