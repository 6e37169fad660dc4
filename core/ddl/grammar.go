package ddl

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// statement is a single CREATE statement as stored in the schema table.
type statement struct {
	Table *tableStmt `"CREATE" ( @@`
	Index *indexStmt `         | @@`
	Other *otherStmt `         | @@ ) ";"?`
}

type tableStmt struct {
	Temp    bool           `@( "TEMP" | "TEMPORARY" )? "TABLE" ( "IF" "NOT" "EXISTS" )?`
	Name    *qualifiedName `@@`
	Items   []*item        `"(" @@ ( "," @@ )* ")"`
	Options []string       `@~";"*`
}

type indexStmt struct {
	Unique  bool           `@"UNIQUE"? "INDEX" ( "IF" "NOT" "EXISTS" )?`
	Name    *qualifiedName `@@`
	Table   string         `"ON" @( Ident | QuotedIdent | String )`
	Columns []*item        `"(" @@ ( "," @@ )* ")"`
	Where   []string       `( "WHERE" @~";"* )?`
}

// otherStmt covers views, triggers and virtual tables. Trigger bodies
// contain semicolons, so everything up to the end is accepted.
type otherStmt struct {
	Temp bool     `@( "TEMP" | "TEMPORARY" )?`
	What string   `@( "VIEW" | "TRIGGER" | "VIRTUAL" )`
	Rest []string `( @~";" | @";" )*`
}

type qualifiedName struct {
	Parts []string `@( Ident | QuotedIdent | String ) ( "." @( Ident | QuotedIdent | String ) )?`
}

// item is one comma separated entry of a parenthesized list: a column
// definition, a table constraint or an indexed column. It is kept as a
// token tree and interpreted afterwards.
type item struct {
	Terms []*term `@@+`
}

type term struct {
	Group *group `  "(" @@ ")"`
	Word  string `| @~( "(" | ")" | "," )`
}

type group struct {
	Items []*item `( @@ ( "," @@ )* )?`
}

var ddlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `--[^\n]*|/\*[\s\S]*?\*/`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "QuotedIdent", Pattern: `"(?:[^"]|"")*"|` + "`(?:[^`]|``)*`" + `|\[[^\]]*\]`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "Blob", Pattern: `[xX]'[0-9a-fA-F]*'`},
	{Name: "Number", Pattern: `0[xX][0-9a-fA-F]+|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_\x{80}-\x{10FFFF}][A-Za-z0-9_$\x{80}-\x{10FFFF}]*`},
	{Name: "Param", Pattern: `[?:@$][A-Za-z0-9_]*`},
	{Name: "Operator", Pattern: `->>|->|\|\||<<|>>|<=|>=|==|!=|<>|[-+*/%<>=&|~!]`},
	{Name: "Punct", Pattern: `[(),;.]`},
})

var ddlParser = participle.MustBuild[statement](
	participle.Lexer(ddlLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.CaseInsensitive("Ident"),
	participle.UseLookahead(4),
)
