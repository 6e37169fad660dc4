// Command litescan inspects database files without a database engine:
// it decodes the file format directly and reports schema and rows.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"github.com/FocuswithJustin/litescan/core/cache"
	"github.com/FocuswithJustin/litescan/core/ddl"
	"github.com/FocuswithJustin/litescan/core/errors"
	"github.com/FocuswithJustin/litescan/core/export"
	"github.com/FocuswithJustin/litescan/core/pager"
	"github.com/FocuswithJustin/litescan/core/record"
	"github.com/FocuswithJustin/litescan/core/schema"
	"github.com/FocuswithJustin/litescan/internal/logging"
)

const version = "0.1.0"

// errLimitReached stops a scan once --limit rows have been printed.
var errLimitReached = fmt.Errorf("limit reached")

// CLI defines the command-line interface for litescan.
type CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" env:"LITESCAN_LOG_LEVEL" default:"warn" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" env:"LITESCAN_LOG_FORMAT" default:"text" enum:"text,json" help:"Log format (text, json)"`
	CacheSize int    `name:"cache-size" env:"LITESCAN_CACHE_SIZE" default:"32" help:"Number of catalogs kept in memory"`

	Info    InfoCmd    `cmd:"" help:"Show the file header"`
	Tables  TablesCmd  `cmd:"" help:"List user tables"`
	Schema  SchemaCmd  `cmd:"" help:"Print tables, columns and indexes"`
	Query   QueryCmd   `cmd:"" help:"Evaluate an XPath expression over the schema"`
	Rows    RowsCmd    `cmd:"" help:"Print the rows of a table"`
	Plan    PlanCmd    `cmd:"" help:"Show how a filtered lookup would read a table"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// env is bound into every command's Run method.
type env struct {
	ctx      context.Context
	out      io.Writer
	catalogs *cache.Catalogs
}

// open reads a database file and loads its catalog through the cache.
func (e *env) open(path string) (*pager.Pager, *schema.Catalog, error) {
	p, err := pager.Open(path)
	if err != nil {
		return nil, nil, err
	}
	h := p.Header()
	logging.ScanStarted(e.ctx, path, h.PageSize, int(p.PageCount()))

	cat, err := e.catalogs.Load(p, ddl.New())
	if err != nil {
		return nil, nil, errors.Wrap(err, path)
	}
	return p, cat, nil
}

// InfoCmd prints the file header.
type InfoCmd struct {
	Path string `arg:"" help:"Database file" type:"existingfile"`
}

func (c *InfoCmd) Run(e *env) error {
	p, cat, err := e.open(c.Path)
	if err != nil {
		return err
	}
	h := p.Header()
	indexes := 0
	for t := range cat.UserTables() {
		indexes += len(t.Indexes)
	}

	fmt.Fprintf(e.out, "page size:      %d\n", h.PageSize)
	fmt.Fprintf(e.out, "usable size:    %d\n", h.UsableSize())
	fmt.Fprintf(e.out, "page count:     %d\n", p.PageCount())
	fmt.Fprintf(e.out, "schema cookie:  %d\n", h.SchemaCookie)
	fmt.Fprintf(e.out, "schema format:  %d\n", h.SchemaFormat)
	fmt.Fprintf(e.out, "text encoding:  utf-8\n")
	fmt.Fprintf(e.out, "user version:   %d\n", h.UserVersion)
	fmt.Fprintf(e.out, "application id: %d\n", h.ApplicationID)
	fmt.Fprintf(e.out, "written by:     %s\n", h.VersionString())
	fmt.Fprintf(e.out, "tables:         %d\n", len(cat.TableNames()))
	fmt.Fprintf(e.out, "indexes:        %d\n", indexes)
	return nil
}

// TablesCmd lists user tables.
type TablesCmd struct {
	Paths []string `arg:"" help:"Database files"`
}

func (c *TablesCmd) Run(e *env) error {
	for _, path := range c.Paths {
		_, cat, err := e.open(path)
		if err != nil {
			return err
		}
		names := cat.TableNames()
		if len(c.Paths) > 1 {
			fmt.Fprintf(e.out, "%s: %s\n", path, strings.Join(names, " "))
			continue
		}
		for _, n := range names {
			fmt.Fprintln(e.out, n)
		}
	}
	return nil
}

// SchemaCmd prints the catalog.
type SchemaCmd struct {
	Path   string `arg:"" help:"Database file" type:"existingfile"`
	Format string `short:"f" default:"text" enum:"text,json,xml" help:"Output format (text, json, xml)"`
}

func (c *SchemaCmd) Run(e *env) error {
	_, cat, err := e.open(c.Path)
	if err != nil {
		return err
	}
	switch c.Format {
	case "json":
		return export.JSON(e.out, cat)
	case "xml":
		return export.XML(e.out, cat)
	}

	for t := range cat.UserTables() {
		fmt.Fprintf(e.out, "table %s (root %d)", t.Name, t.RootPage)
		if t.WithoutRowID {
			fmt.Fprint(e.out, " without rowid")
		}
		fmt.Fprintln(e.out)
		for _, col := range t.Columns {
			line := "  " + col.Name
			if col.Type != "" {
				line += " " + col.Type
			}
			if col.PrimaryKey {
				line += " PRIMARY KEY"
			}
			fmt.Fprintln(e.out, line)
		}
		for _, idx := range t.Indexes {
			kind := "index"
			if idx.Unique {
				kind = "unique index"
			}
			fmt.Fprintf(e.out, "  %s %s (%s) (root %d)\n", kind, idx.Name, strings.Join(idx.Columns, ", "), idx.RootPage)
		}
	}
	return nil
}

// QueryCmd evaluates XPath over the XML form of the schema.
type QueryCmd struct {
	Path string `arg:"" help:"Database file" type:"existingfile"`
	Expr string `arg:"" help:"XPath expression, e.g. //table/@name"`
}

func (c *QueryCmd) Run(e *env) error {
	_, cat, err := e.open(c.Path)
	if err != nil {
		return err
	}
	results, err := export.Query(cat, c.Expr)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Fprintln(e.out, r)
	}
	return nil
}

// RowsCmd prints table rows.
type RowsCmd struct {
	Path  string `arg:"" help:"Database file" type:"existingfile"`
	Table string `arg:"" help:"Table name"`
	Where string `help:"Only rows where field=value"`
	Limit int    `short:"n" help:"Stop after this many rows (0 = all)"`
}

func (c *RowsCmd) Run(e *env) error {
	p, cat, err := e.open(c.Path)
	if err != nil {
		return err
	}
	t, ok := cat.FindTable(c.Table)
	if !ok {
		return errors.NewNotFound("table", c.Table)
	}
	filter, err := parseWhere(c.Where)
	if err != nil {
		return err
	}
	match := -1
	if filter != nil {
		pos, _, ok := t.FindColumn(filter.Field)
		if !ok {
			return errors.NewNotFound("column", filter.Field)
		}
		match = pos
	}
	alias, hasAlias := t.RowIDAlias()

	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	fmt.Fprintln(e.out, strings.Join(names, "\t"))

	printed := 0
	err = p.ScanTable(t.RootPage, func(rowid int64, payload []byte) error {
		rec, err := record.Decode(rowid, payload)
		if err != nil {
			logging.CellDecodeFailed(e.ctx, t.Name, rowid, err)
			return nil
		}
		cells := make([]string, len(t.Columns))
		for i := range cells {
			switch {
			case hasAlias && i == alias:
				cells[i] = record.Int(rowid).String()
			case i < len(rec.Values):
				cells[i] = rec.Values[i].String()
			default:
				// Columns added by ALTER TABLE after the row was written.
				cells[i] = record.Null().String()
			}
		}
		if match >= 0 && cells[match] != filter.Value {
			return nil
		}
		fmt.Fprintln(e.out, strings.Join(cells, "\t"))
		printed++
		if c.Limit > 0 && printed >= c.Limit {
			return errLimitReached
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		return err
	}
	return nil
}

// PlanCmd reports the access path for a table and optional filter.
type PlanCmd struct {
	Path  string `arg:"" help:"Database file" type:"existingfile"`
	Table string `arg:"" help:"Table name"`
	Where string `help:"Filter as field=value"`
}

func (c *PlanCmd) Run(e *env) error {
	_, cat, err := e.open(c.Path)
	if err != nil {
		return err
	}
	t, ok := cat.FindTable(c.Table)
	if !ok {
		return errors.NewNotFound("table", c.Table)
	}
	filter, err := parseWhere(c.Where)
	if err != nil {
		return err
	}
	if idx := t.FindApplicableIndex(filter); idx != nil {
		fmt.Fprintf(e.out, "SEARCH %s USING INDEX %s (%s=?)\n", t.Name, idx.Name, idx.Columns[0])
		return nil
	}
	fmt.Fprintf(e.out, "SCAN %s\n", t.Name)
	return nil
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run(e *env) error {
	fmt.Fprintf(e.out, "litescan version %s\n", version)
	return nil
}

// parseWhere splits "field=value". An empty string means no filter.
func parseWhere(s string) (*schema.Filter, error) {
	if s == "" {
		return nil, nil
	}
	field, value, ok := strings.Cut(s, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" {
		return nil, errors.NewParse("filter", "", fmt.Sprintf("%q is not field=value", s))
	}
	return &schema.Filter{Field: field, Value: value}, nil
}

// newParser builds the kong parser for cli.
func newParser(cli *CLI, stdout, stderr io.Writer, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("litescan"),
		kong.Description("Read database files by decoding their pages directly"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Writers(stdout, stderr),
	}, options...)
	return kong.New(cli, options...)
}

// run parses args and executes the selected command.
func run(args []string, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := newParser(&cli, stdout, stderr)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logging.SetOutput(stderr)
	logging.InitLogger(logging.ParseLevel(cli.LogLevel), logging.ParseFormat(cli.LogFormat))

	config := cache.DefaultConfig()
	config.MaxSize = cli.CacheSize
	e := &env{
		ctx:      logging.WithScanID(context.Background(), uuid.New().String()),
		out:      stdout,
		catalogs: cache.NewCatalogs(config),
	}
	return kctx.Run(e)
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "litescan: %v\n", err)
		os.Exit(1)
	}
}
