package pager_test

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/FocuswithJustin/litescan/core/ddl"
	apperrors "github.com/FocuswithJustin/litescan/core/errors"
	"github.com/FocuswithJustin/litescan/core/pager"
	"github.com/FocuswithJustin/litescan/core/record"
	"github.com/FocuswithJustin/litescan/core/schema"
	"github.com/FocuswithJustin/litescan/internal/fixture"
)

const manyRows = `WITH RECURSIVE c(x) AS (SELECT 1 UNION ALL SELECT x + 1 FROM c WHERE x < 2000)
INSERT INTO t (v) SELECT 'row ' || x FROM c`

func openFixture(t *testing.T, stmts ...string) *pager.Pager {
	t.Helper()
	path := fixture.MustCreate(t, "test.db", stmts...)
	p, err := pager.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return p
}

func TestHeader(t *testing.T) {
	p := openFixture(t,
		"PRAGMA page_size = 1024",
		"PRAGMA user_version = 7",
		"PRAGMA application_id = 42",
		"CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)",
	)
	h := p.Header()
	if h.PageSize != 1024 {
		t.Errorf("PageSize = %d, want 1024", h.PageSize)
	}
	if h.TextEncoding != pager.EncodingUTF8 {
		t.Errorf("TextEncoding = %d, want UTF-8", h.TextEncoding)
	}
	if h.UserVersion != 7 || h.ApplicationID != 42 {
		t.Errorf("UserVersion = %d, ApplicationID = %d", h.UserVersion, h.ApplicationID)
	}
	if h.UsableSize() != 1024-h.ReservedSpace {
		t.Errorf("UsableSize() = %d", h.UsableSize())
	}
	if p.PageCount() < 2 {
		t.Errorf("PageCount() = %d, want at least 2", p.PageCount())
	}
	if !strings.HasPrefix(h.VersionString(), "3.") {
		t.Errorf("VersionString() = %q", h.VersionString())
	}
}

func TestScanTableMultiLevel(t *testing.T) {
	p := openFixture(t,
		"PRAGMA page_size = 1024",
		"CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)",
		manyRows,
	)
	cat, err := schema.Load(p, ddl.New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	tbl, ok := cat.FindTable("t")
	if !ok {
		t.Fatal("table t not found")
	}

	var last int64
	n := 0
	err = p.ScanTable(tbl.RootPage, func(rowid int64, payload []byte) error {
		if rowid <= last {
			t.Fatalf("rowid %d after %d, want ascending", rowid, last)
		}
		last = rowid
		rec, err := record.Decode(rowid, payload)
		if err != nil {
			return err
		}
		if !rec.Values[0].IsNull() {
			t.Errorf("rowid alias column stored %v, want NULL", rec.Values[0])
		}
		if want := "row " + strconv.FormatInt(rowid, 10); rec.Values[1].Text() != want {
			t.Errorf("row %d = %q, want %q", rowid, rec.Values[1].Text(), want)
		}
		n++
		return nil
	})
	if err != nil {
		t.Fatalf("ScanTable() error = %v", err)
	}
	if n != 2000 {
		t.Errorf("scanned %d rows, want 2000", n)
	}
}

func TestScanTableOverflow(t *testing.T) {
	p := openFixture(t,
		"PRAGMA page_size = 512",
		"CREATE TABLE big (id INTEGER PRIMARY KEY, body TEXT, tail INTEGER)",
		"INSERT INTO big VALUES (1, hex(randomblob(3000)), -12345)",
		"INSERT INTO big VALUES (2, 'short', 5)",
	)
	cat, err := schema.Load(p, ddl.New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	tbl, _ := cat.FindTable("big")

	var lens []int
	err = p.ScanTable(tbl.RootPage, func(rowid int64, payload []byte) error {
		rec, err := record.Decode(rowid, payload)
		if err != nil {
			return err
		}
		lens = append(lens, len(rec.Values[1].Bytes))
		if rowid == 1 {
			if n, _ := rec.Values[2].Int64(); n != -12345 {
				t.Errorf("tail = %d, want -12345", n)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ScanTable() error = %v", err)
	}
	if len(lens) != 2 || lens[0] != 6000 || lens[1] != 5 {
		t.Errorf("text lengths = %v, want [6000 5]", lens)
	}
}

func TestScanTableCallbackError(t *testing.T) {
	p := openFixture(t, "CREATE TABLE t (v)", "INSERT INTO t VALUES (1), (2)")
	stop := errors.New("stop")
	calls := 0
	err := p.ScanTable(2, func(int64, []byte) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("ScanTable() = %v after %d calls, want stop after 1", err, calls)
	}
}

func TestScanTableRejectsIndexPage(t *testing.T) {
	p := openFixture(t,
		"CREATE TABLE t (v TEXT)",
		"CREATE INDEX t_v ON t (v)",
	)
	cat, err := schema.Load(p, ddl.New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	tbl, _ := cat.FindTable("t")
	err = p.ScanTable(tbl.Indexes[0].RootPage, func(int64, []byte) error { return nil })
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("ScanTable(index root) error = %v, want a parse error", err)
	}
}

func TestPageOutOfRange(t *testing.T) {
	p := openFixture(t, "CREATE TABLE t (v)")
	for _, n := range []uint32{0, p.PageCount() + 1} {
		if _, err := p.Page(n); !errors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("Page(%d) error = %v, want ErrNotFound", n, err)
		}
	}
	page, err := p.Page(1)
	if err != nil || len(page) != p.Header().PageSize {
		t.Errorf("Page(1) = %d bytes, %v", len(page), err)
	}
}

func TestOpenXZ(t *testing.T) {
	path := fixture.MustCreate(t, "z.db", "CREATE TABLE zipped (a, b)")
	if err := fixture.Compress(path, path+".xz"); err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	p, err := pager.Open(path + ".xz")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	cat, err := schema.Load(p, ddl.New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, ok := cat.FindTable("zipped"); !ok {
		t.Error("table zipped not found in decompressed image")
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := pager.Open(dir + "/missing.db"); err == nil {
		t.Error("Open(missing) error = nil")
	}

	junk := dir + "/junk.db"
	if err := os.WriteFile(junk, []byte(strings.Repeat("x", 200)), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := pager.Open(junk); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("Open(junk) error = %v, want parse error", err)
	}

	gz := dir + "/db.gz"
	if err := os.WriteFile(gz, []byte{0x1f, 0x8b, 0x08, 0x00}, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := pager.Open(gz); !errors.Is(err, apperrors.ErrUnsupported) {
		t.Errorf("Open(gzip) error = %v, want ErrUnsupported", err)
	}
}

func TestParseHeaderErrors(t *testing.T) {
	path := fixture.MustCreate(t, "h.db", "CREATE TABLE t (v)")
	good, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func([]byte) []byte
		want   error
	}{
		{"short", func(b []byte) []byte { return b[:50] }, apperrors.ErrInvalidInput},
		{"bad magic", func(b []byte) []byte { b[0] = 'X'; return b }, apperrors.ErrInvalidInput},
		{"page size not power of two", func(b []byte) []byte { b[16], b[17] = 0x03, 0x00; return b }, apperrors.ErrInvalidInput},
		{"utf16", func(b []byte) []byte { b[59] = pager.EncodingUTF16LE; return b }, apperrors.ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(append([]byte(nil), good...))
			if _, err := pager.FromBytes(data); !errors.Is(err, tt.want) {
				t.Errorf("FromBytes() error = %v, want %v", err, tt.want)
			}
		})
	}
}
