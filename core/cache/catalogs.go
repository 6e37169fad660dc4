package cache

import (
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/litescan/core/schema"
	"github.com/FocuswithJustin/litescan/core/varint"
	"github.com/FocuswithJustin/litescan/internal/logging"
)

// Catalogs caches built catalogs by schema fingerprint.
type Catalogs struct {
	cache Cache[string, *schema.Catalog]
}

// NewCatalogs creates a catalog cache.
func NewCatalogs(config Config) *Catalogs {
	return &Catalogs{cache: NewLRU[string, *schema.Catalog](config)}
}

// Load reads the schema rows from src and returns the catalog for them,
// building it with p only when no catalog for an identical schema is cached.
func (c *Catalogs) Load(src schema.CellSource, p schema.DDLParser) (*schema.Catalog, error) {
	rows, err := schema.ReadRows(src)
	if err != nil {
		return nil, err
	}

	key := Fingerprint(rows)
	if cat, ok := c.cache.Get(key); ok {
		logging.Debug("catalog_cache_hit", "fingerprint", key[:16])
		return cat, nil
	}

	cat, err := schema.Build(rows, p)
	if err != nil {
		return nil, err
	}
	c.cache.Put(key, cat)
	return cat, nil
}

// Stats returns cache statistics.
func (c *Catalogs) Stats() Stats {
	return c.cache.Stats()
}

// Len returns the number of cached catalogs.
func (c *Catalogs) Len() int {
	return c.cache.Len()
}

// Fingerprint returns a BLAKE3 digest over the kind, name, table name,
// root page and DDL of each row, in order. Rowids are excluded; two
// databases that define the same objects at the same pages share a
// fingerprint.
func Fingerprint(rows []schema.Row) string {
	h := blake3.New()
	var buf []byte
	field := func(s string) {
		buf = varint.Append(buf[:0], uint64(len(s)))
		buf = append(buf, s...)
		h.Write(buf)
	}
	for _, r := range rows {
		field(r.Kind)
		field(r.Name)
		field(r.TableName)
		buf = varint.Append(buf[:0], uint64(r.RootPage))
		h.Write(buf)
		field(r.SQL)
	}
	return hex.EncodeToString(h.Sum(nil))
}
