package memory

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/xenking/ecommerce-store/internal/domain/item"
	"github.com/xenking/ecommerce-store/pkg/jxdecimal"
)

// DefaultCatalog returns the products the store starts with when no catalog
// file is configured.
func DefaultCatalog() []item.Item {
	return []item.Item{
		{Name: "Laptop", Price: decimal.RequireFromString("999.99"), Stock: 25},
		{Name: "Smartphone", Price: decimal.RequireFromString("699.99"), Stock: 50},
		{Name: "Wireless Headphones", Price: decimal.RequireFromString("199.99"), Stock: 75},
		{Name: "Smart Watch", Price: decimal.RequireFromString("299.99"), Stock: 40},
		{Name: "Design Patterns Book", Price: decimal.RequireFromString("49.99"), Stock: 100},
		{Name: "Clean Code Book", Price: decimal.RequireFromString("39.99"), Stock: 100},
		{Name: "The Pragmatic Programmer", Price: decimal.RequireFromString("44.99"), Stock: 100},
		{Name: "Coffee Maker", Price: decimal.RequireFromString("79.99"), Stock: 30},
		{Name: "Blender", Price: decimal.RequireFromString("129.99"), Stock: 30},
		{Name: "Air Fryer", Price: decimal.RequireFromString("89.99"), Stock: 30},
	}
}

// LoadCatalog reads a JSON array of items from path. Files ending in .gz are
// decompressed first.
//
//	[{"id": "optional", "name": "Laptop", "price": 999.99, "stock": 10}]
func LoadCatalog(path string) ([]item.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip reader")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	items, err := ReadCatalog(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read catalog %s", path)
	}
	return items, nil
}

// SaveCatalog writes items to path in the format LoadCatalog reads,
// compressing when the path ends in .gz.
func SaveCatalog(path string, items []item.Item) (rerr error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create catalog")
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = errors.Wrap(err, "close catalog")
		}
	}()

	w := bufio.NewWriter(f)
	if strings.HasSuffix(path, ".gz") {
		gz := pgzip.NewWriter(w)
		if err := WriteCatalog(gz, items); err != nil {
			return err
		}
		if err := gz.Close(); err != nil {
			return errors.Wrap(err, "close gzip writer")
		}
	} else if err := WriteCatalog(w, items); err != nil {
		return err
	}
	return errors.Wrap(w.Flush(), "flush catalog")
}

// WriteCatalog encodes items as a JSON array.
func WriteCatalog(w io.Writer, items []item.Item) error {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(it.ID)
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("price")
		e.Str(it.Price.StringFixed(2))
		e.FieldStart("stock")
		e.Int(it.Stock)
		e.ObjEnd()
	}
	e.ArrEnd()

	if _, err := w.Write(e.Bytes()); err != nil {
		return errors.Wrap(err, "write catalog")
	}
	return nil
}

// ReadCatalog decodes a JSON array of items.
func ReadCatalog(r io.Reader) ([]item.Item, error) {
	var items []item.Item
	d := jx.Decode(r, 4096)
	if err := d.Arr(func(d *jx.Decoder) error {
		it, err := decodeItem(d)
		if err != nil {
			return errors.Wrapf(err, "item %d", len(items))
		}
		items = append(items, it)
		return nil
	}); err != nil {
		return nil, err
	}
	return items, nil
}

func decodeItem(d *jx.Decoder) (item.Item, error) {
	var (
		it       item.Item
		hasPrice bool
	)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "id":
			v, err := d.Str()
			it.ID = v
			return err
		case "name":
			v, err := d.Str()
			it.Name = v
			return err
		case "price":
			v, err := jxdecimal.Decode(d)
			it.Price = v
			hasPrice = true
			return err
		case "stock":
			v, err := d.Int()
			it.Stock = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return item.Item{}, err
	}
	if strings.TrimSpace(it.Name) == "" {
		return item.Item{}, errors.New("name is required")
	}
	if !hasPrice {
		return item.Item{}, errors.Errorf("price is required for %q", it.Name)
	}
	return it, nil
}

// Seed saves every item into the catalog.
func Seed(ctx context.Context, items item.Repository, catalog []item.Item) error {
	for _, it := range catalog {
		if _, err := items.Save(ctx, it); err != nil {
			return errors.Wrapf(err, "seed %q", it.Name)
		}
	}
	return nil
}
