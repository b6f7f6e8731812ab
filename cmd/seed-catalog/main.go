package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/xenking/ecommerce-store/internal/domain/item"
	"github.com/xenking/ecommerce-store/internal/storage/memory"
)

func main() {
	var (
		from string
		out  string
	)

	flag.StringVar(&from, "from", "", "catalog file to normalize (default: built-in products)")
	flag.StringVar(&out, "out", "catalog.json.gz", "output catalog file, gzipped when it ends in .gz")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, from, out); err != nil {
		slog.Error("seed catalog failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed catalog written", slog.String("path", out))
}

// run validates the source catalog through the item store, which assigns IDs
// to items that lack one, and writes the result in the server's seed format.
func run(ctx context.Context, from, out string) error {
	catalog := memory.DefaultCatalog()
	if from != "" {
		slog.Info("reading catalog file", slog.String("path", from))

		loaded, err := memory.LoadCatalog(from)
		if err != nil {
			return errors.Wrap(err, "load catalog")
		}
		catalog = loaded
	}

	items := memory.NewItemStore()
	if err := memory.Seed(ctx, items, catalog); err != nil {
		return errors.Wrap(err, "validate catalog")
	}

	list, err := items.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list items")
	}
	for _, it := range list {
		slog.Info("item",
			slog.String("id", it.ID),
			slog.String("name", it.Name),
			slog.String("price", it.Price.StringFixed(2)),
			slog.Int("stock", it.Stock),
		)
	}
	logTotals(list)

	return memory.SaveCatalog(out, list)
}

func logTotals(list []item.Item) {
	var units int
	for _, it := range list {
		units += it.Stock
	}
	slog.Info("catalog totals", slog.Int("items", len(list)), slog.Int("units", units))
}
