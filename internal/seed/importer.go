package seed

import (
	"context"
	"fmt"

	"catalog-engine/internal/model"

	"github.com/rs/zerolog"
)

// DefaultBatchSize is the number of products written per batch.
const DefaultBatchSize = 500

// ShopWriter persists shop records.
type ShopWriter interface {
	Upsert(ctx context.Context, shop *model.ShopStatus) error
}

// ProductBatchWriter persists products in bulk.
type ProductBatchWriter interface {
	CreateBatch(ctx context.Context, products []model.Product) error
}

// Result summarises an import run.
type Result struct {
	Shops    int
	Products int
}

// Importer writes a decoded catalogue to the stores. Shops are written
// before products so that every product's shop exists when it lands.
type Importer struct {
	shops     ShopWriter
	products  ProductBatchWriter
	batchSize int
	logger    zerolog.Logger
}

// NewImporter creates an importer. A non-positive batchSize selects
// DefaultBatchSize.
func NewImporter(shops ShopWriter, products ProductBatchWriter, batchSize int, logger zerolog.Logger) *Importer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Importer{
		shops:     shops,
		products:  products,
		batchSize: batchSize,
		logger:    logger.With().Str("component", "catalog-importer").Logger(),
	}
}

// Import writes cat. Products that omit a shop name take it from the shop
// records in the same file. The import stops at the first failing write;
// everything written before it stays.
func (i *Importer) Import(ctx context.Context, cat *Catalog) (Result, error) {
	var res Result

	shopNames := make(map[string]string, len(cat.Shops))
	for idx := range cat.Shops {
		shop := &cat.Shops[idx]
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := i.shops.Upsert(ctx, shop); err != nil {
			return res, fmt.Errorf("failed to import shop %s: %w", shop.ShopID, err)
		}
		shopNames[shop.ShopID] = shop.Name
		res.Shops++
	}

	for start := 0; start < len(cat.Products); start += i.batchSize {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		end := min(start+i.batchSize, len(cat.Products))
		batch := cat.Products[start:end]
		for idx := range batch {
			if batch[idx].ShopName == "" {
				batch[idx].ShopName = shopNames[batch[idx].ShopID]
			}
		}

		if err := i.products.CreateBatch(ctx, batch); err != nil {
			return res, fmt.Errorf("failed to import products %d-%d: %w", start, end-1, err)
		}
		res.Products += len(batch)

		i.logger.Debug().
			Int("written", res.Products).
			Int("total", len(cat.Products)).
			Msg("product batch imported")
	}

	i.logger.Info().
		Int("shops", res.Shops).
		Int("products", res.Products).
		Msg("catalog imported")

	return res, nil
}
