package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog-engine/internal/model"
	"catalog-engine/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// productWriter implements ProductWriter.
type productWriter struct {
	repo        repository.ProductRepository
	invalidator ShopCacheInvalidator
	logger      zerolog.Logger
	now         func() time.Time
}

// NewProductWriter creates the catalogue write path.
func NewProductWriter(repo repository.ProductRepository, invalidator ShopCacheInvalidator, logger zerolog.Logger) ProductWriter {
	return &productWriter{
		repo:        repo,
		invalidator: invalidator,
		logger:      logger.With().Str("service", "product-writer").Logger(),
		now:         time.Now,
	}
}

// Create adds a product to a shop's menu.
func (w *productWriter) Create(ctx context.Context, in *model.ProductInput) (*model.Product, error) {
	if strings.TrimSpace(in.ShopID) == "" {
		return nil, model.ErrMissingShopID
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	now := w.now()
	p := &model.Product{
		ID:        uuid.NewString(),
		ShopID:    in.ShopID,
		ShopName:  in.ShopName,
		Stock:     in.Stock,
		CreatedAt: now,
	}
	applyInput(p, in, now)
	if in.IsAvailable == nil {
		p.IsAvailable = true
	}

	if err := w.repo.Create(ctx, p); err != nil {
		w.logger.Error().Err(err).Str("shop_id", p.ShopID).Msg("failed to create product")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	w.invalidator.InvalidateShopCache(p.ShopID)

	w.logger.Info().
		Str("product_id", p.ID).
		Str("shop_id", p.ShopID).
		Msg("product created")

	return p, nil
}

// Update replaces the editable fields of a product. The stock level is kept;
// it changes only through AdjustStock.
func (w *productWriter) Update(ctx context.Context, id string, in *model.ProductInput) (*model.Product, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	p, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}

	applyInput(p, in, w.now())

	if err := w.repo.Update(ctx, p); err != nil {
		return nil, w.writeError(err, id, "update")
	}

	w.invalidator.InvalidateShopCache(p.ShopID)
	return p, nil
}

// SetAvailability toggles whether a product can be ordered.
func (w *productWriter) SetAvailability(ctx context.Context, id string, available bool) (*model.Product, error) {
	p, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := w.repo.SetAvailability(ctx, id, available); err != nil {
		return nil, w.writeError(err, id, "set availability of")
	}
	p.IsAvailable = available
	p.UpdatedAt = w.now()

	w.invalidator.InvalidateShopCache(p.ShopID)
	return p, nil
}

// SoftDelete hides a product from every read path.
func (w *productWriter) SoftDelete(ctx context.Context, id string) error {
	p, err := w.load(ctx, id)
	if err != nil {
		return err
	}

	if err := w.repo.SoftDelete(ctx, id); err != nil {
		return w.writeError(err, id, "delete")
	}

	w.invalidator.InvalidateShopCache(p.ShopID)

	w.logger.Info().Str("product_id", id).Str("shop_id", p.ShopID).Msg("product deleted")
	return nil
}

// AdjustStock adds delta, which may be negative, to the stock level.
func (w *productWriter) AdjustStock(ctx context.Context, id string, delta int) (*model.Product, error) {
	p, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}

	stock, err := w.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		return nil, w.writeError(err, id, "adjust stock of")
	}
	p.Stock = stock
	p.UpdatedAt = w.now()

	w.invalidator.InvalidateShopCache(p.ShopID)
	return p, nil
}

func (w *productWriter) load(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		return nil, model.ErrProductNotFound
	}

	p, err := w.repo.GetByID(ctx, id)
	if err != nil {
		w.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if p == nil {
		return nil, model.ErrProductNotFound
	}
	return p, nil
}

// writeError passes domain errors through and wraps everything else.
func (w *productWriter) writeError(err error, id, action string) error {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	w.logger.Error().Err(err).Str("product_id", id).Msgf("failed to %s product", action)
	return fmt.Errorf("failed to %s product: %w", action, err)
}

func validateInput(in *model.ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return model.ErrMissingName
	}
	if in.Price < 0 {
		return model.ErrInvalidPrice
	}
	if in.Stock < 0 {
		return model.ErrInvalidStock
	}
	return nil
}

func applyInput(p *model.Product, in *model.ProductInput, now time.Time) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.CategoryID = in.CategoryID
	p.CategoryName = in.CategoryName
	p.ImageURLs = in.ImageURLs
	p.PreparationTime = in.PreparationTime
	p.SortOrder = in.SortOrder
	if in.IsAvailable != nil {
		p.IsAvailable = *in.IsAvailable
	}
	p.UpdatedAt = now
}
