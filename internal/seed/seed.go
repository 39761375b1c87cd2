// Package seed loads catalogue import files and writes them to the product
// and shop stores.
//
// An import file is gzipped JSON lines. Each line is one record whose "kind"
// field selects its shape:
//
//	{"kind":"shop","shopId":"S1","name":"Phở 24","status":"OPEN","isOpen":true}
//	{"kind":"product","id":"P1","shopId":"S1","name":"Phở Bò","price":50,...}
package seed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"catalog-engine/internal/model"

	"github.com/google/uuid"
)

// Record kinds
const (
	KindShop    = "shop"
	KindProduct = "product"
)

// cancelCheckEvery is how many lines are read between context checks.
const cancelCheckEvery = 10_000

// Catalog is the decoded content of one import file.
type Catalog struct {
	Shops    []model.ShopStatus
	Products []model.Product
}

// Loader reads a catalogue import file.
type Loader interface {
	// Load reads the gzipped catalogue file at path.
	Load(ctx context.Context, path string) (*Catalog, error)
}

type recordKind struct {
	Kind string `json:"kind"`
}

// shopRecord lets an omitted isOpen default to true.
type shopRecord struct {
	model.ShopStatus
	IsOpen *bool `json:"isOpen"`
}

// productRecord lets an omitted isAvailable default to true.
type productRecord struct {
	model.Product
	IsAvailable *bool `json:"isAvailable"`
}

// decode parses JSON lines from r. Blank lines are ignored; an unknown kind
// or a malformed line aborts the load and reports the line number.
func decode(ctx context.Context, r io.Reader) (*Catalog, error) {
	cat := &Catalog{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%cancelCheckEvery == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var kind recordKind
		if err := json.Unmarshal([]byte(line), &kind); err != nil {
			return nil, fmt.Errorf("line %d: invalid record: %w", lineNo, err)
		}

		switch kind.Kind {
		case KindShop:
			var rec shopRecord
			if err := json.Unmarshal([]byte(line), &rec); err != nil {
				return nil, fmt.Errorf("line %d: invalid shop: %w", lineNo, err)
			}
			shop := rec.ShopStatus
			shop.IsOpen = rec.IsOpen == nil || *rec.IsOpen
			if shop.ShopID == "" {
				return nil, fmt.Errorf("line %d: shop without shopId", lineNo)
			}
			if shop.Status == "" {
				shop.Status = model.ShopStatusOpen
			}
			cat.Shops = append(cat.Shops, shop)
		case KindProduct:
			var rec productRecord
			if err := json.Unmarshal([]byte(line), &rec); err != nil {
				return nil, fmt.Errorf("line %d: invalid product: %w", lineNo, err)
			}
			p := rec.Product
			if p.ShopID == "" || p.Name == "" {
				return nil, fmt.Errorf("line %d: product needs shopId and name", lineNo)
			}
			if p.Price < 0 || p.Stock < 0 {
				return nil, fmt.Errorf("line %d: product %q has negative price or stock", lineNo, p.Name)
			}
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			p.IsAvailable = rec.IsAvailable == nil || *rec.IsAvailable
			cat.Products = append(cat.Products, p)
		default:
			return nil, fmt.Errorf("line %d: unknown record kind %q", lineNo, kind.Kind)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	return cat, nil
}
