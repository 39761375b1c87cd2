package seed

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"catalog-engine/internal/model"
)

type shopLine struct {
	Kind string `json:"kind"`
	model.ShopStatus
}

type productLine struct {
	Kind string `json:"kind"`
	model.Product
}

// Write encodes cat as gzipped JSON lines, shops first.
func Write(w io.Writer, cat *Catalog) error {
	gz := gzip.NewWriter(w)
	enc := json.NewEncoder(gz)

	for _, shop := range cat.Shops {
		if err := enc.Encode(shopLine{Kind: KindShop, ShopStatus: shop}); err != nil {
			return fmt.Errorf("failed to encode shop %s: %w", shop.ShopID, err)
		}
	}
	for _, p := range cat.Products {
		if err := enc.Encode(productLine{Kind: KindProduct, Product: p}); err != nil {
			return fmt.Errorf("failed to encode product %s: %w", p.ID, err)
		}
	}

	return gz.Close()
}

// WriteFile writes cat to a new gzipped catalogue file at path.
func WriteFile(path string, cat *Catalog) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := Write(file, cat); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// SampleCatalog returns a small catalogue for local development: two open
// shops, one closed shop and a handful of dishes, one of them unavailable.
func SampleCatalog() *Catalog {
	return &Catalog{
		Shops: []model.ShopStatus{
			{ShopID: "shop-pho24", Name: "Phở 24", Status: model.ShopStatusOpen, IsOpen: true},
			{ShopID: "shop-huonglien", Name: "Bún Chả Hương Liên", Status: model.ShopStatusOpen, IsOpen: true},
			{ShopID: "shop-comtam", Name: "Cơm Tấm Ba Ghiền", Status: model.ShopStatusOpen, IsOpen: false},
		},
		Products: []model.Product{
			{ID: "pho-bo", ShopID: "shop-pho24", Name: "Phở Bò", Description: "Beef noodle soup", Price: 55000, CategoryID: "noodles", CategoryName: "Noodles", IsAvailable: true, PreparationTime: 10, Rating: 4.7, TotalRatings: 320, SoldCount: 1200, Stock: 100, SortOrder: 1},
			{ID: "pho-ga", ShopID: "shop-pho24", Name: "Phở Gà", Description: "Chicken noodle soup", Price: 50000, CategoryID: "noodles", CategoryName: "Noodles", IsAvailable: true, PreparationTime: 10, Rating: 4.5, TotalRatings: 210, SoldCount: 800, Stock: 100, SortOrder: 2},
			{ID: "goi-cuon", ShopID: "shop-pho24", Name: "Gỏi Cuốn", Description: "Fresh spring rolls", Price: 35000, CategoryID: "starters", CategoryName: "Starters", IsAvailable: false, PreparationTime: 5, Rating: 4.2, TotalRatings: 90, SoldCount: 300, Stock: 0, SortOrder: 3},
			{ID: "bun-cha", ShopID: "shop-huonglien", Name: "Bún Chả", Description: "Grilled pork with rice noodles", Price: 60000, CategoryID: "noodles", CategoryName: "Noodles", IsAvailable: true, PreparationTime: 15, Rating: 4.8, TotalRatings: 540, SoldCount: 2100, Stock: 80, SortOrder: 1},
			{ID: "nem-ran", ShopID: "shop-huonglien", Name: "Nem Rán", Description: "Fried spring rolls", Price: 40000, CategoryID: "starters", CategoryName: "Starters", IsAvailable: true, PreparationTime: 8, Rating: 4.4, TotalRatings: 150, SoldCount: 650, Stock: 60, SortOrder: 2},
			{ID: "com-tam-suon", ShopID: "shop-comtam", Name: "Cơm Tấm Sườn", Description: "Broken rice with grilled pork chop", Price: 45000, CategoryID: "rice", CategoryName: "Rice", IsAvailable: true, PreparationTime: 12, Rating: 4.6, TotalRatings: 400, SoldCount: 1500, Stock: 90, SortOrder: 1},
		},
	}
}
