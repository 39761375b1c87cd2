package model

import "time"

// Product represents a menu item offered by a shop.
// ShopName and CategoryName are snapshots taken when the product is written
// and are not kept in sync with later renames.
type Product struct {
	ID              string    `json:"id" db:"id"`
	ShopID          string    `json:"shopId" db:"shop_id"`
	ShopName        string    `json:"shopName" db:"shop_name"`
	Name            string    `json:"name" db:"name"`
	Description     string    `json:"description" db:"description"`
	Price           float64   `json:"price" db:"price"`
	CategoryID      string    `json:"categoryId" db:"category_id"`
	CategoryName    string    `json:"categoryName" db:"category_name"`
	ImageURLs       []string  `json:"imageUrls" db:"image_urls"`
	IsAvailable     bool      `json:"isAvailable" db:"is_available"`
	PreparationTime int       `json:"preparationTime" db:"preparation_time"`
	Rating          float64   `json:"rating" db:"rating"`
	TotalRatings    int       `json:"totalRatings" db:"total_ratings"`
	SoldCount       int       `json:"soldCount" db:"sold_count"`
	Stock           int       `json:"stock" db:"stock"`
	SortOrder       int       `json:"sortOrder" db:"sort_order"`
	IsDeleted       bool      `json:"-" db:"is_deleted"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

// SearchIndexItem is the denormalised, search-ready projection of a Product.
type SearchIndexItem struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	NameNormalized string   `json:"-"`
	Description    string   `json:"description"`
	ShopID         string   `json:"shopId"`
	ShopName       string   `json:"shopName"`
	CategoryID     string   `json:"categoryId"`
	CategoryName   string   `json:"categoryName"`
	Price          float64  `json:"price"`
	ImageURLs      []string `json:"imageUrls"`
	IsAvailable    bool     `json:"isAvailable"`
	Rating         float64  `json:"rating"`
	SoldCount      int      `json:"soldCount"`
}

// ProductPredicates holds the equality predicates understood by the product
// store. A nil field leaves that column unconstrained.
type ProductPredicates struct {
	ShopID      *string
	CategoryID  *string
	IsAvailable *bool
	IsDeleted   *bool
}

// ProductInput is the payload accepted by the catalogue write path.
type ProductInput struct {
	ShopID          string   `json:"shopId"`
	ShopName        string   `json:"shopName"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Price           float64  `json:"price"`
	CategoryID      string   `json:"categoryId"`
	CategoryName    string   `json:"categoryName"`
	ImageURLs       []string `json:"imageUrls"`
	IsAvailable     *bool    `json:"isAvailable,omitempty"`
	PreparationTime int      `json:"preparationTime"`
	Stock           int      `json:"stock"`
	SortOrder       int      `json:"sortOrder"`
}

// Page is a single page of results together with the total number of
// matches before pagination.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
