package model

// ShopStatusOpen is the status value of a shop that is trading.
const ShopStatusOpen = "OPEN"

// ShopStatus is the trading state of a shop.
type ShopStatus struct {
	ShopID string `json:"shopId" db:"id"`
	Name   string `json:"name" db:"name"`
	Status string `json:"status" db:"status"`
	IsOpen bool   `json:"isOpen" db:"is_open"`
}

// Trading reports whether products of the shop may appear in the global feed.
func (s *ShopStatus) Trading() bool {
	return s != nil && s.Status == ShopStatusOpen && s.IsOpen
}
