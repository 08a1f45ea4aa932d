package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// LineKey identifies a cart line: one product in one size.
type LineKey struct {
	ProductID string
	Size      string
}

func (k LineKey) String() string {
	return k.ProductID + "/" + k.Size
}

// Product is the read-only product reference a cart line is built from.
type Product struct {
	ID     string          `json:"_id"`
	Name   string          `json:"name,omitempty"`
	Images []string        `json:"images,omitempty"`
	Price  decimal.Decimal `json:"price"`
	Sizes  []string        `json:"productSize,omitempty"`
}

// HasSize reports whether size is one of the product's selectable sizes.
func (p Product) HasSize(size string) bool {
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// ProductRef is the "product" field of a cart line. The backend sends either
// the bare product id or the populated product document.
type ProductRef struct {
	ID      string
	Product *Product
}

func (r *ProductRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = ProductRef{}
		return nil
	}

	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("failed to decode product id: %w", err)
		}
		*r = ProductRef{ID: id}
		return nil
	}

	var p Product
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to decode product: %w", err)
	}
	*r = ProductRef{ID: p.ID, Product: &p}
	return nil
}

func (r ProductRef) MarshalJSON() ([]byte, error) {
	if r.Product != nil {
		return json.Marshal(r.Product)
	}
	return json.Marshal(r.ID)
}

// CartItem is one line of the shopper's cart as the backend reports it.
type CartItem struct {
	CartEntryID string          `json:"_id"`
	Product     ProductRef      `json:"product"`
	Name        string          `json:"name,omitempty"`
	Images      []string        `json:"images,omitempty"`
	OldPrice    decimal.Decimal `json:"oldPrice"`
	Price       decimal.Decimal `json:"price"`
	Size        string          `json:"sizeProduct"`
	Quantity    int             `json:"quantityProduct"`
	Selected    bool            `json:"selected,omitempty"`
}

func (it CartItem) ProductID() string {
	return it.Product.ID
}

func (it CartItem) Key() LineKey {
	return LineKey{ProductID: it.Product.ID, Size: it.Size}
}

// UpdateSizeRequest is the body of POST /api/user/updateCartItemSize.
type UpdateSizeRequest struct {
	ProductID string `json:"productId"`
	OldSize   string `json:"oldSize"`
	NewSize   string `json:"newSize"`
}

// LineRequest is the body of addToCart and decreaseQuantityCart.
type LineRequest struct {
	ProductID string `json:"productId"`
	Size      string `json:"sizeProduct"`
}

// RemoveLineRequest is the body of POST /api/user/removeProductCart.
type RemoveLineRequest struct {
	CartID string `json:"cartId"`
}

type AddToCartResponse struct {
	Envelope
	ShoppingCart []CartItem `json:"shoppingCart"`
}

type CartResponse struct {
	Envelope
	ShoppingCart []CartItem `json:"shoppingCart"`
}
