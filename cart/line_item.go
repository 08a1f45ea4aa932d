// Package cart drives the rows of the shopper's cart: size and quantity
// changes, deletion, and keeping what a row displays in step with the store.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/SoulMinT05/mtshop-frontend/alert"
	"github.com/SoulMinT05/mtshop-frontend/models"
	"github.com/SoulMinT05/mtshop-frontend/optimistic"
	"github.com/SoulMinT05/mtshop-frontend/store"
	"github.com/SoulMinT05/mtshop-frontend/validators"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	msgSizeUpdated       = "Cập nhật size sản phẩm thành công"
	msgQuantityIncreased = "Tăng số lượng sản phẩm thành công"
	msgQuantityDecreased = "Giảm số lượng sản phẩm thành công"
	msgLineRemoved       = "Xóa sản phẩm khỏi giỏ hàng thành công"
	msgGenericFailure    = "Đã có lỗi xảy ra, vui lòng thử lại"
)

// Backend is the part of the REST API a cart row talks to.
type Backend interface {
	UpdateCartItemSize(ctx context.Context, req models.UpdateSizeRequest) (models.Envelope, error)
	AddToCart(ctx context.Context, req models.LineRequest) (models.AddToCartResponse, error)
	DecreaseQuantity(ctx context.Context, req models.LineRequest) (models.Envelope, error)
	RemoveProductCart(ctx context.Context, cartID string) (models.Envelope, error)
}

type Options struct {
	// RollbackOnFailure reverts an optimistic quantity increase when the
	// backend does not confirm it. When false the tentative value stays on
	// display.
	RollbackOnFailure bool
	// AlertOnFailure raises an error alert for failed operations. Failures
	// are always logged.
	AlertOnFailure bool
}

type Deps struct {
	Backend  Backend
	Store    *store.Store
	Notifier alert.Notifier
	Logger   *zap.Logger
	Options  Options
}

// LineItem is one row of the cart table.
type LineItem struct {
	cartEntryID string
	productID   string
	product     models.Product
	name        string
	images      []string
	oldPrice    decimal.Decimal
	price       decimal.Decimal

	size     *optimistic.Field[string]
	quantity *optimistic.Field[int]

	backend  Backend
	store    *store.Store
	notifier alert.Notifier
	logger   *zap.Logger
	opts     Options

	mu     sync.Mutex
	detach func()
}

func NewLineItem(item models.CartItem, d Deps) *LineItem {
	product := models.Product{ID: item.ProductID()}
	if item.Product.Product != nil {
		product = *item.Product.Product
	}

	name := item.Name
	if name == "" {
		name = product.Name
	}
	images := item.Images
	if len(images) == 0 {
		images = product.Images
	}
	price := item.Price
	if price.IsZero() {
		price = product.Price
	}

	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier := d.Notifier
	if notifier == nil {
		notifier = alert.Multi{}
	}

	return &LineItem{
		cartEntryID: item.CartEntryID,
		productID:   item.ProductID(),
		product:     product,
		name:        name,
		images:      images,
		oldPrice:    item.OldPrice,
		price:       price,
		size:        optimistic.NewField(item.Size),
		quantity:    optimistic.NewField(item.Quantity),
		backend:     d.Backend,
		store:       d.Store,
		notifier:    notifier,
		logger: logger.With(
			zap.String("cart_entry_id", item.CartEntryID),
			zap.String("product_id", item.ProductID()),
		),
		opts: d.Options,
	}
}

func (l *LineItem) CartEntryID() string { return l.cartEntryID }

func (l *LineItem) ProductID() string { return l.productID }

func (l *LineItem) Size() string { return l.size.Value() }

func (l *LineItem) Quantity() int { return l.quantity.Value() }

func (l *LineItem) QuantityState() optimistic.State { return l.quantity.State() }

func (l *LineItem) key() models.LineKey {
	return models.LineKey{ProductID: l.productID, Size: l.size.Value()}
}

// Attach keeps the row reconciled with every store change until Detach.
func (l *LineItem) Attach() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.detach != nil {
		return
	}
	l.detach = l.store.OnCartChange(l.Reconcile)
}

func (l *LineItem) Detach() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.detach != nil {
		l.detach()
		l.detach = nil
	}
}

// Reconcile adopts the store's quantity for the line matching this row's
// product and displayed size. A pending optimistic value is superseded.
func (l *LineItem) Reconcile(lines []models.CartItem) {
	key := l.key()
	for _, it := range lines {
		if it.Key() == key {
			l.quantity.Settle(it.Quantity)
			return
		}
	}
}

// ChangeSize moves the row to newSize once the backend confirms it. The
// displayed size does not change before that.
func (l *LineItem) ChangeSize(ctx context.Context, newSize string) error {
	oldSize := l.size.Value()
	if newSize == oldSize {
		return nil
	}
	if err := validators.ValidateSize(l.product, newSize); err != nil {
		l.logger.Warn("size change refused", zap.String("new_size", newSize), zap.Error(err))
		return err
	}

	env, err := l.backend.UpdateCartItemSize(ctx, models.UpdateSizeRequest{
		ProductID: l.productID,
		OldSize:   oldSize,
		NewSize:   newSize,
	})
	if err != nil {
		return l.fail("update cart item size", env, err, zap.String("old_size", oldSize), zap.String("new_size", newSize))
	}

	l.notifier.Notify(alert.Success, msgSizeUpdated)
	if err := l.store.RekeyLine(l.productID, oldSize, newSize); err != nil {
		l.logger.Warn("confirmed size change has no local line", zap.String("old_size", oldSize), zap.Error(err))
	}
	l.size.Settle(newSize)
	l.Reconcile(l.store.Cart())
	return nil
}

// Increase shows quantity+1 straight away, then adopts whatever quantity the
// backend reports for this line.
func (l *LineItem) Increase(ctx context.Context) error {
	size := l.size.Value()
	shown := l.quantity.Propose(func(q int) int { return q + 1 })

	resp, err := l.backend.AddToCart(ctx, models.LineRequest{ProductID: l.productID, Size: size})
	if err != nil {
		if l.opts.RollbackOnFailure {
			l.quantity.Rollback()
		} else {
			l.quantity.Abandon()
		}
		return l.fail("add to cart", resp.Envelope, err, zap.String("size", size), zap.Int("shown_quantity", shown))
	}

	l.notifier.Notify(alert.Success, msgQuantityIncreased)

	key := models.LineKey{ProductID: l.productID, Size: size}
	for _, it := range resp.ShoppingCart {
		if it.Key() == key {
			l.store.UpsertLine(it)
			l.quantity.Confirm(it.Quantity)
			return nil
		}
	}

	l.logger.Warn("confirmed cart has no matching line", zap.String("size", size))
	l.quantity.Abandon()
	return nil
}

// Decrease lowers the quantity only after the backend confirms it.
func (l *LineItem) Decrease(ctx context.Context) error {
	key := l.key()

	env, err := l.backend.DecreaseQuantity(ctx, models.LineRequest{ProductID: key.ProductID, Size: key.Size})
	if err != nil {
		return l.fail("decrease quantity", env, err, zap.String("size", key.Size))
	}

	l.notifier.Notify(alert.Success, msgQuantityDecreased)
	if err := l.store.DecrementLine(key); err != nil {
		l.logger.Warn("confirmed decrement has no local line", zap.String("size", key.Size), zap.Error(err))
	}
	l.Reconcile(l.store.Cart())
	return nil
}

// Delete removes the row's line from the cart.
func (l *LineItem) Delete(ctx context.Context) error {
	env, err := l.backend.RemoveProductCart(ctx, l.cartEntryID)
	if err != nil {
		return l.fail("remove product from cart", env, err)
	}

	text := env.Message
	if text == "" {
		text = msgLineRemoved
	}
	l.notifier.Notify(alert.Success, text)
	if err := l.store.RemoveLine(l.cartEntryID); err != nil {
		l.logger.Warn("confirmed removal has no local line", zap.Error(err))
	}
	l.Detach()
	return nil
}

func (l *LineItem) fail(op string, env models.Envelope, err error, fields ...zap.Field) error {
	fields = append(fields, zap.String("op", op), zap.Bool("rejected", errors.Is(err, models.ErrRejected)), zap.Error(err))
	l.logger.Warn("cart operation failed", fields...)

	if l.opts.AlertOnFailure {
		text := msgGenericFailure
		if errors.Is(err, models.ErrRejected) && env.Message != "" {
			text = env.Message
		}
		l.notifier.Notify(alert.Error, text)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// View is what the row displays.
type View struct {
	CartEntryID       string   `json:"cartEntryId"`
	ProductID         string   `json:"productId"`
	Name              string   `json:"name"`
	Image             string   `json:"image,omitempty"`
	Sizes             []string `json:"sizes,omitempty"`
	Size              string   `json:"size"`
	Quantity          int      `json:"quantity"`
	QuantityState     string   `json:"quantityState"`
	ConfirmedQuantity int      `json:"confirmedQuantity"`
	OldPrice          string   `json:"oldPrice"`
	Price             string   `json:"price"`
	Subtotal          string   `json:"subtotal"`
	Selected          bool     `json:"selected"`
}

// View renders the row. The subtotal follows the store's confirmed quantity.
func (l *LineItem) View() View {
	confirmed := l.quantity.Confirmed()
	selected := false
	if it, ok := l.store.LineByEntry(l.cartEntryID); ok {
		confirmed = it.Quantity
		selected = it.Selected
	}

	var image string
	if len(l.images) > 0 {
		image = l.images[0]
	}

	return View{
		CartEntryID:       l.cartEntryID,
		ProductID:         l.productID,
		Name:              l.name,
		Image:             image,
		Sizes:             l.product.Sizes,
		Size:              l.size.Value(),
		Quantity:          l.quantity.Value(),
		QuantityState:     l.quantity.State().String(),
		ConfirmedQuantity: confirmed,
		OldPrice:          FormatVND(l.oldPrice),
		Price:             FormatVND(l.price),
		Subtotal:          FormatVND(Subtotal(l.price, confirmed)),
		Selected:          selected,
	}
}
