package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopdash/ordercore/domain"
	"github.com/shopdash/ordercore/internal/catalog"
	"github.com/shopdash/ordercore/internal/deals"
	"github.com/shopdash/ordercore/internal/inventory"
	"github.com/shopdash/ordercore/internal/logger"
	"github.com/shopdash/ordercore/internal/outbox"
	"github.com/shopdash/ordercore/internal/postgres"
	"github.com/shopdash/ordercore/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CartStore is the cart management boundary.
type CartStore interface {
	// LoadActiveCart returns nil when the user has no active cart.
	LoadActiveCart(ctx context.Context, userID string) (*domain.Cart, error)
	CachedActiveCart(ctx context.Context, userID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, c *domain.Cart) error
}

type OrderWriter interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
}

type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Deps wires the checkout service. Ledger, Orders and Events must share the
// transaction started by Tx when Tx is a postgres.TxRunner.
type Deps struct {
	Carts    CartStore
	Catalog  catalog.Catalog
	Ledger   inventory.Ledger
	Deals    deals.Counter // optional
	Orders   OrderWriter
	Events   outbox.Appender
	Tx       UnitOfWork
	Log      *zap.Logger
	Currency string
	Now      func() time.Time
}

type Service struct {
	carts    CartStore
	catalog  catalog.Catalog
	reader   *SnapshotReader
	ledger   inventory.Ledger
	deals    deals.Counter
	orders   OrderWriter
	events   outbox.Appender
	tx       UnitOfWork
	log      *zap.Logger
	currency string
	now      func() time.Time

	completed metric.Int64Counter
	failed    metric.Int64Counter
}

func NewService(d Deps) *Service {
	if d.Tx == nil {
		d.Tx = postgres.NoTx{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Currency == "" {
		d.Currency = "USD"
	}

	reader := NewSnapshotReader(d.Catalog)
	reader.now = d.Now

	return &Service{
		carts:     d.Carts,
		catalog:   d.Catalog,
		reader:    reader,
		ledger:    d.Ledger,
		deals:     d.Deals,
		orders:    d.Orders,
		events:    d.Events,
		tx:        d.Tx,
		log:       d.Log,
		currency:  d.Currency,
		now:       d.Now,
		completed: telemetry.Counter("ordercore.checkout.completed", "Orders placed through checkout"),
		failed:    telemetry.Counter("ordercore.checkout.failed", "Checkout attempts that did not produce an order"),
	}
}

// GetCheckoutSummary previews the user's cart with the attached discount applied.
func (s *Service) GetCheckoutSummary(ctx context.Context, userID string) (summary *domain.CheckoutSummary, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "checkout.GetCheckoutSummary",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer func() { telemetry.EndSpan(span, err) }()

	c, err := s.carts.CachedActiveCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	snapshot, err := s.reader.Read(ctx, c)
	if err != nil {
		return nil, err
	}

	discount := PreviewDiscount(snapshot.Discount, snapshot.TotalAmount)
	return &domain.CheckoutSummary{
		Items:          snapshot.Items,
		InvalidItems:   snapshot.InvalidItems,
		Subtotal:       snapshot.TotalAmount,
		TotalItems:     snapshot.TotalItems,
		DiscountAmount: discount.Amount,
		FinalTotal:     discount.FinalAmount,
		AppliedCoupon:  discount.Code,
	}, nil
}

// CompleteCheckout turns the user's active cart into a pending order.
// Stock for every line is taken or none is. The cart is cleared only after the order is stored.
func (s *Service) CompleteCheckout(ctx context.Context, req domain.CheckoutRequest) (order *domain.Order, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "checkout.CompleteCheckout",
		trace.WithAttributes(attribute.String("user.id", req.UserID)))
	defer func() {
		telemetry.EndSpan(span, err)
		if err != nil {
			s.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", failureReason(err))))
		}
	}()
	log := logger.WithTrace(ctx, s.log).With(zap.String("user_id", req.UserID))

	c, err := s.carts.LoadActiveCart(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	snapshot, err := s.reader.Read(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := rejectInvalidItems(snapshot); err != nil {
		return nil, err
	}

	discount := ApplyDiscount(snapshot.Discount, req.CouponCode, snapshot.TotalAmount)
	order, err = BuildOrder(OrderDraft{
		UserID:          req.UserID,
		Items:           snapshot.Items,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
		Discount:        discount,
		Currency:        s.currency,
	}, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.place(ctx, order, log); err != nil {
		return nil, err
	}

	if err := s.carts.ClearCart(ctx, c); err != nil {
		log.Error("failed to clear cart after checkout",
			zap.String("order_id", order.ID.String()), zap.String("cart_id", c.ID.Hex()), zap.Error(err))
	}

	s.completed.Add(ctx, 1)
	log.Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.Float64("total_amount", order.TotalAmount),
		zap.Int("items", len(order.Items)))
	return order, nil
}

// place redeems the deal, takes stock, stores the order and its created event.
func (s *Service) place(ctx context.Context, order *domain.Order, log *zap.Logger) (err error) {
	lines := orderLines(order)

	deal, err := s.redeemDeal(ctx, order.CouponCode)
	if err != nil {
		return err
	}
	if deal != nil {
		defer func() {
			if err != nil {
				s.releaseDeal(ctx, deal, log)
			}
		}()
	}

	event, err := outbox.NewOrderEvent(outbox.EventOrderCreated, order, "")
	if err != nil {
		return err
	}

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := inventory.DecrementLines(ctx, s.ledger, lines); err != nil {
			return fmt.Errorf("reserve stock for order %s: %w", order.ID, err)
		}

		err := s.orders.CreateOrder(ctx, order)
		if err == nil {
			err = s.events.Append(ctx, event)
		}
		if err != nil {
			err = fmt.Errorf("store order %s: %w", order.ID, err)
			// A database transaction rolls the decrements back on its own.
			if !postgres.InTx(ctx) {
				if restockErr := inventory.IncrementLines(context.WithoutCancel(ctx), s.ledger, lines); restockErr != nil {
					log.Error("failed to restore stock after order write failure",
						zap.String("order_id", order.ID.String()), zap.Error(restockErr))
				}
			}
			return err
		}
		return nil
	})
}

func (s *Service) redeemDeal(ctx context.Context, code string) (*domain.Deal, error) {
	if code == "" || s.deals == nil {
		return nil, nil
	}

	deal, err := s.catalog.GetDeal(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("look up deal %s: %w", code, err)
	}
	if deal == nil {
		return nil, nil
	}

	if err := s.deals.IncrementUsage(ctx, deal.ID); err != nil {
		return nil, fmt.Errorf("redeem deal %s: %w", code, err)
	}
	return deal, nil
}

func (s *Service) releaseDeal(ctx context.Context, deal *domain.Deal, log *zap.Logger) {
	if err := s.deals.ReleaseUsage(context.WithoutCancel(ctx), deal.ID); err != nil {
		log.Error("failed to release deal usage",
			zap.Int64("deal_id", deal.ID), zap.String("code", deal.Code), zap.Error(err))
	}
}

// rejectInvalidItems refuses checkout while any line cannot be bought.
// Stock shortages surface as *inventory.InsufficientStockError.
func rejectInvalidItems(snapshot *domain.CartSnapshot) error {
	if !snapshot.HasInvalidItems() {
		return nil
	}
	for _, item := range snapshot.InvalidItems {
		if item.Kind == domain.InvalidItemInsufficientStock {
			return &inventory.InsufficientStockError{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: item.Available,
			}
		}
	}
	item := snapshot.InvalidItems[0]
	return &InvalidCartItemError{ProductID: item.ProductID, ProductName: item.ProductName, Reason: item.Reason}
}

func orderLines(order *domain.Order) []inventory.Line {
	lines := make([]inventory.Line, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, inventory.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrEmptyCheckout):
		return "empty_checkout"
	case errors.Is(err, ErrInvalidAddress):
		return "invalid_address"
	case errors.Is(err, ErrInvalidPaymentMethod):
		return "invalid_payment_method"
	case errors.Is(err, ErrInvalidCartItem):
		return "invalid_cart_item"
	case errors.Is(err, inventory.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, deals.ErrUsageLimitExceeded):
		return "usage_limit_exceeded"
	default:
		return "internal"
	}
}
