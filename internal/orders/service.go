package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopdash/ordercore/domain"
	"github.com/shopdash/ordercore/internal/inventory"
	"github.com/shopdash/ordercore/internal/logger"
	"github.com/shopdash/ordercore/internal/outbox"
	"github.com/shopdash/ordercore/internal/postgres"
	"github.com/shopdash/ordercore/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultBulkConcurrency = 8

type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Deps struct {
	Repo            OrderRepository
	Ledger          inventory.Ledger
	Events          outbox.Appender
	Tx              UnitOfWork
	Log             *zap.Logger
	Now             func() time.Time
	BulkConcurrency int
}

// Service owns the order lifecycle after checkout.
type Service struct {
	repo            OrderRepository
	ledger          inventory.Ledger
	events          outbox.Appender
	tx              UnitOfWork
	log             *zap.Logger
	now             func() time.Time
	bulkConcurrency int

	cancelled metric.Int64Counter
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
	if d.BulkConcurrency <= 0 {
		d.BulkConcurrency = defaultBulkConcurrency
	}
	return &Service{
		repo:            d.Repo,
		ledger:          d.Ledger,
		events:          d.Events,
		tx:              d.Tx,
		log:             d.Log,
		now:             d.Now,
		bulkConcurrency: d.BulkConcurrency,
		cancelled:       telemetry.Counter("ordercore.orders.cancelled", "Orders cancelled with stock restored"),
	}
}

// GetOrder returns the order when it belongs to userID.
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID, userID string) (*domain.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrders returns the user's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.repo.ListOrdersByUserID(ctx, userID)
}

// CancelOrder cancels a pending or processing order owned by userID and restocks its lines.
func (s *Service) CancelOrder(ctx context.Context, id uuid.UUID, userID string) (order *domain.Order, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "orders.CancelOrder",
		trace.WithAttributes(attribute.String("order.id", id.String())))
	defer func() { telemetry.EndSpan(span, err) }()

	return s.change(ctx, id, userID, domain.OrderStatusCancelled, nil)
}

// UpdateOrderStatus moves the order to status and, when paymentStatus is set, to that payment status.
// Both moves are checked before anything is written and land together or not at all.
// A move to cancelled restocks exactly like CancelOrder.
func (s *Service) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, paymentStatus *domain.PaymentStatus) (order *domain.Order, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "orders.UpdateOrderStatus",
		trace.WithAttributes(
			attribute.String("order.id", id.String()),
			attribute.String("order.status", status.String())))
	defer func() { telemetry.EndSpan(span, err) }()

	return s.change(ctx, id, "", status, paymentStatus)
}

// change applies one validated move. An empty userID skips the ownership check.
func (s *Service) change(ctx context.Context, id uuid.UUID, userID string, status domain.OrderStatus, paymentStatus *domain.PaymentStatus) (*domain.Order, error) {
	log := logger.WithTrace(ctx, s.log).With(zap.String("order_id", id.String()))

	var (
		updated   *domain.Order
		restocked bool
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		order, err := s.repo.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if userID != "" && order.UserID != userID {
			return ErrOrderNotFound
		}
		if status == domain.OrderStatusCancelled && order.Status.IsTerminal() {
			return &InvalidTransitionError{
				Field: "status", From: order.Status.String(), To: status.String(),
				Reason: fmt.Sprintf("order is already %s", order.Status),
			}
		}

		toStatus, toPayment, err := nextState(order, status, paymentStatus)
		if err != nil {
			return err
		}
		if toStatus == order.Status && toPayment == order.PaymentStatus {
			updated = order
			return nil
		}

		next := *order
		next.Status = toStatus
		next.PaymentStatus = toPayment
		next.UpdatedAt = s.now()

		restock := toStatus == domain.OrderStatusCancelled && order.Status != domain.OrderStatusCancelled
		if err := s.save(ctx, order, &next, restock, log); err != nil {
			return err
		}
		updated, restocked = &next, restock
		return nil
	})
	if err != nil {
		return nil, err
	}

	if restocked {
		s.cancelled.Add(ctx, 1)
		log.Info("order cancelled", zap.Int("units_restocked", updated.TotalQuantity()))
	}
	return updated, nil
}

// save flips the status with a compare-and-set, restocks when asked, then appends the event.
// The flip goes first so a caller that loses the race never touches stock.
// Outside a database transaction every completed step is undone when a later one fails.
func (s *Service) save(ctx context.Context, prev, next *domain.Order, restock bool, log *zap.Logger) error {
	eventType := outbox.EventOrderStatusChanged
	if restock {
		eventType = outbox.EventOrderCancelled
	}
	event, err := outbox.NewOrderEvent(eventType, next, prev.Status)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateStatus(ctx, statusChange(prev, next)); err != nil {
		return fmt.Errorf("update order %s: %w", next.ID, err)
	}

	undo := !postgres.InTx(ctx)
	lines := orderLines(next)
	if restock {
		if err := inventory.IncrementLines(ctx, s.ledger, lines); err != nil {
			if undo {
				s.revertStatus(ctx, prev, next, log)
			}
			return fmt.Errorf("restock order %s: %w", next.ID, err)
		}
	}

	if err := s.events.Append(ctx, event); err != nil {
		if undo {
			if restock {
				if undoErr := inventory.DecrementLines(context.WithoutCancel(ctx), s.ledger, lines); undoErr != nil {
					log.Error("failed to revert restock", zap.Error(undoErr))
				}
			}
			s.revertStatus(ctx, prev, next, log)
		}
		return fmt.Errorf("append %s event: %w", eventType, err)
	}
	return nil
}

func (s *Service) revertStatus(ctx context.Context, prev, next *domain.Order, log *zap.Logger) {
	if err := s.repo.UpdateStatus(context.WithoutCancel(ctx), statusChange(next, prev)); err != nil {
		log.Error("failed to revert status change",
			zap.String("status", next.Status.String()), zap.Error(err))
	}
}

func statusChange(from, to *domain.Order) StatusChange {
	return StatusChange{
		ID:          to.ID,
		FromStatus:  from.Status,
		FromPayment: from.PaymentStatus,
		ToStatus:    to.Status,
		ToPayment:   to.PaymentStatus,
		At:          to.UpdatedAt,
	}
}

type BulkFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type BulkResult struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

// BulkUpdateOrderStatus moves each order to status on its own; one failure never blocks the rest.
// Results keep the order of ids, with duplicates reported once.
func (s *Service) BulkUpdateOrderStatus(ctx context.Context, ids []string, status domain.OrderStatus) (*BulkResult, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}

	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	errs := make([]error, len(unique))
	var g errgroup.Group
	g.SetLimit(s.bulkConcurrency)
	for i, raw := range unique {
		g.Go(func() error {
			id, err := uuid.Parse(raw)
			if err != nil {
				errs[i] = fmt.Errorf("invalid order id: %w", err)
				return nil
			}
			_, errs[i] = s.UpdateOrderStatus(ctx, id, status, nil)
			return nil
		})
	}
	_ = g.Wait()

	result := &BulkResult{Succeeded: make([]string, 0), Failed: make([]BulkFailure, 0)}
	for i, id := range unique {
		if errs[i] != nil {
			result.Failed = append(result.Failed, BulkFailure{ID: id, Reason: errs[i].Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}

	s.log.Info("bulk status update finished",
		zap.String("status", status.String()),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

func orderLines(order *domain.Order) []inventory.Line {
	lines := make([]inventory.Line, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, inventory.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}
