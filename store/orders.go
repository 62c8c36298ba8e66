package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"lpstudio/api/models"
	"lpstudio/api/storage"
	"lpstudio/api/utils"
)

// OrderStore manages the simulated checkout lifecycle. Orders live in the
// local orders bucket only; they are created "pendente" and transition
// exactly once to "pago" or "falha" when the gateway calls back.
type OrderStore struct {
	store storage.Store
	now   func() time.Time
}

func NewOrderStore(st storage.Store) *OrderStore {
	return &OrderStore{store: st, now: time.Now}
}

func (s *OrderStore) readAll() []models.Order {
	return storage.LoadJSON(s.store, storage.BucketOrders, []models.Order{})
}

// CreateOrder records a pending order and prepends it to the bucket.
func (s *OrderStore) CreateOrder(lpID string, amount decimal.Decimal, offerDesc, couponCode, visitorID, sessionID string) (models.Order, error) {
	now := s.now().UTC().Format(time.RFC3339Nano)
	order := models.Order{
		IDPedido:      utils.NewEventID(),
		LpID:          lpID,
		DescricaoOfer: offerDesc,
		ValorTotal:    amount,
		CupomCodigo:   couponCode,
		Status:        models.OrderPending,
		CriadoEm:      now,
		AtualizadoEm:  now,
		VisitorID:     visitorID,
		SessionID:     sessionID,
	}

	orders := append([]models.Order{order}, s.readAll()...)
	if err := s.store.Save(storage.BucketOrders, orders); err != nil {
		return models.Order{}, fmt.Errorf("failed to persist order: %w", err)
	}
	return order, nil
}

// UpdateOrderStatus applies the gateway outcome. Returns nil when the id
// is unknown. Once an order leaves "pendente" it is terminal; a second
// transition is rejected.
func (s *OrderStore) UpdateOrderStatus(id, status string) (*models.Order, error) {
	if status != models.OrderPaid && status != models.OrderFailed {
		return nil, fmt.Errorf("invalid order status %q", status)
	}

	orders := s.readAll()
	for i := range orders {
		if orders[i].IDPedido != id {
			continue
		}
		if orders[i].Status != models.OrderPending {
			return nil, fmt.Errorf("order %s already settled as %s", id, orders[i].Status)
		}
		orders[i].Status = status
		orders[i].AtualizadoEm = s.now().UTC().Format(time.RFC3339Nano)

		if err := s.store.Save(storage.BucketOrders, orders); err != nil {
			return nil, fmt.Errorf("failed to persist order update: %w", err)
		}
		updated := orders[i]
		return &updated, nil
	}
	return nil, nil
}

// FindOrder returns the order by id, or nil when absent.
func (s *OrderStore) FindOrder(id string) *models.Order {
	for _, o := range s.readAll() {
		if o.IDPedido == id {
			out := o
			return &out
		}
	}
	return nil
}

// ListOrders returns all orders, most recent first.
func (s *OrderStore) ListOrders() []models.Order {
	return s.readAll()
}

// SaveCoupon upserts a discount code (case-insensitive on code).
func (s *OrderStore) SaveCoupon(c models.Coupon) error {
	c.Code = strings.ToLower(strings.TrimSpace(c.Code))
	if c.Code == "" {
		return fmt.Errorf("coupon code required")
	}

	coupons := storage.LoadJSON(s.store, storage.BucketCoupons, []models.Coupon{})
	replaced := false
	for i := range coupons {
		if strings.EqualFold(coupons[i].Code, c.Code) {
			coupons[i] = c
			replaced = true
			break
		}
	}
	if !replaced {
		coupons = append(coupons, c)
	}

	if err := s.store.Save(storage.BucketCoupons, coupons); err != nil {
		return fmt.Errorf("failed to persist coupons: %w", err)
	}
	return nil
}

// LookupCoupon resolves a discount code, nil when unknown.
func (s *OrderStore) LookupCoupon(code string) *models.Coupon {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	for _, c := range storage.LoadJSON(s.store, storage.BucketCoupons, []models.Coupon{}) {
		if strings.EqualFold(c.Code, code) {
			out := c
			return &out
		}
	}
	return nil
}
