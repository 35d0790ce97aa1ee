package mockstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xmrshop/wallet-scheduler/pkg/orderstore"
)

// Store is an in-memory orderstore.Store used by tests and demos.
type Store struct {
	mu     sync.Mutex
	orders map[string]*orderstore.Order
}

func NewStore() *Store {
	return &Store{
		orders: map[string]*orderstore.Order{},
	}
}

func (s *Store) Put(order *orderstore.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *order
	s.orders[order.ID] = &cp
}

func (s *Store) ListOrders(ctx context.Context, statuses []orderstore.PaymentStatus, offset, limit int32) ([]*orderstore.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := []*orderstore.Order{}
	for _, order := range s.orders {
		for _, status := range statuses {
			if order.PaymentStatus == status {
				cp := *order
				matched = append(matched, &cp)
				break
			}
		}
	}
	// Map iteration order varies per call; offset pages must not.
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	if int(offset) >= len(matched) {
		return nil, nil
	}
	end := int(offset + limit)
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*orderstore.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %v not found", id)
	}
	cp := *order
	return &cp, nil
}

func (s *Store) UpdateOrder(ctx context.Context, order *orderstore.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[order.ID]; !ok {
		return fmt.Errorf("order %v not found", order.ID)
	}
	cp := *order
	s.orders[order.ID] = &cp
	return nil
}

// Notifier records delivered messages.
type Notifier struct {
	mu       sync.Mutex
	Messages map[string][]string
}

func NewNotifier() *Notifier {
	return &Notifier{
		Messages: map[string][]string{},
	}
}

func (n *Notifier) Notify(ctx context.Context, recipientID, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Messages[recipientID] = append(n.Messages[recipientID], text)
	return nil
}
