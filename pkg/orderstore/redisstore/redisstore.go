// Package redisstore is a redis-backed Store for deployments where the
// parent application shares order state through redis rather than linking
// the scheduler in-process.
package redisstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	redis2 "github.com/NpoolPlatform/go-service-framework/pkg/redis"
	"github.com/go-redis/redis/v8"
	jsoniter "github.com/json-iterator/go"

	"github.com/xmrshop/wallet-scheduler/pkg/orderstore"
)

const (
	keyPrefix    = "wallet-scheduler:order:"
	redisTimeout = 5 * time.Second
)

type Store struct{}

func NewStore() *Store {
	return &Store{}
}

func orderKey(id string) string {
	return keyPrefix + id
}

func (s *Store) GetOrder(ctx context.Context, id string) (*orderstore.Order, error) {
	cli, err := redis2.GetClient()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	val, err := cli.Get(ctx, orderKey(id)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("invalid order %v", id)
	} else if err != nil {
		return nil, err
	}

	order := &orderstore.Order{}
	if err := jsoniter.UnmarshalFromString(val, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Store) UpdateOrder(ctx context.Context, order *orderstore.Order) error {
	cli, err := redis2.GetClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	body, err := jsoniter.MarshalToString(order)
	if err != nil {
		return err
	}
	return cli.Set(ctx, orderKey(order.ID), body, 0).Err()
}

// ListOrders walks the order keyspace with SCAN and filters in memory. Order
// volume at a single wallet is small enough that the scan stays cheap.
func (s *Store) ListOrders(
	ctx context.Context,
	statuses []orderstore.PaymentStatus,
	offset, limit int32,
) ([]*orderstore.Order, error) {
	cli, err := redis2.GetClient()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	wanted := map[orderstore.PaymentStatus]bool{}
	for _, status := range statuses {
		wanted[status] = true
	}

	orders := []*orderstore.Order{}
	iter := cli.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		val, err := cli.Get(ctx, iter.Val()).Result()
		if err == redis.Nil {
			continue
		} else if err != nil {
			return nil, err
		}
		order := &orderstore.Order{}
		if err := jsoniter.UnmarshalFromString(val, order); err != nil {
			return nil, err
		}
		if len(wanted) > 0 && !wanted[order.PaymentStatus] {
			continue
		}
		orders = append(orders, order)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})

	if offset >= int32(len(orders)) {
		return nil, nil
	}
	end := offset + limit
	if end > int32(len(orders)) {
		end = int32(len(orders))
	}
	return orders[offset:end], nil
}
