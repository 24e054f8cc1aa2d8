package store

import (
	"context"
	"encoding/json"
	"path"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/pkg/metricskey"
	"github.com/effective-security/xlog"
	"github.com/redis/go-redis/v9"
)

// The redis store implements the BasketStore interface using Redis as the backend.
// Every basket is a list of JSON encoded items at `/<prefix>/basket/<userID>`,
// the checkout watches the list, reads it and deletes it in a transaction.

// maxCheckoutRetries bounds the checkouts retried on concurrent changes of the basket
const maxCheckoutRetries = 10

type redisStore struct {
	client redis.UniversalClient
	prefix string
	opts   options
}

// NewRedisStore returns BasketStore backed by Redis
func NewRedisStore(client redis.UniversalClient, prefix string, opts ...Option) BasketStore {
	return &redisStore{
		client: client,
		prefix: prefix,
		opts:   newOptions(opts...),
	}
}

func (m *redisStore) getRedisBasketKey(userID string) string {
	return path.Join(m.prefix, "basket", userID)
}

func (m *redisStore) AddToBasket(ctx context.Context, userID string, items []Item) (int, error) {
	key := m.getRedisBasketKey(userID)
	if len(items) == 0 {
		n, err := m.client.LLen(ctx, key).Result()
		if err != nil {
			return 0, errors.Wrap(err, "failed to get basket size from Redis")
		}
		return int(n), nil
	}

	values := make([]any, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return 0, errors.Wrap(err, "failed to marshal item")
		}
		values = append(values, data)
	}

	n, err := m.client.RPush(ctx, key, values...).Result()
	if err != nil {
		return 0, errors.Wrap(err, "failed to store items in Redis")
	}
	metricskey.StatsBasketItemsAdded.IncrCounter(float64(len(items)), "redis")
	return int(n), nil
}

func (m *redisStore) Basket(ctx context.Context, userID string) ([]Item, error) {
	data, err := m.client.LRange(ctx, m.getRedisBasketKey(userID), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get basket from Redis")
	}
	return decodeItems(data)
}

func (m *redisStore) CompletePurchase(ctx context.Context, userID, paymentMethod, deliveryAddress string) (*Order, error) {
	key := m.getRedisBasketKey(userID)

	var list []Item
	checkout := func(tx *redis.Tx) error {
		data, err := tx.LRange(ctx, key, 0, -1).Result()
		if err != nil {
			return errors.Wrap(err, "failed to get basket from Redis")
		}
		// the basket is kept when the items can't be decoded
		list, err = decodeItems(data)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return errors.WithStack(ErrEmptyBasket)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}

	var err error
	for range maxCheckoutRetries {
		err = m.client.Watch(ctx, checkout, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, ErrEmptyBasket) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to checkout basket in Redis")
	}

	order := NewOrder(userID, list, paymentMethod, deliveryAddress, m.opts.unitPrice)
	metricskey.StatsBasketCheckouts.IncrCounter(1, "redis")
	logger.ContextKV(ctx, xlog.INFO,
		"status", "purchase_completed",
		"user_id", userID,
		"order_id", order.OrderID,
		"items", order.ItemCount)
	return order, nil
}

func decodeItems(data []string) ([]Item, error) {
	items := make([]Item, 0, len(data))
	for i, raw := range data {
		var item Item
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal basket item %d", i)
		}
		items = append(items, item)
	}
	return items, nil
}
