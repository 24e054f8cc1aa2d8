package store

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolbelt", "store")

const (
	// DefaultUnitPrice is the price of one unit of any item
	DefaultUnitPrice = 2.99
	// DefaultPaymentMethod is used when the payment method is not provided
	DefaultPaymentMethod = "credit_card"
	// EstimatedDelivery is reported for every order
	EstimatedDelivery = "3-5 business days"
	// MessagePurchaseCompleted is reported for every order
	MessagePurchaseCompleted = "Purchase completed successfully!"
)

// ErrEmptyBasket is returned on checkout of an absent or empty basket
var ErrEmptyBasket = errors.New("basket is empty or does not exist")

// Item is an entry of the basket.
// The fields are stored as provided, without validation.
type Item struct {
	Quantity string `json:"quantity" yaml:"quantity" jsonschema:"title=Quantity,description=Amount of the ingredient; may be empty."`
	Unit     string `json:"unit" yaml:"unit" jsonschema:"title=Unit,description=Unit of measure; may be empty."`
	Name     string `json:"name" yaml:"name" jsonschema:"title=Name,description=The ingredient name."`
}

// Order is the confirmation of a completed purchase
type Order struct {
	OrderID           string  `json:"order_id" yaml:"order_id"`
	UserID            string  `json:"user_id" yaml:"user_id"`
	ItemsPurchased    []Item  `json:"items_purchased" yaml:"items_purchased"`
	ItemCount         int     `json:"item_count" yaml:"item_count"`
	TotalPrice        float64 `json:"total_price" yaml:"total_price"`
	PaymentMethod     string  `json:"payment_method" yaml:"payment_method"`
	DeliveryAddress   string  `json:"delivery_address,omitempty" yaml:"delivery_address,omitempty"`
	EstimatedDelivery string  `json:"estimated_delivery" yaml:"estimated_delivery"`
	Message           string  `json:"message" yaml:"message"`
}

// BasketStore keeps an ordered list of items per user
type BasketStore interface {
	// AddToBasket appends items to the user's basket,
	// the basket is created on first use.
	// Returns the number of items in the basket.
	AddToBasket(ctx context.Context, userID string, items []Item) (int, error)
	// Basket returns a copy of the user's basket
	Basket(ctx context.Context, userID string) ([]Item, error)
	// CompletePurchase returns the order for the items in the basket
	// and empties the basket.
	// ErrEmptyBasket is returned if the basket is absent or empty,
	// in this case the basket is not modified.
	CompletePurchase(ctx context.Context, userID, paymentMethod, deliveryAddress string) (*Order, error)
}

// Option configures a BasketStore
type Option func(*options)

type options struct {
	unitPrice float64
}

// WithUnitPrice sets the price of one unit
func WithUnitPrice(price float64) Option {
	return func(o *options) {
		if price > 0 {
			o.unitPrice = price
		}
	}
}

func newOptions(opts ...Option) options {
	o := options{unitPrice: DefaultUnitPrice}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewOrder returns the order for the purchased items
func NewOrder(userID string, items []Item, paymentMethod, deliveryAddress string, unitPrice float64) *Order {
	if paymentMethod == "" {
		paymentMethod = DefaultPaymentMethod
	}
	return &Order{
		OrderID:           OrderID(userID, len(items)),
		UserID:            userID,
		ItemsPurchased:    items,
		ItemCount:         len(items),
		TotalPrice:        TotalPrice(items, unitPrice),
		PaymentMethod:     paymentMethod,
		DeliveryAddress:   deliveryAddress,
		EstimatedDelivery: EstimatedDelivery,
		Message:           MessagePurchaseCompleted,
	}
}

// OrderID returns ID derived from the user ID and the item count.
// The same user with the same count gets the same ID.
func OrderID(userID string, count int) string {
	return "ORDER-" + strconv.FormatUint(xxhash.Sum64String(userID+strconv.Itoa(count)), 16)
}

// TotalPrice returns the sum of quantities times the unit price,
// rounded to cents.
func TotalPrice(items []Item, unitPrice float64) float64 {
	var units float64
	for _, item := range items {
		units += ParseQuantity(item.Quantity)
	}
	return math.Round(units*unitPrice*100) / 100
}

// ParseQuantity parses decimals, fractions `1/2` and mixed numbers `1 1/2`.
// Anything else, negative values included, counts as 1.
func ParseQuantity(q string) float64 {
	fields := strings.Fields(q)
	switch len(fields) {
	case 1:
		if v, ok := parseNumber(fields[0]); ok {
			return v
		}
	case 2:
		whole, ok1 := parseNumber(fields[0])
		frac, ok2 := parseFraction(fields[1])
		if ok1 && ok2 && !strings.Contains(fields[0], "/") {
			return whole + frac
		}
	}
	return 1
}

func parseNumber(s string) (float64, bool) {
	if strings.Contains(s, "/") {
		return parseFraction(s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func parseFraction(s string) (float64, bool) {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return 0, false
	}
	n, err1 := strconv.ParseUint(num, 10, 32)
	d, err2 := strconv.ParseUint(den, 10, 32)
	if err1 != nil || err2 != nil || d == 0 {
		return 0, false
	}
	return float64(n) / float64(d), true
}
