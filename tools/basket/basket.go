package basket

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/store"
	"github.com/effective-security/toolbelt/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolbelt", "basket")

const (
	AddToolName      = "add_to_basket"
	PurchaseToolName = "complete_purchase"
	ViewToolName     = "view_basket"

	// MessageEmptyBasket is returned on checkout of an empty basket
	MessageEmptyBasket = "Basket is empty or does not exist"
)

// AddRequest is the input of add_to_basket
type AddRequest struct {
	UserID      string       `json:"user_id" yaml:"user_id" jsonschema:"title=User ID,description=Identifier of the user's basket." validate:"required"`
	Ingredients []store.Item `json:"ingredients" yaml:"ingredients" jsonschema:"title=Ingredients,description=List of ingredients with quantity, unit and name."`
}

// AddResult is the output of add_to_basket
type AddResult struct {
	Success     bool   `json:"success" yaml:"success"`
	UserID      string `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	BasketCount int    `json:"basket_count" yaml:"basket_count"`
	Message     string `json:"message,omitempty" yaml:"message,omitempty"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

// PurchaseRequest is the input of complete_purchase
type PurchaseRequest struct {
	UserID          string `json:"user_id" yaml:"user_id" jsonschema:"title=User ID,description=Identifier of the user's basket." validate:"required"`
	PaymentMethod   string `json:"payment_method,omitempty" yaml:"payment_method,omitempty" jsonschema:"title=Payment Method,description=Method of payment: credit_card or paypal. Default: credit_card."`
	DeliveryAddress string `json:"delivery_address,omitempty" yaml:"delivery_address,omitempty" jsonschema:"title=Delivery Address,description=Address for delivery."`
}

// PurchaseResult is the output of complete_purchase,
// on success it carries the order fields.
type PurchaseResult struct {
	Success bool `json:"success" yaml:"success"`
	*store.Order
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ViewRequest is the input of view_basket
type ViewRequest struct {
	UserID string `json:"user_id" yaml:"user_id" jsonschema:"title=User ID,description=Identifier of the user's basket." validate:"required"`
}

// ViewResult is the output of view_basket
type ViewResult struct {
	Success   bool         `json:"success" yaml:"success"`
	UserID    string       `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Items     []store.Item `json:"items" yaml:"items"`
	ItemCount int          `json:"item_count" yaml:"item_count"`
	Error     string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// Tools provides the basket tools over the BasketStore
type Tools struct {
	store store.BasketStore
}

// New returns basket tools
func New(st store.BasketStore) *Tools {
	return &Tools{store: st}
}

// AddToBasket appends the ingredients to the user's basket
func (t *Tools) AddToBasket(ctx context.Context, req *AddRequest) (*AddResult, error) {
	count, err := t.store.AddToBasket(ctx, req.UserID, req.Ingredients)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR, "reason", "AddToBasket", "user_id", req.UserID, "err", err.Error())
		return &AddResult{
			Success: false,
			UserID:  req.UserID,
			Error:   err.Error(),
		}, nil
	}
	return &AddResult{
		Success:     true,
		UserID:      req.UserID,
		BasketCount: count,
		Message:     fmt.Sprintf("Added %d ingredients to basket", len(req.Ingredients)),
	}, nil
}

// CompletePurchase checks out the user's basket
func (t *Tools) CompletePurchase(ctx context.Context, req *PurchaseRequest) (*PurchaseResult, error) {
	order, err := t.store.CompletePurchase(ctx, req.UserID, req.PaymentMethod, req.DeliveryAddress)
	if err != nil {
		if errors.Is(err, store.ErrEmptyBasket) {
			return &PurchaseResult{
				Success: false,
				Message: MessageEmptyBasket,
			}, nil
		}
		logger.ContextKV(ctx, xlog.ERROR, "reason", "CompletePurchase", "user_id", req.UserID, "err", err.Error())
		return &PurchaseResult{
			Success: false,
			Error:   err.Error(),
		}, nil
	}
	return &PurchaseResult{
		Success: true,
		Order:   order,
		Message: order.Message,
	}, nil
}

// ViewBasket returns the user's basket
func (t *Tools) ViewBasket(ctx context.Context, req *ViewRequest) (*ViewResult, error) {
	items, err := t.store.Basket(ctx, req.UserID)
	if err != nil {
		return &ViewResult{
			Success: false,
			UserID:  req.UserID,
			Error:   err.Error(),
		}, nil
	}
	if items == nil {
		items = []store.Item{}
	}
	return &ViewResult{
		Success:   true,
		UserID:    req.UserID,
		Items:     items,
		ItemCount: len(items),
	}, nil
}

// List returns add_to_basket, complete_purchase and view_basket tools
func (t *Tools) List() ([]tools.ITool, error) {
	add, err := tools.NewFuncTool(AddToolName,
		"Adds ingredients to a user's shopping basket. Returns the number of items in the basket.",
		t.AddToBasket)
	if err != nil {
		return nil, err
	}
	purchase, err := tools.NewFuncTool(PurchaseToolName,
		"Completes the purchase for items in the user's basket. Returns order confirmation details.",
		t.CompletePurchase)
	if err != nil {
		return nil, err
	}
	view, err := tools.NewFuncTool(ViewToolName,
		"Returns the items in the user's shopping basket.",
		t.ViewBasket)
	if err != nil {
		return nil, err
	}
	return []tools.ITool{add, purchase, view}, nil
}
