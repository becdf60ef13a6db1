// Package commerce is the client for the commerce block.
package commerce

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/fivetwenty-io/blocks-sdk/pkg/blocks"
	"github.com/fivetwenty-io/blocks-sdk/pkg/identity"
	"github.com/fivetwenty-io/blocks-sdk/pkg/jsonapi"
)

// ResourceTypeOrder is the resource type of orders.
const ResourceTypeOrder = "orders"

// Order is a customer order.
type Order struct {
	ID            string                         `json:"id" yaml:"id"`
	Number        string                         `json:"number" yaml:"number"`
	Status        jsonapi.OrderStatus            `json:"status" yaml:"status"`
	PaymentStatus jsonapi.PaymentStatus          `json:"payment_status" yaml:"payment_status"`
	Currency      string                         `json:"currency" yaml:"currency"`
	Subtotal      float64                        `json:"subtotal" yaml:"subtotal"`
	Tax           float64                        `json:"tax" yaml:"tax"`
	Total         float64                        `json:"total" yaml:"total"`
	Discount      *float64                       `json:"discount,omitempty" yaml:"discount,omitempty"`
	Notes         *string                        `json:"notes,omitempty" yaml:"notes,omitempty"`
	Tags          []string                       `json:"tags" yaml:"tags"`
	PlacedAt      *time.Time                     `json:"placed_at,omitempty" yaml:"placed_at,omitempty"`
	CreatedAt     *time.Time                     `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Customer      jsonapi.Related[identity.User] `json:"customer,omitzero" yaml:"-"`
	CustomerID    string                         `json:"customer_id,omitempty" yaml:"customer_id,omitempty"`
}

// MapOrder maps an orders resource. The customer relationship is resolved
// with the identity user mapper.
func MapOrder(res *jsonapi.Resource, idx *jsonapi.Index) Order {
	order := Order{
		ID:            res.ID,
		Number:        jsonapi.ParseString(res.AttrAny("orderNumber", "order_number", "number")),
		Status:        jsonapi.ParseOrderStatus(res.Attr("status")),
		PaymentStatus: jsonapi.ParsePaymentStatus(res.AttrAny("paymentStatus", "payment_status")),
		Currency:      jsonapi.ParseString(res.Attr("currency")),
		Subtotal:      jsonapi.ParseNumber(res.Attr("subtotal")),
		Tax:           jsonapi.ParseNumber(res.Attr("tax")),
		Total:         jsonapi.ParseNumber(res.Attr("total")),
		Discount:      jsonapi.ParseOptionalNumber(res.Attr("discount")),
		Notes:         jsonapi.ParseOptionalString(res.Attr("notes")),
		Tags:          jsonapi.ParseStringArray(res.Attr("tags")),
		PlacedAt:      jsonapi.ParseDate(res.AttrAny("placedAt", "placed_at")),
		CreatedAt:     jsonapi.ParseDate(res.AttrAny("createdAt", "created_at")),
		Customer:      jsonapi.ResolveOne(res, "customer", idx, identity.MapUser),
	}

	if ids := jsonapi.RelatedIDs(res, "customer"); len(ids) > 0 {
		order.CustomerID = ids[0].ID
	}

	return order
}

// Service is the commerce block client.
type Service struct {
	transport blocks.Transport
}

// NewService creates a commerce client on top of transport.
func NewService(transport blocks.Transport) *Service {
	return &Service{transport: transport}
}

// GetOrder fetches one order.
func (s *Service) GetOrder(ctx context.Context, id string, params *blocks.QueryParams) (*Order, error) {
	var opts *blocks.RequestOptions
	if params != nil {
		opts = &blocks.RequestOptions{Params: params.ToParams()}
	}

	resp, err := s.transport.Get(ctx, "/orders/"+url.PathEscape(id), opts)
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}

	order, err := jsonapi.UnmarshalOne(resp.Body, MapOrder)
	if err != nil {
		return nil, fmt.Errorf("parsing order response: %w", err)
	}

	return &order, nil
}

// ListOrders fetches one page of orders.
func (s *Service) ListOrders(ctx context.Context, params *blocks.QueryParams) (*jsonapi.PageResult[Order], error) {
	resp, err := s.transport.Get(ctx, "/orders", &blocks.RequestOptions{Params: params.ToParams()})
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	page, err := jsonapi.UnmarshalPage(resp.Body, MapOrder)
	if err != nil {
		return nil, fmt.Errorf("parsing orders list response: %w", err)
	}

	return page, nil
}

// ListAllOrders fetches every page of orders.
func (s *Service) ListAllOrders(ctx context.Context, params *blocks.QueryParams, opts *jsonapi.FetchAllOptions) ([]Order, error) {
	return jsonapi.FetchAllPages(ctx, func(ctx context.Context, page, perPage int) (*jsonapi.PageResult[Order], error) {
		return s.ListOrders(ctx, params.Clone().WithPage(page).WithPerPage(perPage))
	}, opts)
}
