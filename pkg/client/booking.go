package client

import (
	"busbook/pkg/model"
	"context"
	"net/url"
)

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseURL string) *BookingClient {
	return &BookingClient{httpClient: NewHttpClient(baseURL)}
}

type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

// Create posts a booking. The server answers 201 for a new booking and 200
// when the transaction was already recorded; both decode the same way.
func (c *BookingClient) Create(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/bookings", req)
	if err != nil {
		return nil, err
	}
	var out dataEnvelope[*model.Booking]
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *BookingClient) GetByUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/bookings/user/"+url.PathEscape(userID))
	if err != nil {
		return nil, err
	}
	var out dataEnvelope[[]*model.Booking]
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *BookingClient) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	resp, err := c.httpClient.DELETE(ctx, "/api/v1/bookings/id/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var out dataEnvelope[*model.Booking]
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}
