package client

import (
	"busbook/pkg/model"
	"context"
	"net/url"
)

// BusClient talks to the seat endpoints. They answer with bare JSON objects.
type BusClient struct {
	httpClient *HttpClient
}

func NewBusClient(baseURL string) *BusClient {
	return &BusClient{httpClient: NewHttpClient(baseURL)}
}

func (c *BusClient) GetByID(ctx context.Context, id string) (*model.Bus, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/buses/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var bus model.Bus
	if err := decode(resp, &bus); err != nil {
		return nil, err
	}
	return &bus, nil
}

func (c *BusClient) Search(ctx context.Context, filter model.BusSearchFilter) ([]*model.Bus, error) {
	q := url.Values{}
	if filter.Source != "" {
		q.Set("source", filter.Source)
	}
	if filter.Destination != "" {
		q.Set("destination", filter.Destination)
	}
	if filter.Date != "" {
		q.Set("date", filter.Date)
	}

	resp, err := c.httpClient.GET(ctx, "/api/v1/buses?"+q.Encode())
	if err != nil {
		return nil, err
	}
	var buses []*model.Bus
	if err := decode(resp, &buses); err != nil {
		return nil, err
	}
	return buses, nil
}

func (c *BusClient) Lock(ctx context.Context, id string, req *model.LockSeatsRequest) (*model.LockSeatsResponse, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/buses/lock/"+url.PathEscape(id), req)
	if err != nil {
		return nil, err
	}
	var out model.LockSeatsResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BusClient) Unlock(ctx context.Context, id string, req *model.UnlockSeatsRequest) (*model.ReleaseLocksResponse, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/buses/unlock/"+url.PathEscape(id), req)
	if err != nil {
		return nil, err
	}
	var out model.ReleaseLocksResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BusClient) Confirm(ctx context.Context, id string, req *model.ConfirmBookingRequest) (*model.ConfirmBookingResponse, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/buses/confirm/"+url.PathEscape(id), req)
	if err != nil {
		return nil, err
	}
	var out model.ConfirmBookingResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
