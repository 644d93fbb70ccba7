package client

import (
	"busbook/pkg/model"
	"context"
)

type PaymentClient struct {
	httpClient *HttpClient
}

func NewPaymentClient(baseURL string) *PaymentClient {
	return &PaymentClient{httpClient: NewHttpClient(baseURL)}
}

func (c *PaymentClient) Process(ctx context.Context, req *model.PaymentRequest) (*model.PaymentResponse, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/payments/process", req)
	if err != nil {
		return nil, err
	}
	var out model.PaymentResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
