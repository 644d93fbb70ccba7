package client

// API bundles the typed clients for the busbook HTTP services.
type API struct {
	Buses    *BusClient
	Bookings *BookingClient
	Payments *PaymentClient
}

// NewAPI points every client at baseURL. token, when set, is sent as a bearer
// token on every request.
func NewAPI(baseURL, token string) *API {
	hc := NewHttpClient(baseURL)
	hc.Token = token
	return &API{
		Buses:    &BusClient{httpClient: hc},
		Bookings: &BookingClient{httpClient: hc},
		Payments: &PaymentClient{httpClient: hc},
	}
}
