package flows

const (
	BUS_ID          = "bus_id"
	BUS_IDS         = "bus_ids"
	SEATS           = "seats"
	USER_ID         = "user_id"
	PASSENGER_NAME  = "passenger_name"
	PASSENGER_EMAIL = "passenger_email"
	CARD_NUMBER     = "card_number"
	EXPIRY_DATE     = "expiry_date"
	CVV             = "cvv"
	CARDHOLDER_NAME = "cardholder_name"

	BUS            = "bus"
	AMOUNT         = "amount"
	LOCK           = "lock"
	TRANSACTION_ID = "transaction_id"
	BOOKING        = "booking"
	SEAT_MAPS      = "seat_maps"

	CheckoutFlowName = "checkout"
	SeatMapFlowName  = "seat_map"

	MaxBusesPerSeatMap = 20
)
