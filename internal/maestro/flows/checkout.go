package flows

import (
	maestro "busbook/internal/maestro/core"
	"busbook/pkg/model"
	"busbook/pkg/sanitizer"
)

// checkoutInput is the validated checkout request, kept in Process.
type checkoutInput struct {
	BusID          string
	Seats          []int
	UserID         string
	PassengerName  string
	PassengerEmail string
	Card           model.PaymentRequest
}

const INPUT = "checkout_input"

// Checkout locks the seats, takes the mock payment, confirms the seats with
// the payment transaction id and records the booking. A failure after the
// lock releases it.
func Checkout() maestro.Flow {
	return maestro.NewFlow(CheckoutFlowName,
		maestro.NewStep("validate_input", ValidateCheckoutInput),
		maestro.NewStep("load_bus", LoadBus),
		maestro.NewStep("lock_seats", LockSeats).WithCompensation(UnlockSeats),
		maestro.NewStep("process_payment", ProcessPayment),
		maestro.NewStep("confirm_seats", ConfirmSeats),
		maestro.NewStep("create_booking", CreateBooking),
	)
}

func ValidateCheckoutInput(ctx *maestro.MaestroContext) error {
	var in checkoutInput
	var err error

	if in.BusID, err = ctx.ExtractString(BUS_ID); err != nil {
		return err
	}
	if in.Seats, err = ctx.ExtractIntList(SEATS); err != nil {
		return err
	}
	if !model.IsValidSeatList(in.Seats) {
		return maestro.InvalidParamErr(SEATS, "must contain distinct seat numbers of at least 1")
	}
	in.Seats = sanitizer.NormalizeSeats(in.Seats)
	if in.UserID, err = ctx.ExtractString(USER_ID); err != nil {
		return err
	}
	if in.PassengerName, err = ctx.ExtractString(PASSENGER_NAME); err != nil {
		return err
	}
	if in.PassengerEmail, err = ctx.ExtractString(PASSENGER_EMAIL); err != nil {
		return err
	}
	if in.Card.CardNumber, err = ctx.ExtractString(CARD_NUMBER); err != nil {
		return err
	}
	if in.Card.ExpiryDate, err = ctx.ExtractString(EXPIRY_DATE); err != nil {
		return err
	}
	if in.Card.CVV, err = ctx.ExtractString(CVV); err != nil {
		return err
	}
	if in.Card.CardholderName, err = ctx.ExtractOptionalString(CARDHOLDER_NAME); err != nil {
		return err
	}
	if in.Card.CardholderName == "" {
		in.Card.CardholderName = in.PassengerName
	}

	ctx.Process[INPUT] = &in
	return nil
}

func LoadBus(ctx *maestro.MaestroContext) error {
	in := ctx.Process[INPUT].(*checkoutInput)
	bus, err := ctx.API.Buses.GetByID(ctx.Ctx, in.BusID)
	if err != nil {
		return err
	}
	ctx.Process[BUS] = bus
	ctx.Process[AMOUNT] = bus.Price * float64(len(in.Seats))
	return nil
}

func LockSeats(ctx *maestro.MaestroContext) error {
	in := ctx.Process[INPUT].(*checkoutInput)
	resp, err := ctx.API.Buses.Lock(ctx.Ctx, in.BusID, &model.LockSeatsRequest{
		Seats:          in.Seats,
		PassengerName:  in.PassengerName,
		PassengerEmail: in.PassengerEmail,
	})
	if err != nil {
		return err
	}
	ctx.Process[LOCK] = resp
	return nil
}

// UnlockSeats releases the checkout's locks. Seats already confirmed stay
// booked; unlock only removes locks.
func UnlockSeats(ctx *maestro.MaestroContext) error {
	in := ctx.Process[INPUT].(*checkoutInput)
	_, err := ctx.API.Buses.Unlock(ctx.Ctx, in.BusID, &model.UnlockSeatsRequest{Seats: in.Seats})
	return err
}

func ProcessPayment(ctx *maestro.MaestroContext) error {
	in := ctx.Process[INPUT].(*checkoutInput)
	card := in.Card
	card.Amount = ctx.Process[AMOUNT].(float64)

	resp, err := ctx.API.Payments.Process(ctx.Ctx, &card)
	if err != nil {
		return err
	}
	ctx.Process[TRANSACTION_ID] = resp.TransactionID
	return nil
}

func ConfirmSeats(ctx *maestro.MaestroContext) error {
	in := ctx.Process[INPUT].(*checkoutInput)
	_, err := ctx.API.Buses.Confirm(ctx.Ctx, in.BusID, &model.ConfirmBookingRequest{
		Seats:          in.Seats,
		PassengerEmail: in.PassengerEmail,
		TransactionID:  ctx.Process[TRANSACTION_ID].(string),
	})
	return err
}

func CreateBooking(ctx *maestro.MaestroContext) error {
	in := ctx.Process[INPUT].(*checkoutInput)
	txID := ctx.Process[TRANSACTION_ID].(string)

	booking, err := ctx.API.Bookings.Create(ctx.Ctx, &model.CreateBookingRequest{
		BusID:          in.BusID,
		UserID:         in.UserID,
		PassengerName:  in.PassengerName,
		PassengerEmail: in.PassengerEmail,
		Seats:          in.Seats,
		TotalPrice:     ctx.Process[AMOUNT].(float64),
		TransactionID:  txID,
	})
	if err != nil {
		ctx.Log.Error("Seats confirmed but booking record failed",
			"bus_id", in.BusID,
			"transaction_id", txID,
			"error", err,
		)
		return err
	}

	ctx.Output[BOOKING] = booking
	ctx.Output[TRANSACTION_ID] = txID
	ctx.Output[AMOUNT] = booking.TotalPrice
	return nil
}
