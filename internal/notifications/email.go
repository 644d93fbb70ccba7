package notifications

import (
	"busbook/pkg/model"
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"
)

const (
	SubjectConfirmation = "Booking Confirmation"
	SubjectCancellation = "Booking Cancelled"
)

type Email struct {
	To      string
	Subject string
	HTML    string
}

// Ticket is everything the booking emails render.
type Ticket struct {
	BookingID      string
	TransactionID  string
	PassengerName  string
	PassengerEmail string
	Seats          []int
	TotalPrice     float64
	Bus            model.BusDetails
	Year           int
}

var funcs = template.FuncMap{
	"seatList": func(seats []int) string {
		parts := make([]string, len(seats))
		for i, s := range seats {
			parts[i] = strconv.Itoa(s)
		}
		return strings.Join(parts, ", ")
	},
	"price": func(p float64) string {
		return strconv.FormatFloat(p, 'f', 2, 64)
	},
}

var confirmationTmpl = template.Must(template.New("confirmation").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<body>
<h1>Booking Confirmed</h1>
<p>Dear <strong>{{.PassengerName}}</strong>,</p>
<p>Your bus booking has been confirmed. Your ticket details:</p>
<table>
<tr><td>Bus</td><td>{{.Bus.BusName}}</td></tr>
<tr><td>Route</td><td>{{.Bus.Source}} &rarr; {{.Bus.Destination}}</td></tr>
<tr><td>Travel date</td><td>{{.Bus.Date}}</td></tr>
<tr><td>Departure</td><td>{{.Bus.DepartureTime}}</td></tr>
<tr><td>Estimated arrival</td><td>{{.Bus.ArrivalTime}}</td></tr>
<tr><td>Seats</td><td>{{seatList .Seats}} ({{len .Seats}})</td></tr>
<tr><td>Total paid</td><td>&#8377; {{price .TotalPrice}}</td></tr>
<tr><td>Booking reference</td><td>{{.BookingID}}</td></tr>
{{if .TransactionID}}<tr><td>Transaction ID</td><td>{{.TransactionID}}</td></tr>{{end}}
</table>
<p>Please arrive at the boarding point 15 minutes before departure and carry a valid ID.</p>
<p>&copy; {{.Year}} BusBook. This is an automated email.</p>
</body>
</html>`))

var cancellationTmpl = template.Must(template.New("cancellation").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<body>
<h1>Booking Cancelled</h1>
<p>Dear <strong>{{.PassengerName}}</strong>,</p>
<p>Your booking <strong>{{.BookingID}}</strong> has been cancelled.</p>
<table>
<tr><td>Bus</td><td>{{.Bus.BusName}}</td></tr>
<tr><td>Route</td><td>{{.Bus.Source}} &rarr; {{.Bus.Destination}}</td></tr>
<tr><td>Travel date</td><td>{{.Bus.Date}}</td></tr>
<tr><td>Released seats</td><td>{{seatList .Seats}}</td></tr>
</table>
<p>&copy; {{.Year}} BusBook. This is an automated email.</p>
</body>
</html>`))

func RenderConfirmation(t Ticket, now time.Time) (Email, error) {
	return render(confirmationTmpl, t, now, SubjectConfirmation)
}

func RenderCancellation(t Ticket, now time.Time) (Email, error) {
	return render(cancellationTmpl, t, now, SubjectCancellation)
}

func render(tmpl *template.Template, t Ticket, now time.Time, subject string) (Email, error) {
	t.Year = now.Year()

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, t); err != nil {
		return Email{}, fmt.Errorf("failed to render %s email: %w", tmpl.Name(), err)
	}
	return Email{
		To:      t.PassengerEmail,
		Subject: fmt.Sprintf("%s - BusBook [%s]", subject, t.BookingID),
		HTML:    buf.String(),
	}, nil
}
