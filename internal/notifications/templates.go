package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	bdomain "quickshow/internal/domain/bookings"
	sdomain "quickshow/internal/domain/shows"
	udomain "quickshow/internal/domain/users"
)

// Email is the rendered message handed to the mail sender.
type Email struct {
	Subject string
	Body    string
}

var funcs = template.FuncMap{
	"dollars": func(cents int64) string {
		return fmt.Sprintf("$%.2f", float64(cents)/100)
	},
	"date": func(t time.Time) string {
		return t.Format("Monday, January 2, 2006")
	},
	"clock": func(t time.Time) string {
		return t.Format("3:04 PM")
	},
}

var confirmationTmpl = template.Must(template.New("confirmation").Funcs(funcs).Parse(`
<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 8px;">
	<h1 style="color: #22c55e;">Booking Confirmed!</h1>
	<h2 style="color: #22c55e;">Hi {{.User.Name}}</h2>
	<p>Thank you for booking your tickets with QuickShow. Here are your details:</p>
	<div style="margin: 20px 0; padding: 15px; background-color: #f9f9f9; border-radius: 6px;">
		<h3 style="margin-top: 0;">{{.Show.MovieTitle}}</h3>
		<p><strong>Date:</strong> {{date .Show.StartsAt}}</p>
		<p><strong>Time:</strong> {{clock .Show.StartsAt}}</p>
		<p><strong>Seats:</strong> {{range $i, $s := .Booking.Seats}}{{if $i}}, {{end}}{{$s}}{{end}}</p>
		<p><strong>Total Amount:</strong> {{dollars .Booking.AmountCents}}</p>
	</div>
	<p>We look forward to seeing you at the cinema!</p>
	<p>Best regards,<br>QuickShow Team</p>
</div>
`))

var reminderTmpl = template.Must(template.New("reminder").Funcs(funcs).Parse(`
<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 8px;">
	<h1 style="color: #22c55e;">Reminder: Your Show "{{.Show.MovieTitle}}" starts soon!</h1>
	<h2 style="color: #22c55e;">Hi {{.User.Name}}</h2>
	<p>Here are your show details:</p>
	<div style="margin: 20px 0; padding: 15px; background-color: #f9f9f9; border-radius: 6px;">
		<h3 style="margin-top: 0;">{{.Show.MovieTitle}}</h3>
		<p><strong>Date:</strong> {{date .Show.StartsAt}}</p>
		<p><strong>Time:</strong> {{clock .Show.StartsAt}}</p>
	</div>
	<p>Don't miss out to watch your favorite movie!</p>
	<p>Best regards,<br>QuickShow Team</p>
</div>
`))

var announcementTmpl = template.Must(template.New("announcement").Funcs(funcs).Parse(`
<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 8px;">
	<h1 style="color: #22c55e;">New Show Added!</h1>
	<h2 style="color: #22c55e;">Hi {{.User.Name}}</h2>
	<p>A new show has been added to QuickShow:</p>
	<div style="margin: 20px 0; padding: 15px; background-color: #f9f9f9; border-radius: 6px;">
		<h3 style="margin-top: 0;">{{.MovieTitle}}</h3>
		<p>Check out the latest shows and book your tickets now!</p>
	</div>
	<p>Best regards,<br>QuickShow Team</p>
</div>
`))

func ConfirmationEmail(user udomain.User, show sdomain.Show, booking bdomain.Booking) (Email, error) {
	body, err := render(confirmationTmpl, map[string]any{
		"User":    user,
		"Show":    show,
		"Booking": booking,
	})
	if err != nil {
		return Email{}, err
	}
	return Email{
		Subject: fmt.Sprintf("Payment Confirmation : %q booked!", show.MovieTitle),
		Body:    body,
	}, nil
}

func ReminderEmail(user udomain.User, show sdomain.Show) (Email, error) {
	body, err := render(reminderTmpl, map[string]any{
		"User": user,
		"Show": show,
	})
	if err != nil {
		return Email{}, err
	}
	return Email{
		Subject: fmt.Sprintf("Reminder: Your Show %q starts soon!", show.MovieTitle),
		Body:    body,
	}, nil
}

func AnnouncementEmail(user udomain.User, movieTitle string) (Email, error) {
	body, err := render(announcementTmpl, map[string]any{
		"User":       user,
		"MovieTitle": movieTitle,
	})
	if err != nil {
		return Email{}, err
	}
	return Email{
		Subject: fmt.Sprintf("New Show Added : %q", movieTitle),
		Body:    body,
	}, nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email template: %w", err)
	}
	return buf.String(), nil
}
