package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"quickshow/internal/application/usecases/reservation"
	sdomain "quickshow/internal/domain/shows"
	udomain "quickshow/internal/domain/users"
)

const testWebhookSecret = "whsec_test"

type fakeReservations struct {
	reserveURL string
	reserveErr error
	gotInput   reservation.ReserveInput

	occupied    []string
	occupiedErr error
}

func (f *fakeReservations) Reserve(_ context.Context, in reservation.ReserveInput) (string, error) {
	f.gotInput = in
	return f.reserveURL, f.reserveErr
}

func (f *fakeReservations) OccupiedSeats(_ context.Context, _ uuid.UUID) ([]string, error) {
	return f.occupied, f.occupiedErr
}

type fakeShows struct {
	createdID uuid.UUID
	createErr error
	got       sdomain.Show
}

func (f *fakeShows) CreateShow(_ context.Context, show sdomain.Show) (uuid.UUID, error) {
	f.got = show
	return f.createdID, f.createErr
}

type fakePayments struct {
	confirmErr   error
	gotBookingID uuid.UUID
	gotSessionID string
	calls        int
}

func (f *fakePayments) Confirm(_ context.Context, bookingID uuid.UUID, sessionID string) error {
	f.calls++
	f.gotBookingID = bookingID
	f.gotSessionID = sessionID
	return f.confirmErr
}

type fakeUsers struct {
	upserted []udomain.User
	deleted  []string
}

func (f *fakeUsers) UpsertUser(_ context.Context, user udomain.User) error {
	f.upserted = append(f.upserted, user)
	return nil
}

func (f *fakeUsers) DeleteUser(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type testDeps struct {
	reservations *fakeReservations
	shows        *fakeShows
	payments     *fakePayments
	users        *fakeUsers
}

func newTestServer(t *testing.T) (*Server, *testDeps) {
	t.Helper()

	deps := &testDeps{
		reservations: &fakeReservations{},
		shows:        &fakeShows{},
		payments:     &fakePayments{},
		users:        &fakeUsers{},
	}
	srv := NewServer(
		zerolog.Nop(),
		deps.reservations,
		deps.shows,
		deps.payments,
		deps.users,
		testWebhookSecret,
		"http://public.example.com",
		"0",
		func() bool { return true },
	)
	return srv, deps
}

func doRequest(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	return rec
}

func TestReserveSeats(t *testing.T) {
	showID := uuid.NewString()
	body := fmt.Sprintf(`{"show_id": %q, "seats": ["A1", "A2"]}`, showID)

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set("X-User-ID", "user-1")
		return req
	}

	t.Run("returns the checkout URL", func(t *testing.T) {
		srv, deps := newTestServer(t)
		deps.reservations.reserveURL = "https://checkout.stripe.com/session"

		rec := doRequest(srv, newReq())

		require.Equal(t, http.StatusOK, rec.Code)
		var resp ReserveSeatsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "https://checkout.stripe.com/session", resp.URL)
		assert.Equal(t, []string{"A1", "A2"}, deps.reservations.gotInput.Seats)
		assert.Equal(t, "user-1", deps.reservations.gotInput.UserID)
	})

	t.Run("falls back to the configured public URL without an Origin header", func(t *testing.T) {
		srv, deps := newTestServer(t)

		doRequest(srv, newReq())

		assert.Equal(t, "http://public.example.com", deps.reservations.gotInput.Origin)
	})

	t.Run("passes the Origin header through", func(t *testing.T) {
		srv, deps := newTestServer(t)
		req := newReq()
		req.Header.Set("Origin", "https://app.example.com")

		doRequest(srv, req)

		assert.Equal(t, "https://app.example.com", deps.reservations.gotInput.Origin)
	})

	t.Run("requires a user identity", func(t *testing.T) {
		srv, _ := newTestServer(t)
		req := newReq()
		req.Header.Del("X-User-ID")

		rec := doRequest(srv, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects a malformed show id", func(t *testing.T) {
		srv, _ := newTestServer(t)
		req := httptest.NewRequest(http.MethodPost, "/bookings",
			strings.NewReader(`{"show_id": "not-a-uuid", "seats": ["A1"]}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set("X-User-ID", "user-1")

		rec := doRequest(srv, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps unknown shows to 404", func(t *testing.T) {
		srv, deps := newTestServer(t)
		deps.reservations.reserveErr = sdomain.ErrShowNotFound

		rec := doRequest(srv, newReq())

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("maps taken seats to 409", func(t *testing.T) {
		srv, deps := newTestServer(t)
		deps.reservations.reserveErr = sdomain.ErrSeatsUnavailable

		rec := doRequest(srv, newReq())

		require.Equal(t, http.StatusConflict, rec.Code)
		var resp ReserveSeatsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, "Selected Seats are not available", resp.Message)
	})

	t.Run("maps selection errors to 400", func(t *testing.T) {
		srv, deps := newTestServer(t)
		deps.reservations.reserveErr = sdomain.ErrNoSeatsSelected

		rec := doRequest(srv, newReq())

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps everything else to 502", func(t *testing.T) {
		srv, deps := newTestServer(t)
		deps.reservations.reserveErr = errors.New("gateway exploded")

		rec := doRequest(srv, newReq())

		require.Equal(t, http.StatusBadGateway, rec.Code)
		assert.NotContains(t, rec.Body.String(), "exploded")
	})
}

func TestOccupiedSeats(t *testing.T) {
	t.Run("lists occupied seats", func(t *testing.T) {
		srv, deps := newTestServer(t)
		deps.reservations.occupied = []string{"A1", "B3"}

		rec := doRequest(srv, httptest.NewRequest(http.MethodGet,
			"/shows/"+uuid.NewString()+"/occupied-seats", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp OccupiedSeatsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, []string{"A1", "B3"}, resp.OccupiedSeats)
	})

	t.Run("serializes an empty list as an array", func(t *testing.T) {
		srv, _ := newTestServer(t)

		rec := doRequest(srv, httptest.NewRequest(http.MethodGet,
			"/shows/"+uuid.NewString()+"/occupied-seats", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"occupiedSeats":[]`)
	})

	t.Run("maps unknown shows to 404", func(t *testing.T) {
		srv, deps := newTestServer(t)
		deps.reservations.occupiedErr = sdomain.ErrShowNotFound

		rec := doRequest(srv, httptest.NewRequest(http.MethodGet,
			"/shows/"+uuid.NewString()+"/occupied-seats", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCreateShow(t *testing.T) {
	srv, deps := newTestServer(t)
	deps.shows.createdID = uuid.New()

	body := `{"movie_title": "Alien", "price_cents": 1500, "starts_at": "2026-10-01T20:00:00Z", "seat_rows": 10, "seats_per_row": 12}`
	req := httptest.NewRequest(http.MethodPost, "/shows", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := doRequest(srv, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp CreateShowResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, deps.shows.createdID, resp.ShowID)
	assert.Equal(t, "Alien", deps.shows.got.MovieTitle)
	assert.Equal(t, int64(1500), deps.shows.got.PriceCents)
}

func stripeSignature(payload []byte, ts time.Time, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func stripeEvent(t *testing.T, eventType string, bookingID uuid.UUID) []byte {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"id":          "evt_1",
		"api_version": stripe.APIVersion,
		"type":        eventType,
		"data": map[string]any{
			"object": map[string]any{
				"id": "cs_test_123",
				"metadata": map[string]string{
					"booking_id": bookingID.String(),
				},
			},
		},
	})
	require.NoError(t, err)
	return payload
}

func TestStripeWebhook(t *testing.T) {
	newReq := func(payload []byte, sig string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(string(payload)))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		if sig != "" {
			req.Header.Set("Stripe-Signature", sig)
		}
		return req
	}

	t.Run("confirms the booking on checkout completion", func(t *testing.T) {
		srv, deps := newTestServer(t)
		bookingID := uuid.New()
		payload := stripeEvent(t, "checkout.session.completed", bookingID)

		rec := doRequest(srv, newReq(payload, stripeSignature(payload, time.Now(), testWebhookSecret)))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, deps.payments.calls)
		assert.Equal(t, bookingID, deps.payments.gotBookingID)
		assert.Equal(t, "cs_test_123", deps.payments.gotSessionID)
	})

	t.Run("rejects a missing signature", func(t *testing.T) {
		srv, deps := newTestServer(t)
		payload := stripeEvent(t, "checkout.session.completed", uuid.New())

		rec := doRequest(srv, newReq(payload, ""))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, deps.payments.calls)
	})

	t.Run("rejects a bad signature", func(t *testing.T) {
		srv, deps := newTestServer(t)
		payload := stripeEvent(t, "checkout.session.completed", uuid.New())

		rec := doRequest(srv, newReq(payload, stripeSignature(payload, time.Now(), "whsec_other")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, deps.payments.calls)
	})

	t.Run("acknowledges and ignores other event types", func(t *testing.T) {
		srv, deps := newTestServer(t)
		payload := stripeEvent(t, "payment_intent.created", uuid.New())

		rec := doRequest(srv, newReq(payload, stripeSignature(payload, time.Now(), testWebhookSecret)))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, deps.payments.calls)
	})

	t.Run("returns 500 so the delivery is retried when confirmation fails", func(t *testing.T) {
		srv, deps := newTestServer(t)
		deps.payments.confirmErr = errors.New("db down")
		payload := stripeEvent(t, "checkout.session.completed", uuid.New())

		rec := doRequest(srv, newReq(payload, stripeSignature(payload, time.Now(), testWebhookSecret)))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestIdentityWebhook(t *testing.T) {
	newReq := func(body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/identity", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		return req
	}

	t.Run("upserts on user.created", func(t *testing.T) {
		srv, deps := newTestServer(t)

		rec := doRequest(srv, newReq(`{"type": "user.created", "data": {"id": "u1", "name": "Ada", "email": "ada@example.com"}}`))

		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, deps.users.upserted, 1)
		assert.Equal(t, udomain.User{Id: "u1", Name: "Ada", Email: "ada@example.com"}, deps.users.upserted[0])
	})

	t.Run("upserts on user.updated", func(t *testing.T) {
		srv, deps := newTestServer(t)

		rec := doRequest(srv, newReq(`{"type": "user.updated", "data": {"id": "u1", "name": "Ada L", "email": "ada@example.com"}}`))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, deps.users.upserted, 1)
	})

	t.Run("deletes on user.deleted", func(t *testing.T) {
		srv, deps := newTestServer(t)

		rec := doRequest(srv, newReq(`{"type": "user.deleted", "data": {"id": "u1"}}`))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"u1"}, deps.users.deleted)
	})

	t.Run("ignores unknown event types", func(t *testing.T) {
		srv, deps := newTestServer(t)

		rec := doRequest(srv, newReq(`{"type": "session.created", "data": {"id": "u1"}}`))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, deps.users.upserted)
		assert.Empty(t, deps.users.deleted)
	})

	t.Run("rejects a missing user id", func(t *testing.T) {
		srv, _ := newTestServer(t)

		rec := doRequest(srv, newReq(`{"type": "user.created", "data": {"name": "Ada"}}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
