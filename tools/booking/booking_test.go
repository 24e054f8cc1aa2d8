package booking_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/effective-security/toolbelt/tools"
	"github.com/effective-security/toolbelt/tools/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var referenceRE = regexp.MustCompile(`^[A-Z0-9]{8}$`)

func TestNights(t *testing.T) {
	tcases := []struct {
		in, out string
		exp     int
	}{
		{"2025-07-01", "2025-07-04", 3},
		{"2025-07-01", "2025-07-02", 1},
		{"2025-07-04", "2025-07-01", 1},
		{"2025-07-01", "2025-07-01", 1},
		{"07/01/2025", "2025-07-04", 1},
		{"", "", 1},
		{"2024-02-28", "2024-03-01", 2},
	}
	for _, tc := range tcases {
		assert.Equal(t, tc.exp, booking.Nights(tc.in, tc.out), "%s - %s", tc.in, tc.out)
	}
}

func TestBookFlight(t *testing.T) {
	ctx := context.Background()
	svc := booking.New(booking.WithSeed(42))

	res, err := svc.BookFlight(ctx, &booking.FlightRequest{
		FromLocation:  "Warsaw",
		ToLocation:    "Berlin",
		PassengerName: "Jan Kowalski",
		DepartureDate: "2025-07-01",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Regexp(t, referenceRE, res.FlightReference)
	assert.Equal(t, "One way", res.TripType)
	assert.Equal(t, "Confirmed", res.BookingStatus)
	assert.Equal(t, "EUR", res.Currency)
	assert.Equal(t, "Flight booking confirmed! Reference: "+res.FlightReference, res.ConfirmationMessage)
	assert.Nil(t, res.ReturnFlight)
	require.NotNil(t, res.OutboundFlight)
	assert.Equal(t, "Warsaw", res.OutboundFlight.From)
	assert.Equal(t, "Berlin", res.OutboundFlight.To)
	assert.Equal(t, "LOT Polish Airlines", res.OutboundFlight.Airline)
	assert.Regexp(t, `^LO[1-9]\d\d$`, res.OutboundFlight.FlightNumber)
	assert.Regexp(t, `^(0[6-9]|1\d|2[0-2]):(00|15|30|45)$`, res.OutboundFlight.Time)
	assert.GreaterOrEqual(t, res.TotalCost, 150)
	assert.LessOrEqual(t, res.TotalCost, 800)

	res, err = svc.BookFlight(ctx, &booking.FlightRequest{
		FromLocation:  "Warsaw",
		ToLocation:    "Berlin",
		PassengerName: "Jan Kowalski",
		DepartureDate: "2025-07-01",
		ReturnDate:    "2025-07-08",
	})
	require.NoError(t, err)
	assert.Equal(t, "Round trip", res.TripType)
	require.NotNil(t, res.ReturnFlight)
	assert.Equal(t, "Berlin", res.ReturnFlight.From)
	assert.Equal(t, "Warsaw", res.ReturnFlight.To)
	assert.Equal(t, "2025-07-08", res.ReturnFlight.Date)
	assert.Equal(t, res.OutboundFlight.Price*2, res.TotalCost)

	// same seed gives the same bookings
	a, err := booking.New(booking.WithSeed(7)).BookFlight(ctx, &booking.FlightRequest{FromLocation: "A", ToLocation: "B", PassengerName: "C", DepartureDate: "2025-01-01"})
	require.NoError(t, err)
	b, err := booking.New(booking.WithSeed(7)).BookFlight(ctx, &booking.FlightRequest{FromLocation: "A", ToLocation: "B", PassengerName: "C", DepartureDate: "2025-01-01"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBookHotel(t *testing.T) {
	ctx := context.Background()
	svc := booking.New(booking.WithSeed(1))

	res, err := svc.BookHotel(ctx, &booking.HotelBookingRequest{
		HotelID:      "HLWAW123",
		GuestName:    "Anna Nowak",
		CheckinDate:  "2025-07-01",
		CheckoutDate: "2025-07-04",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Regexp(t, referenceRE, res.BookingReference)
	assert.Equal(t, "Hotel booking confirmed! Reference: "+res.BookingReference, res.ConfirmationMessage)
	assert.Equal(t, "Free cancellation up to 24 hours before check-in", res.CancellationPolicy)
	assert.Equal(t, "Confirmed", res.PaymentStatus)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, res.BookingDate)

	require.NotNil(t, res.HotelDetails)
	assert.Equal(t, "HLWAW123", res.HotelDetails.HotelID)
	assert.Equal(t, "Mock Address for HLWAW123", res.HotelDetails.Address)
	assert.NotEmpty(t, res.HotelDetails.Name)
	assert.GreaterOrEqual(t, res.HotelDetails.Rating, 4.0)
	assert.LessOrEqual(t, res.HotelDetails.Rating, 4.9)

	d := res.BookingDetails
	require.NotNil(t, d)
	assert.Equal(t, 2, d.Guests)
	assert.Equal(t, "guest@example.com", d.Email)
	assert.Equal(t, 3, d.Nights)
	assert.Equal(t, "Standard Double Room", d.RoomType)
	assert.Equal(t, d.PricePerNight*3, d.TotalCost)
	assert.GreaterOrEqual(t, d.PricePerNight, 80)
	assert.LessOrEqual(t, d.PricePerNight, 300)
}

type amadeusServer struct {
	tokenStatus int
	cityStatus  int
	cities      string
	hotels      string
	tokens      int
}

func (a *amadeusServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/v1/security/oauth2/token":
		a.tokens++
		_ = r.ParseForm()
		if a.tokenStatus != 0 || r.PostForm.Get("client_id") != "key" || r.PostForm.Get("client_secret") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":1799}`))
		return
	}

	if r.Header.Get("Authorization") != "Bearer tok" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch r.URL.Path {
	case "/v1/reference-data/locations/cities":
		if a.cityStatus != 0 {
			w.WriteHeader(a.cityStatus)
			return
		}
		if r.URL.Query().Get("keyword") != "WARSAW" {
			_, _ = w.Write([]byte(`{"data":[]}`))
			return
		}
		_, _ = w.Write([]byte(a.cities))
	case "/v1/reference-data/locations/hotels/by-city":
		q := r.URL.Query()
		if q.Get("cityCode") != "WAW" || q.Get("radius") != "15" || q.Get("radiusUnit") != "KM" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(a.hotels))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func hotelList(n int) string {
	type hotel struct {
		HotelID   string `json:"hotelId"`
		Name      string `json:"name"`
		ChainCode string `json:"chainCode"`
		IataCode  string `json:"iataCode,omitempty"`
		Address   any    `json:"address"`
		GeoCode   any    `json:"geoCode"`
		Distance  any    `json:"distance"`
	}
	list := make([]hotel, 0, n)
	for i := range n {
		h := hotel{
			HotelID:   fmt.Sprintf("HLWAW%03d", i),
			Name:      fmt.Sprintf("Hotel %d", i),
			ChainCode: "HL",
			Address:   map[string]string{"countryCode": "PL"},
			GeoCode:   map[string]float64{"latitude": 52.23, "longitude": 21.01},
			Distance:  map[string]any{"value": 1.5, "unit": "KM"},
		}
		if i%2 == 0 {
			h.IataCode = "WAW"
		}
		list = append(list, h)
	}
	js, _ := json.Marshal(map[string]any{"data": list})
	return string(js)
}

func newService(t *testing.T, srv *amadeusServer) *booking.Service {
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	am, err := booking.NewAmadeus(booking.AmadeusConfig{
		APIKey:     "key",
		APISecret:  "secret",
		BaseURL:    ts.URL,
		HTTPClient: ts.Client(),
	})
	require.NoError(t, err)
	return booking.New(booking.WithAmadeus(am), booking.WithSeed(3))
}

func TestSearchHotels(t *testing.T) {
	ctx := context.Background()
	srv := &amadeusServer{
		cities: `{"data":[{"name":"WARSAW","iataCode":"WAW"}]}`,
		hotels: hotelList(12),
	}
	svc := newService(t, srv)

	req := &booking.HotelSearchRequest{
		Location:     "Warsaw",
		CheckinDate:  "2025-07-01",
		CheckoutDate: "2025-07-03",
	}
	res, err := svc.SearchHotels(ctx, req)
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "WAW", res.CityCode)
	require.Len(t, res.Hotels, 10)

	for i, h := range res.Hotels {
		assert.Equal(t, "WAW", h.CityCode)
		assert.Equal(t, "PL", h.Address)
		assert.Equal(t, "KM", h.DistanceUnit)
		assert.Equal(t, 2, h.Guests)
		assert.Equal(t, 2, h.Nights)
		assert.Equal(t, h.PricePerNight*2, h.TotalPrice)
		assert.Equal(t, "EUR", h.Currency)
		assert.Equal(t, "Amadeus Hotel List API", h.Source)
		assert.True(t, h.BookingAvailable)
		assert.GreaterOrEqual(t, len(h.Amenities), 3)
		assert.LessOrEqual(t, len(h.Amenities), 6)
		assert.GreaterOrEqual(t, h.PricePerNight, 80)
		assert.LessOrEqual(t, h.PricePerNight, 350)
		if i > 0 {
			assert.GreaterOrEqual(t, res.Hotels[i-1].Rating, h.Rating)
		}
	}
	// token is cached
	assert.Equal(t, 1, srv.tokens)

	req.MaxPrice = 80
	res, err = svc.SearchHotels(ctx, req)
	require.NoError(t, err)
	for _, h := range res.Hotels {
		assert.LessOrEqual(t, h.PricePerNight, 80)
	}

	res, err = svc.SearchHotels(ctx, &booking.HotelSearchRequest{Location: "Nowhere", CheckinDate: "2025-07-01", CheckoutDate: "2025-07-03"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Unable to find city code for Nowhere. Please try cities like PAR, WAW, BER, etc.", res.Error)
	assert.NotNil(t, res.Hotels)
}

func TestSearchHotelsEmpty(t *testing.T) {
	svc := newService(t, &amadeusServer{
		cities: `{"data":[{"iataCode":"WAW"}]}`,
		hotels: `{"data":[]}`,
	})
	res, err := svc.SearchHotels(context.Background(), &booking.HotelSearchRequest{Location: "Warsaw", CheckinDate: "2025-07-01", CheckoutDate: "2025-07-03"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.Hotels)
	assert.Equal(t, "No hotels found in Warsaw (WAW)", res.Message)
}

func TestSearchHotelsFailures(t *testing.T) {
	ctx := context.Background()
	req := &booking.HotelSearchRequest{Location: "Warsaw", CheckinDate: "2025-07-01", CheckoutDate: "2025-07-03"}

	svc := newService(t, &amadeusServer{tokenStatus: http.StatusUnauthorized})
	res, err := svc.SearchHotels(ctx, req)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Unable to authenticate with Amadeus API", res.Error)

	svc = newService(t, &amadeusServer{cityStatus: http.StatusInternalServerError})
	res, err = svc.SearchHotels(ctx, req)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Hotel search failed (Status: 500)", res.Error)

	res, err = booking.New().SearchHotels(ctx, req)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "hotel search is not configured", res.Error)

	t.Setenv(booking.AmadeusSecretEnvVarName, "")
	_, err = booking.NewAmadeus(booking.AmadeusConfig{APIKey: "key"})
	assert.EqualError(t, err, "amadeus requires AMADEUS_API_KEY and AMADEUS_API_SECRET")
}

func TestSearchHotelsTokenTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(ts.Close)
	t.Cleanup(func() { close(release) })

	am, err := booking.NewAmadeus(booking.AmadeusConfig{
		APIKey:    "key",
		APISecret: "secret",
		BaseURL:   ts.URL,
	})
	require.NoError(t, err)
	svc := booking.New(booking.WithAmadeus(am), booking.WithTimeout(200*time.Millisecond))

	started := time.Now()
	res, err := svc.SearchHotels(context.Background(), &booking.HotelSearchRequest{
		Location:     "Warsaw",
		CheckinDate:  "2025-07-01",
		CheckoutDate: "2025-07-03",
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "context deadline exceeded")
	assert.Less(t, time.Since(started), 2*time.Second)
}

func TestBookingTools(t *testing.T) {
	ctx := context.Background()
	list, err := booking.New(booking.WithSeed(5)).List()
	require.NoError(t, err)

	box, err := tools.NewToolbox(list...)
	require.NoError(t, err)
	assert.Equal(t, []string{"flight_booking_tool", "search_hotels", "book_hotel"}, box.Names())

	res, err := box.Call(ctx, "book_hotel", `{"hotel_id":"H1","guest_name":"Ann","checkin_date":"2025-07-01","checkout_date":"2025-07-02","email":"ann@example.com"}`)
	require.NoError(t, err)

	var hb booking.HotelBooking
	require.NoError(t, json.Unmarshal([]byte(res), &hb))
	assert.Equal(t, "ann@example.com", hb.BookingDetails.Email)
	assert.Equal(t, 1, hb.BookingDetails.Nights)

	_, err = box.Call(ctx, "book_hotel", `{"hotel_id":"H1","guest_name":"Ann","checkin_date":"2025-07-01","checkout_date":"2025-07-02","email":"not-an-email"}`)
	require.Error(t, err)

	_, err = box.Call(ctx, "flight_booking_tool", `{"from_location":"Warsaw"}`)
	require.Error(t, err)

	res, err = box.Call(ctx, "flight_booking_tool", `{"from_location":"Warsaw","to_location":"Paris","passenger_name":"Ann","departure_date":"2025-07-01"}`)
	require.NoError(t, err)
	assert.Contains(t, res, `"trip_type":"One way"`)
}
