package booking

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/tools"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"golang.org/x/oauth2"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolbelt", "booking")

const (
	FlightToolName      = "flight_booking_tool"
	SearchHotelToolName = "search_hotels"
	BookHotelToolName   = "book_hotel"

	// DefaultTimeout for Amadeus calls
	DefaultTimeout = 30 * time.Second
	// DefaultGuests is used when the number of guests is not provided
	DefaultGuests = 2
	// DefaultEmail is used when the guest email is not provided
	DefaultEmail = "guest@example.com"

	dateLayout    = "2006-01-02"
	currency      = "EUR"
	airline       = "LOT Polish Airlines"
	roomType      = "Standard Double Room"
	referenceSize = 8
	referenceSet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxHotels     = 10
)

var (
	ratings       = []float64{3.5, 4.0, 4.2, 4.5, 4.7, 4.8}
	amenities     = []string{"WIFI", "RESTAURANT", "FITNESS_CENTER", "SPA", "PARKING", "BAR", "ROOM_SERVICE", "AIR_CONDITIONING"}
	departureMins = []string{"00", "15", "30", "45"}
	hotelNames    = []string{
		"Grand Hotel Warsaw", "Luxury Palace Hotel", "City Center Hotel",
		"Business Hotel Premium", "Historic Hotel", "Modern Boutique Hotel",
	}
)

// Service provides dummy travel bookings,
// the hotel search uses Amadeus reference data with mock pricing.
type Service struct {
	amadeus *Amadeus
	timeout time.Duration

	lock  sync.Mutex
	faker *gofakeit.Faker
	now   func() time.Time
}

// Option configures the Service
type Option func(*Service)

// WithAmadeus enables the hotel search
func WithAmadeus(a *Amadeus) Option {
	return func(s *Service) {
		s.amadeus = a
	}
}

// WithTimeout sets the bound of Amadeus calls
func WithTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithSeed makes the mock data reproducible
func WithSeed(seed uint64) Option {
	return func(s *Service) {
		s.faker = gofakeit.New(seed)
	}
}

// New returns the booking Service
func New(opts ...Option) *Service {
	s := &Service{
		timeout: DefaultTimeout,
		faker:   gofakeit.New(0),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Nights returns the number of nights between the dates in YYYY-MM-DD format.
// Unparsable dates and non-positive ranges count as one night.
func Nights(checkin, checkout string) int {
	in, err1 := time.Parse(dateLayout, strings.TrimSpace(checkin))
	out, err2 := time.Parse(dateLayout, strings.TrimSpace(checkout))
	if err1 != nil || err2 != nil {
		return 1
	}
	nights := int(out.Sub(in).Hours() / 24)
	if nights <= 0 {
		return 1
	}
	return nights
}

// FlightRequest is the input of flight_booking_tool
type FlightRequest struct {
	FromLocation  string `json:"from_location" yaml:"from_location" jsonschema:"title=From,description=Departure city." validate:"required"`
	ToLocation    string `json:"to_location" yaml:"to_location" jsonschema:"title=To,description=Destination city." validate:"required"`
	PassengerName string `json:"passenger_name" yaml:"passenger_name" jsonschema:"title=Passenger Name,description=Passenger name." validate:"required"`
	DepartureDate string `json:"departure_date" yaml:"departure_date" jsonschema:"title=Departure Date,description=Departure date in YYYY-MM-DD format." validate:"required"`
	ReturnDate    string `json:"return_date,omitempty" yaml:"return_date,omitempty" jsonschema:"title=Return Date,description=Return date for round trip in YYYY-MM-DD format."`
}

// Flight is a leg of the trip
type Flight struct {
	From         string `json:"from" yaml:"from"`
	To           string `json:"to" yaml:"to"`
	Date         string `json:"date" yaml:"date"`
	Time         string `json:"time" yaml:"time"`
	FlightNumber string `json:"flight_number" yaml:"flight_number"`
	Airline      string `json:"airline" yaml:"airline"`
	Price        int    `json:"price" yaml:"price"`
}

// FlightBooking is the confirmation of flight_booking_tool
type FlightBooking struct {
	Success             bool    `json:"success" yaml:"success"`
	FlightReference     string  `json:"flight_reference" yaml:"flight_reference"`
	PassengerName       string  `json:"passenger_name" yaml:"passenger_name"`
	OutboundFlight      *Flight `json:"outbound_flight" yaml:"outbound_flight"`
	ReturnFlight        *Flight `json:"return_flight,omitempty" yaml:"return_flight,omitempty"`
	TotalCost           int     `json:"total_cost" yaml:"total_cost"`
	Currency            string  `json:"currency" yaml:"currency"`
	TripType            string  `json:"trip_type" yaml:"trip_type"`
	BookingStatus       string  `json:"booking_status" yaml:"booking_status"`
	ConfirmationMessage string  `json:"confirmation_message" yaml:"confirmation_message"`
}

// BookFlight returns a dummy flight confirmation,
// a return leg is added when the return date is provided.
func (s *Service) BookFlight(ctx context.Context, req *FlightRequest) (*FlightBooking, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	ref := s.reference()
	price := s.faker.IntRange(150, 800)
	res := &FlightBooking{
		Success:         true,
		FlightReference: ref,
		PassengerName:   req.PassengerName,
		OutboundFlight: &Flight{
			From:         req.FromLocation,
			To:           req.ToLocation,
			Date:         req.DepartureDate,
			Time:         s.departureTime(),
			FlightNumber: s.flightNumber(),
			Airline:      airline,
			Price:        price,
		},
		TotalCost:           price,
		Currency:            currency,
		TripType:            "One way",
		BookingStatus:       "Confirmed",
		ConfirmationMessage: "Flight booking confirmed! Reference: " + ref,
	}

	if req.ReturnDate != "" {
		res.ReturnFlight = &Flight{
			From:         req.ToLocation,
			To:           req.FromLocation,
			Date:         req.ReturnDate,
			Time:         s.departureTime(),
			FlightNumber: s.flightNumber(),
			Airline:      airline,
			Price:        price,
		}
		res.TotalCost = price * 2
		res.TripType = "Round trip"
	}

	logger.ContextKV(ctx, xlog.INFO,
		"status", "flight_booked",
		"reference", ref,
		"from", req.FromLocation,
		"to", req.ToLocation,
		"trip", res.TripType)
	return res, nil
}

// HotelSearchRequest is the input of search_hotels
type HotelSearchRequest struct {
	Location     string `json:"location" yaml:"location" jsonschema:"title=Location,description=City name (e.g. Warsaw or Krakow or Berlin)." validate:"required"`
	CheckinDate  string `json:"checkin_date" yaml:"checkin_date" jsonschema:"title=Check-in Date,description=Check-in date in YYYY-MM-DD format." validate:"required"`
	CheckoutDate string `json:"checkout_date" yaml:"checkout_date" jsonschema:"title=Check-out Date,description=Check-out date in YYYY-MM-DD format." validate:"required"`
	Guests       int    `json:"guests,omitempty" yaml:"guests,omitempty" jsonschema:"title=Guests,description=Number of guests. Default: 2." validate:"gte=0"`
	MaxPrice     int    `json:"max_price,omitempty" yaml:"max_price,omitempty" jsonschema:"title=Max Price,description=Maximum price per night." validate:"gte=0"`
}

// Coordinates of the hotel
type Coordinates struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// HotelOffer is a hotel with mock pricing
type HotelOffer struct {
	ID               string      `json:"id" yaml:"id"`
	Name             string      `json:"name" yaml:"name"`
	ChainCode        string      `json:"chain_code" yaml:"chain_code"`
	CityCode         string      `json:"city_code" yaml:"city_code"`
	Address          string      `json:"address" yaml:"address"`
	Coordinates      Coordinates `json:"coordinates" yaml:"coordinates"`
	DistanceToCenter float64     `json:"distance_to_center" yaml:"distance_to_center"`
	DistanceUnit     string      `json:"distance_unit" yaml:"distance_unit"`
	PricePerNight    int         `json:"price_per_night" yaml:"price_per_night"`
	TotalPrice       int         `json:"total_price" yaml:"total_price"`
	Currency         string      `json:"currency" yaml:"currency"`
	Rating           float64     `json:"rating" yaml:"rating"`
	CheckinDate      string      `json:"checkin_date" yaml:"checkin_date"`
	CheckoutDate     string      `json:"checkout_date" yaml:"checkout_date"`
	Guests           int         `json:"guests" yaml:"guests"`
	Nights           int         `json:"nights" yaml:"nights"`
	RoomType         string      `json:"room_type" yaml:"room_type"`
	Amenities        []string    `json:"amenities" yaml:"amenities"`
	Source           string      `json:"source" yaml:"source"`
	BookingAvailable bool        `json:"booking_available" yaml:"booking_available"`
}

// HotelSearchResult is the output of search_hotels
type HotelSearchResult struct {
	Success  bool         `json:"success" yaml:"success"`
	Location string       `json:"location,omitempty" yaml:"location,omitempty"`
	CityCode string       `json:"city_code,omitempty" yaml:"city_code,omitempty"`
	Hotels   []HotelOffer `json:"hotels" yaml:"hotels"`
	Message  string       `json:"message,omitempty" yaml:"message,omitempty"`
	Error    string       `json:"error,omitempty" yaml:"error,omitempty"`
}

func hotelSearchFailed(msg string) *HotelSearchResult {
	return &HotelSearchResult{
		Success: false,
		Hotels:  []HotelOffer{},
		Error:   msg,
	}
}

// SearchHotels returns up to 10 hotels in the city sorted by rating,
// the prices, ratings and amenities are mocked.
func (s *Service) SearchHotels(ctx context.Context, req *HotelSearchRequest) (*HotelSearchResult, error) {
	if s.amadeus == nil {
		return hotelSearchFailed("hotel search is not configured"), nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cityCode, err := s.amadeus.CityCode(ctx, req.Location)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR, "reason", "CityCode", "location", req.Location, "err", err.Error())
		if errors.Is(err, ErrCityNotFound) {
			return hotelSearchFailed(fmt.Sprintf("Unable to find city code for %s. Please try cities like PAR, WAW, BER, etc.", req.Location)), nil
		}
		return hotelSearchFailed(searchError(err)), nil
	}

	list, err := s.amadeus.HotelsByCity(ctx, cityCode)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR, "reason", "HotelsByCity", "city_code", cityCode, "err", err.Error())
		return hotelSearchFailed(searchError(err)), nil
	}

	res := &HotelSearchResult{
		Success:  true,
		Location: req.Location,
		CityCode: cityCode,
		Hotels:   []HotelOffer{},
	}
	if len(list) == 0 {
		res.Message = fmt.Sprintf("No hotels found in %s (%s)", req.Location, cityCode)
		return res, nil
	}
	if len(list) > maxHotels {
		list = list[:maxHotels]
	}

	guests := req.Guests
	if guests <= 0 {
		guests = DefaultGuests
	}
	nights := Nights(req.CheckinDate, req.CheckoutDate)

	s.lock.Lock()
	for _, h := range list {
		price := s.faker.IntRange(80, 350)
		if req.MaxPrice > 0 && price > req.MaxPrice {
			continue
		}
		res.Hotels = append(res.Hotels, HotelOffer{
			ID:               h.HotelID,
			Name:             values.StringsCoalesce(h.Name, "Unknown Hotel"),
			ChainCode:        h.ChainCode,
			CityCode:         values.StringsCoalesce(h.IataCode, cityCode),
			Address:          h.Address.CountryCode,
			Coordinates:      Coordinates{Latitude: h.GeoCode.Latitude, Longitude: h.GeoCode.Longitude},
			DistanceToCenter: h.Distance.Value,
			DistanceUnit:     values.StringsCoalesce(h.Distance.Unit, "KM"),
			PricePerNight:    price,
			TotalPrice:       price * nights,
			Currency:         currency,
			Rating:           ratings[s.faker.IntRange(0, len(ratings)-1)],
			CheckinDate:      req.CheckinDate,
			CheckoutDate:     req.CheckoutDate,
			Guests:           guests,
			Nights:           nights,
			RoomType:         roomType,
			Amenities:        s.amenities(),
			Source:           "Amadeus Hotel List API",
			BookingAvailable: true,
		})
	}
	s.lock.Unlock()

	sort.SliceStable(res.Hotels, func(i, j int) bool {
		return res.Hotels[i].Rating > res.Hotels[j].Rating
	})

	logger.ContextKV(ctx, xlog.INFO,
		"status", "hotels_found",
		"location", req.Location,
		"city_code", cityCode,
		"count", len(res.Hotels))
	return res, nil
}

// HotelBookingRequest is the input of book_hotel
type HotelBookingRequest struct {
	HotelID      string `json:"hotel_id" yaml:"hotel_id" jsonschema:"title=Hotel ID,description=Hotel ID from search results." validate:"required"`
	GuestName    string `json:"guest_name" yaml:"guest_name" jsonschema:"title=Guest Name,description=Primary guest name." validate:"required"`
	CheckinDate  string `json:"checkin_date" yaml:"checkin_date" jsonschema:"title=Check-in Date,description=Check-in date in YYYY-MM-DD format." validate:"required"`
	CheckoutDate string `json:"checkout_date" yaml:"checkout_date" jsonschema:"title=Check-out Date,description=Check-out date in YYYY-MM-DD format." validate:"required"`
	Guests       int    `json:"guests,omitempty" yaml:"guests,omitempty" jsonschema:"title=Guests,description=Number of guests. Default: 2." validate:"gte=0"`
	Email        string `json:"email,omitempty" yaml:"email,omitempty" jsonschema:"title=Email,description=Guest email address." validate:"omitempty,email"`
}

// HotelDetails of the booking
type HotelDetails struct {
	HotelID string  `json:"hotel_id" yaml:"hotel_id"`
	Name    string  `json:"name" yaml:"name"`
	Address string  `json:"address" yaml:"address"`
	Rating  float64 `json:"rating" yaml:"rating"`
}

// BookingDetails of the hotel booking
type BookingDetails struct {
	GuestName     string `json:"guest_name" yaml:"guest_name"`
	Email         string `json:"email" yaml:"email"`
	CheckinDate   string `json:"checkin_date" yaml:"checkin_date"`
	CheckoutDate  string `json:"checkout_date" yaml:"checkout_date"`
	Guests        int    `json:"guests" yaml:"guests"`
	Nights        int    `json:"nights" yaml:"nights"`
	RoomType      string `json:"room_type" yaml:"room_type"`
	PricePerNight int    `json:"price_per_night" yaml:"price_per_night"`
	TotalCost     int    `json:"total_cost" yaml:"total_cost"`
	Currency      string `json:"currency" yaml:"currency"`
}

// HotelBooking is the confirmation of book_hotel
type HotelBooking struct {
	Success             bool            `json:"success" yaml:"success"`
	BookingReference    string          `json:"booking_reference" yaml:"booking_reference"`
	HotelDetails        *HotelDetails   `json:"hotel_details" yaml:"hotel_details"`
	BookingDetails      *BookingDetails `json:"booking_details" yaml:"booking_details"`
	ConfirmationMessage string          `json:"confirmation_message" yaml:"confirmation_message"`
	CancellationPolicy  string          `json:"cancellation_policy" yaml:"cancellation_policy"`
	PaymentStatus       string          `json:"payment_status" yaml:"payment_status"`
	BookingDate         string          `json:"booking_date" yaml:"booking_date"`
}

// BookHotel returns a dummy hotel confirmation
func (s *Service) BookHotel(ctx context.Context, req *HotelBookingRequest) (*HotelBooking, error) {
	guests := req.Guests
	if guests <= 0 {
		guests = DefaultGuests
	}
	email := values.StringsCoalesce(req.Email, DefaultEmail)
	nights := Nights(req.CheckinDate, req.CheckoutDate)

	s.lock.Lock()
	ref := s.reference()
	price := s.faker.IntRange(80, 300)
	name := s.faker.RandomString(hotelNames)
	rating := math.Round(s.faker.Float64Range(4.0, 4.9)*10) / 10
	s.lock.Unlock()

	logger.ContextKV(ctx, xlog.INFO,
		"status", "hotel_booked",
		"reference", ref,
		"hotel_id", req.HotelID,
		"nights", nights)

	return &HotelBooking{
		Success:          true,
		BookingReference: ref,
		HotelDetails: &HotelDetails{
			HotelID: req.HotelID,
			Name:    name,
			Address: "Mock Address for " + req.HotelID,
			Rating:  rating,
		},
		BookingDetails: &BookingDetails{
			GuestName:     req.GuestName,
			Email:         email,
			CheckinDate:   req.CheckinDate,
			CheckoutDate:  req.CheckoutDate,
			Guests:        guests,
			Nights:        nights,
			RoomType:      roomType,
			PricePerNight: price,
			TotalCost:     price * nights,
			Currency:      currency,
		},
		ConfirmationMessage: "Hotel booking confirmed! Reference: " + ref,
		CancellationPolicy:  "Free cancellation up to 24 hours before check-in",
		PaymentStatus:       "Confirmed",
		BookingDate:         s.now().Format(dateLayout),
	}, nil
}

// List returns flight_booking_tool, search_hotels and book_hotel tools
func (s *Service) List() ([]tools.ITool, error) {
	flight, err := tools.NewFuncTool(FlightToolName,
		"Books a flight (dummy booking, returns confirmation without real booking). Add the return date for a round trip.",
		s.BookFlight)
	if err != nil {
		return nil, err
	}
	search, err := tools.NewFuncTool(SearchHotelToolName,
		"Searches for available hotels in the city, use it before booking hotels. Returns hotels with prices per night sorted by rating.",
		s.SearchHotels)
	if err != nil {
		return nil, err
	}
	book, err := tools.NewFuncTool(BookHotelToolName,
		"Books a hotel room (dummy booking, returns confirmation without real booking).",
		s.BookHotel)
	if err != nil {
		return nil, err
	}
	return []tools.ITool{flight, search, book}, nil
}

// reference must be called under the lock
func (s *Service) reference() string {
	var b strings.Builder
	for range referenceSize {
		b.WriteByte(referenceSet[s.faker.IntRange(0, len(referenceSet)-1)])
	}
	return b.String()
}

func (s *Service) departureTime() string {
	return fmt.Sprintf("%02d:%s", s.faker.IntRange(6, 22), s.faker.RandomString(departureMins))
}

func (s *Service) flightNumber() string {
	return fmt.Sprintf("LO%d", s.faker.IntRange(100, 999))
}

func (s *Service) amenities() []string {
	list := append([]string(nil), amenities...)
	s.faker.ShuffleStrings(list)
	return list[:s.faker.IntRange(3, 6)]
}

func searchError(err error) string {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return "Unable to authenticate with Amadeus API"
	}
	var serr *StatusError
	if errors.As(err, &serr) {
		return fmt.Sprintf("Hotel search failed (Status: %d)", serr.StatusCode)
	}
	return "Hotel search failed: " + err.Error()
}
