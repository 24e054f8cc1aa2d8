package booking

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/pkg/metricskey"
	"github.com/effective-security/x/values"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// AmadeusTestURL is the base URL of Amadeus self-service test environment
	AmadeusTestURL = "https://test.api.amadeus.com"
	// AmadeusKeyEnvVarName is the env variable with Amadeus API key
	AmadeusKeyEnvVarName = "AMADEUS_API_KEY" //nolint:gosec
	// AmadeusSecretEnvVarName is the env variable with Amadeus API secret
	AmadeusSecretEnvVarName = "AMADEUS_API_SECRET" //nolint:gosec

	hotelSearchRadiusKM = 15
)

// ErrCityNotFound is returned when the city has no IATA code
var ErrCityNotFound = errors.New("city code not found")

// StatusError is returned for non-200 responses
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return "amadeus: unexpected status " + strconv.Itoa(e.StatusCode)
}

// AmadeusConfig for Amadeus API client
type AmadeusConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string
	// HTTPClient is used for token and API requests,
	// by default the client with DefaultTimeout
	HTTPClient *http.Client
}

// Amadeus is the client of Amadeus reference data API
type Amadeus struct {
	baseURL     string
	client      *http.Client
	credentials *clientcredentials.Config

	lock  sync.Mutex
	token *oauth2.Token
}

// NewAmadeus returns Amadeus client with OAuth2 client credentials flow,
// the empty key and secret are read from environment.
func NewAmadeus(cfg AmadeusConfig) (*Amadeus, error) {
	key := values.StringsCoalesce(cfg.APIKey, os.Getenv(AmadeusKeyEnvVarName))
	secret := values.StringsCoalesce(cfg.APISecret, os.Getenv(AmadeusSecretEnvVarName))
	if key == "" || secret == "" {
		return nil, errors.Errorf("amadeus requires %s and %s", AmadeusKeyEnvVarName, AmadeusSecretEnvVarName)
	}
	baseURL := strings.TrimSuffix(values.StringsCoalesce(cfg.BaseURL, AmadeusTestURL), "/")

	cc := &clientcredentials.Config{
		ClientID:     key,
		ClientSecret: secret,
		TokenURL:     baseURL + "/v1/security/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	return &Amadeus{
		baseURL:     baseURL,
		client:      client,
		credentials: cc,
	}, nil
}

// accessToken returns the cached token, or fetches a new one within ctx
func (a *Amadeus) accessToken(ctx context.Context) (*oauth2.Token, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.token.Valid() {
		return a.token, nil
	}
	tok, err := a.credentials.Token(context.WithValue(ctx, oauth2.HTTPClient, a.client))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	a.token = tok
	return tok, nil
}

// HotelData is an entry of the hotel list
type HotelData struct {
	HotelID   string `json:"hotelId"`
	Name      string `json:"name"`
	ChainCode string `json:"chainCode"`
	IataCode  string `json:"iataCode"`
	Address   struct {
		CountryCode string `json:"countryCode"`
	} `json:"address"`
	GeoCode struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"geoCode"`
	Distance struct {
		Value float64 `json:"value"`
		Unit  string  `json:"unit"`
	} `json:"distance"`
}

// CityCode returns IATA code of the city
func (a *Amadeus) CityCode(ctx context.Context, city string) (string, error) {
	q := url.Values{}
	q.Set("keyword", strings.ToUpper(city))
	q.Set("max", "1")

	var res struct {
		Data []struct {
			IataCode string `json:"iataCode"`
		} `json:"data"`
	}
	if err := a.get(ctx, "/v1/reference-data/locations/cities", q, &res); err != nil {
		return "", err
	}
	if len(res.Data) == 0 || res.Data[0].IataCode == "" {
		return "", errors.WithStack(ErrCityNotFound)
	}
	return res.Data[0].IataCode, nil
}

// HotelsByCity returns hotels within 15 km from the city center
func (a *Amadeus) HotelsByCity(ctx context.Context, cityCode string) ([]HotelData, error) {
	q := url.Values{}
	q.Set("cityCode", cityCode)
	q.Set("radius", strconv.Itoa(hotelSearchRadiusKM))
	q.Set("radiusUnit", "KM")
	q.Set("hotelSource", "ALL")

	var res struct {
		Data []HotelData `json:"data"`
	}
	if err := a.get(ctx, "/v1/reference-data/locations/hotels/by-city", q, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (a *Amadeus) get(ctx context.Context, path string, query url.Values, out any) error {
	started := time.Now()
	defer metricskey.PerfUpstreamCall.MeasureSince(started, "amadeus")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Accept", "application/json")

	tok, err := a.accessToken(ctx)
	if err != nil {
		return errors.Wrap(err, "amadeus token request failed")
	}
	tok.SetAuthHeader(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "amadeus request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return errors.Wrap(err, "failed to read amadeus response")
	}
	if resp.StatusCode != http.StatusOK {
		return errors.WithStack(&StatusError{StatusCode: resp.StatusCode})
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to decode amadeus response")
	}
	return nil
}
