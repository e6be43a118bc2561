// Package google implements the place-registry contract against the Google
// Places web service.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/openbites/bitefinder/internal/domain/geo"
	"github.com/openbites/bitefinder/internal/domain/hours"
	"github.com/openbites/bitefinder/internal/domain/places"
	apperrors "github.com/openbites/bitefinder/pkg/errors"
)

const (
	defaultBaseURL = "https://maps.googleapis.com/maps/api/place"
	// textSearchBiasMeters is the locality hint radius sent with re-resolution
	// searches.
	textSearchBiasMeters = 5000
)

// Client calls the Places web service. A missing API key is a configuration
// error surfaced at construction, before any request is made.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	// photoClient does not follow redirects so the CDN URL can be captured.
	photoClient *http.Client
}

// NewClient builds the registry client.
func NewClient(apiKey, baseURL string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "places api key is required", nil)
	}
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		photoClient: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

// TextSearch implements places.Registry.
func (c *Client) TextSearch(ctx context.Context, query string, bias *geo.Coordinates) ([]places.Candidate, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("key", c.apiKey)
	if bias != nil {
		params.Set("location", fmt.Sprintf("%f,%f", bias.Lat, bias.Lng))
		params.Set("radius", strconv.Itoa(textSearchBiasMeters))
	}

	var raw searchResponse
	if err := c.getJSON(ctx, c.baseURL+"/textsearch/json?"+params.Encode(), &raw); err != nil {
		return nil, err
	}
	if raw.Status != "OK" && raw.Status != "ZERO_RESULTS" {
		return nil, apperrors.Wrap(apperrors.CodeRegistryError, "text search failed: "+raw.Status, nil)
	}

	candidates := make([]places.Candidate, 0, len(raw.Results))
	for _, r := range raw.Results {
		candidates = append(candidates, places.Candidate{
			ExternalID: r.PlaceID,
			Name:       r.Name,
			Address:    r.FormattedAddress,
			Coordinates: geo.Coordinates{
				Lat: r.Geometry.Location.Lat,
				Lng: r.Geometry.Location.Lng,
			},
		})
	}
	return candidates, nil
}

// FetchDetails implements places.Registry. A retired identifier surfaces as
// an error wrapping places.ErrIdentifierRetired.
func (c *Client) FetchDetails(ctx context.Context, externalID string, fields []string) (places.Details, error) {
	params := url.Values{}
	params.Set("place_id", externalID)
	params.Set("key", c.apiKey)
	if len(fields) > 0 {
		params.Set("fields", strings.Join(fields, ","))
	}

	var raw detailsResponse
	if err := c.getJSON(ctx, c.baseURL+"/details/json?"+params.Encode(), &raw); err != nil {
		return places.Details{}, err
	}
	if raw.Status == "NOT_FOUND" {
		return places.Details{}, fmt.Errorf("place %q: %w", externalID, places.ErrIdentifierRetired)
	}
	if raw.Status != "OK" {
		return places.Details{}, apperrors.Wrap(apperrors.CodeRegistryError, "details fetch failed: "+raw.Status, nil)
	}

	details := places.Details{
		Name:    raw.Result.Name,
		Address: raw.Result.FormattedAddress,
		Coordinates: geo.Coordinates{
			Lat: raw.Result.Geometry.Location.Lat,
			Lng: raw.Result.Geometry.Location.Lng,
		},
		Periods: convertPeriods(raw.Result.OpeningHours.Periods),
	}
	if len(raw.Result.Photos) > 0 {
		details.PhotoRef = raw.Result.Photos[0].PhotoReference
	}
	return details, nil
}

// ResolvePhotoURL implements places.Registry by capturing the CDN redirect
// for a photo reference at the requested width.
func (c *Client) ResolvePhotoURL(ctx context.Context, photoRef string, maxWidthPx int) (string, error) {
	params := url.Values{}
	params.Set("photoreference", photoRef)
	params.Set("maxwidth", strconv.Itoa(maxWidthPx))
	params.Set("key", c.apiKey)
	endpoint := c.baseURL + "/photo?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build photo request: %w", err)
	}
	resp, err := c.photoClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("photo request failed: %w", err)
	}
	defer resp.Body.Close()

	if location := resp.Header.Get("Location"); location != "" {
		return location, nil
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// Some deployments serve the bytes directly; the request URL is then
		// the stable address.
		return endpoint, nil
	}
	return "", apperrors.Wrap(apperrors.CodeRegistryError, fmt.Sprintf("photo resolve failed: status=%d", resp.StatusCode), nil)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build registry request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("registry returned 404: %w", places.ErrIdentifierRetired)
	}
	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return apperrors.Wrap(apperrors.CodeRegistryError, fmt.Sprintf("registry error: status=%d body=%s", resp.StatusCode, string(payload)), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read registry response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode registry response: %w", err)
	}
	return nil
}

func convertPeriods(raw []apiPeriod) []hours.Period {
	periods := make([]hours.Period, 0, len(raw))
	for _, p := range raw {
		open, ok := convertDayTime(p.Open)
		if !ok {
			continue
		}
		period := hours.Period{Open: open}
		if closeAt, ok := convertDayTime(p.Close); ok {
			period.Close = &closeAt
		}
		periods = append(periods, period)
	}
	return periods
}

func convertDayTime(raw *apiDayTime) (hours.DayTime, bool) {
	if raw == nil || raw.Time == "" {
		return hours.DayTime{}, false
	}
	hhmm, err := strconv.Atoi(raw.Time)
	if err != nil || raw.Day < 0 || raw.Day > 6 {
		return hours.DayTime{}, false
	}
	return hours.DayTime{Day: time.Weekday(raw.Day), Time: hhmm}, true
}

type searchResponse struct {
	Status  string      `json:"status"`
	Results []apiResult `json:"results"`
}

type detailsResponse struct {
	Status string    `json:"status"`
	Result apiResult `json:"result"`
}

type apiResult struct {
	PlaceID          string      `json:"place_id"`
	Name             string      `json:"name"`
	FormattedAddress string      `json:"formatted_address"`
	Geometry         apiGeometry `json:"geometry"`
	OpeningHours     apiHours    `json:"opening_hours"`
	Photos           []apiPhoto  `json:"photos"`
}

type apiGeometry struct {
	Location struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
}

type apiHours struct {
	Periods []apiPeriod `json:"periods"`
}

type apiPeriod struct {
	Open  *apiDayTime `json:"open"`
	Close *apiDayTime `json:"close"`
}

type apiDayTime struct {
	Day  int    `json:"day"`
	Time string `json:"time"`
}

type apiPhoto struct {
	PhotoReference string `json:"photo_reference"`
}

var _ places.Registry = (*Client)(nil)
