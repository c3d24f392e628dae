// README: HTTP client for the Getin v2 API (apiKey auth, JSON envelope, typed errors).
package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client wraps the Getin v2 endpoints the assistant uses. It owns base URL
// and authentication; callers get decoded envelopes or an *APIError.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx response from the Getin API. StatusCode 0 means the
// request never produced a response (network error, timeout).
type APIError struct {
	StatusCode int
	Message    string
	Body       json.RawMessage
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return "getin: network error: " + e.Message
	}
	return fmt.Sprintf("getin: status %d: %s", e.StatusCode, e.Message)
}

// envelope is the common Getin response shape.
type envelope struct {
	Success     bool            `json:"success"`
	Message     string          `json:"message"`
	Data        json.RawMessage `json:"data"`
	Suggestions json.RawMessage `json:"suggestions"`
}

func (c *Client) request(ctx context.Context, method, path string, query url.Values, body any) (*envelope, error) {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("getin: marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("getin: build request: %w", err)
	}
	req.Header.Set("apiKey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APIError{StatusCode: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	var env envelope
	raw := json.RawMessage{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "invalid JSON response"}
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "unexpected response shape", Body: raw}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg, Body: raw}
	}
	return &env, nil
}

// scheduleEntry is one row of the /schedules/units/:unit_id response.
type scheduleEntry struct {
	Hour       string `json:"hour"`
	People     int    `json:"people"`
	SectorID   string `json:"sector_id"`
	SectorName string `json:"sector_name"`
	Flexible   bool   `json:"flexible"`
}

// SchedulesByUnit queries availability for the configured unit.
func (c *Client) SchedulesByUnit(ctx context.Context, unitID, date, hour string, people int) ([]scheduleEntry, []scheduleEntry, error) {
	q := url.Values{}
	q.Set("date", date)
	q.Set("hour", hour)
	q.Set("people", strconv.Itoa(people))

	env, err := c.request(ctx, http.MethodGet, "/schedules/units/"+unitID, q, nil)
	if err != nil {
		return nil, nil, err
	}

	var entries, suggestions []scheduleEntry
	if len(env.Data) > 0 {
		_ = json.Unmarshal(env.Data, &entries)
	}
	if len(env.Suggestions) > 0 {
		_ = json.Unmarshal(env.Suggestions, &suggestions)
	}
	return entries, suggestions, nil
}

// reservationPayload is the body for POST and DELETE /reservations; the API
// requires the full reservation on both.
type reservationPayload struct {
	UnitID      string `json:"unit_id"`
	SectorID    string `json:"sector_id"`
	Name        string `json:"name"`
	Mobile      string `json:"mobile"`
	Email       string `json:"email"`
	People      int    `json:"people"`
	TablePeople int    `json:"table_people"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Info        string `json:"info,omitempty"`
}

type reservationData struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	ConfirmationSent bool   `json:"confirmation_sent"`
}

// CreateReservation calls POST /reservations and returns the created id and
// status.
func (c *Client) CreateReservation(ctx context.Context, p reservationPayload) (reservationData, error) {
	env, err := c.request(ctx, http.MethodPost, "/reservations", nil, p)
	if err != nil {
		return reservationData{}, err
	}
	var data reservationData
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return reservationData{}, &APIError{StatusCode: http.StatusOK, Message: "unexpected reservation payload", Body: env.Data}
		}
	}
	return data, nil
}

// DeleteReservation calls DELETE /reservations/:id carrying the reservation
// payload the API demands.
func (c *Client) DeleteReservation(ctx context.Context, reservationID string, p reservationPayload) error {
	_, err := c.request(ctx, http.MethodDelete, "/reservations/"+reservationID, nil, p)
	return err
}

func listQuery(unitID string, f ListFilter) url.Values {
	q := url.Values{}
	q.Set("unit_id", unitID)
	if f.Phone != "" {
		q.Set("mobile", f.Phone)
	}
	if f.Email != "" {
		q.Set("email", f.Email)
	}
	if f.Date != "" {
		q.Set("date", f.Date)
	}
	if f.StartDate != "" {
		q.Set("start_date", f.StartDate)
	}
	if f.EndDate != "" {
		q.Set("end_date", f.EndDate)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	return q
}

// ListReservations calls GET /reservations with the given filters.
func (c *Client) ListReservations(ctx context.Context, unitID string, f ListFilter) ([]Reservation, error) {
	env, err := c.request(ctx, http.MethodGet, "/reservations", listQuery(unitID, f), nil)
	if err != nil {
		return nil, err
	}
	var out []Reservation
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return nil, &APIError{StatusCode: http.StatusOK, Message: "unexpected reservations payload", Body: env.Data}
		}
	}
	return out, nil
}

// NextReservations calls GET /reservations/next for the customer's upcoming
// reservation(s).
func (c *Client) NextReservations(ctx context.Context, unitID string, f ListFilter) ([]Reservation, error) {
	env, err := c.request(ctx, http.MethodGet, "/reservations/next", listQuery(unitID, f), nil)
	if err != nil {
		return nil, err
	}
	var out []Reservation
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return nil, &APIError{StatusCode: http.StatusOK, Message: "unexpected reservations payload", Body: env.Data}
		}
	}
	return out, nil
}
