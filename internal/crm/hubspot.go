package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"dialdesk/internal/config"
)

const hubspotAPIBase = "https://api.hubapi.com"

var ErrContactNotFound = errors.New("crm: contact not found")

// ErrUnavailable is returned for any upstream failure; HubSpot response
// bodies stay inside this package.
var ErrUnavailable = errors.New("crm: hubspot unavailable")

// Contact is the slice of a HubSpot contact this service cares about.
type Contact struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Company   string `json:"company,omitempty"`
}

// CallActivity is one completed call logged against a CRM contact.
type CallActivity struct {
	ContactID       string
	FromNumber      string
	ToNumber        string
	DurationSeconds int
	Disposition     string
	Notes           string
	OccurredAt      time.Time
}

// HubSpotClient talks to the HubSpot CRM v3 REST API.
type HubSpotClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

type HubSpotOption func(*HubSpotClient)

// WithBaseURL overrides the API endpoint, for tests.
func WithBaseURL(base string) HubSpotOption {
	return func(c *HubSpotClient) { c.baseURL = base }
}

func NewHubSpotClient(cfg config.HubSpotConfig, log *slog.Logger, opts ...HubSpotOption) *HubSpotClient {
	if log == nil {
		log = slog.Default()
	}
	c := &HubSpotClient{
		apiKey:  cfg.APIKey,
		baseURL: hubspotAPIBase,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		log:     log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type hubspotObject struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

type hubspotSearchResponse struct {
	Results []hubspotObject `json:"results"`
}

// UpsertContact creates the contact, or updates it when a contact with the
// same phone number already exists.
func (c *HubSpotClient) UpsertContact(ctx context.Context, contact Contact) (Contact, error) {
	props := map[string]string{}
	setIf := func(k, v string) {
		if v != "" {
			props[k] = v
		}
	}
	setIf("email", contact.Email)
	setIf("phone", contact.Phone)
	setIf("firstname", contact.FirstName)
	setIf("lastname", contact.LastName)
	setIf("company", contact.Company)

	existing, err := c.FindContactByPhone(ctx, contact.Phone)
	switch {
	case err == nil:
		var out hubspotObject
		path := "/crm/v3/objects/contacts/" + url.PathEscape(existing.ID)
		if err := c.do(ctx, http.MethodPatch, path, map[string]any{"properties": props}, &out); err != nil {
			return Contact{}, err
		}
		return contactFromObject(out), nil
	case errors.Is(err, ErrContactNotFound):
		var out hubspotObject
		if err := c.do(ctx, http.MethodPost, "/crm/v3/objects/contacts", map[string]any{"properties": props}, &out); err != nil {
			return Contact{}, err
		}
		return contactFromObject(out), nil
	default:
		return Contact{}, err
	}
}

// FindContactByPhone looks a contact up by exact phone number.
func (c *HubSpotClient) FindContactByPhone(ctx context.Context, phone string) (Contact, error) {
	if phone == "" {
		return Contact{}, ErrContactNotFound
	}
	body := map[string]any{
		"filterGroups": []any{map[string]any{
			"filters": []any{map[string]any{
				"propertyName": "phone",
				"operator":     "EQ",
				"value":        phone,
			}},
		}},
		"limit":      1,
		"properties": []string{"email", "firstname", "lastname", "phone", "company"},
	}
	var out hubspotSearchResponse
	if err := c.do(ctx, http.MethodPost, "/crm/v3/objects/contacts/search", body, &out); err != nil {
		return Contact{}, err
	}
	if len(out.Results) == 0 {
		return Contact{}, ErrContactNotFound
	}
	return contactFromObject(out.Results[0]), nil
}

// ListContacts pages through CRM contacts for local sync.
func (c *HubSpotClient) ListContacts(ctx context.Context, limit int) ([]Contact, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	path := "/crm/v3/objects/contacts?limit=" + strconv.Itoa(limit) +
		"&properties=email,firstname,lastname,phone,company"
	var out hubspotSearchResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	contacts := make([]Contact, 0, len(out.Results))
	for _, obj := range out.Results {
		contacts = append(contacts, contactFromObject(obj))
	}
	return contacts, nil
}

// LogCall records a completed call as a HubSpot call engagement associated
// with the contact.
func (c *HubSpotClient) LogCall(ctx context.Context, a CallActivity) error {
	if a.ContactID == "" {
		return fmt.Errorf("crm: contact id is required")
	}
	occurred := a.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	body := map[string]any{
		"properties": map[string]string{
			"hs_timestamp":        strconv.FormatInt(occurred.UnixMilli(), 10),
			"hs_call_title":       "Call - " + a.Disposition,
			"hs_call_body":        a.Notes,
			"hs_call_duration":    strconv.Itoa(a.DurationSeconds * 1000),
			"hs_call_from_number": a.FromNumber,
			"hs_call_to_number":   a.ToNumber,
			"hs_call_status":      "COMPLETED",
			"hs_call_disposition": a.Disposition,
		},
		"associations": []any{map[string]any{
			"to": map[string]string{"id": a.ContactID},
			"types": []any{map[string]any{
				"associationCategory": "HUBSPOT_DEFINED",
				"associationTypeId":   194,
			}},
		}},
	}
	return c.do(ctx, http.MethodPost, "/crm/v3/objects/calls", body, nil)
}

func contactFromObject(obj hubspotObject) Contact {
	p := obj.Properties
	return Contact{
		ID:        obj.ID,
		Email:     p["email"],
		Phone:     p["phone"],
		FirstName: p["firstname"],
		LastName:  p["lastname"],
		Company:   p["company"],
	}
}

func (c *HubSpotClient) do(ctx context.Context, method, path string, body, out any) error {
	var payload *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(b)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("hubspot request failed", "method", method, "path", path, "error", err)
		return ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrContactNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("hubspot request rejected", "method", method, "path", path, "status", resp.StatusCode)
		return ErrUnavailable
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return ErrUnavailable
	}
	return nil
}
