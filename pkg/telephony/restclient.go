package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RESTClient issues call-control requests against the telephony provider's
// REST API, authenticated with HTTP basic auth using the operator's account
// credentials (§4.9, §6 "Authentication is HTTP basic with the operator's
// account credentials").
type RESTClient struct {
	accountSID string
	authToken  string
	outboundFrom string
	client     *http.Client
	baseURL    string
}

// NewRESTClient builds a client for the operator's account. baseURL lets
// tests point at an httptest server; production callers pass "" to use the
// provider's real API root.
func NewRESTClient(accountSID, authToken, outboundFrom, baseURL string) *RESTClient {
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://api.telephony.example/2010-04-01/Accounts/%s", accountSID)
	}
	return &RESTClient{
		accountSID:   accountSID,
		authToken:    authToken,
		outboundFrom: outboundFrom,
		client:       &http.Client{Timeout: 15 * time.Second},
		baseURL:      baseURL,
	}
}

// CreateCallParams is the body of a call-create request (§4.10).
type CreateCallParams struct {
	To                  string
	From                string
	URL                 string
	StatusCallback      string
	StatusCallbackEvent string // default "initiated ringing answered completed"
}

// CreateCallResult is the subset of the provider's call-create response the
// gateway consumes.
type CreateCallResult struct {
	CallID string `json:"sid"`
	Status string `json:"status"`
}

// CreateCall places an outbound call. From defaults to the operator's
// configured outbound number when unset.
func (c *RESTClient) CreateCall(ctx context.Context, p CreateCallParams) (CreateCallResult, error) {
	from := p.From
	if from == "" {
		from = c.outboundFrom
	}
	event := p.StatusCallbackEvent
	if event == "" {
		event = "initiated ringing answered completed"
	}
	form := url.Values{
		"To":                  {p.To},
		"From":                {from},
		"Url":                 {p.URL},
		"StatusCallback":      {p.StatusCallback},
		"StatusCallbackEvent": {event},
	}
	var out CreateCallResult
	err := c.post(ctx, "/Calls.json", form, &out)
	return out, err
}

// RedirectCall updates an in-flight call to fetch new TwiML from url (§6
// "call update to redirect in-flight TwiML").
func (c *RESTClient) RedirectCall(ctx context.Context, callID, url string) error {
	return c.post(ctx, "/Calls/"+callID+".json", map[string][]string{"Url": {url}}, nil)
}

// HangupCall updates a call to Status=completed (§6 "call update with
// Status=completed to hang up").
func (c *RESTClient) HangupCall(ctx context.Context, callID string) error {
	return c.post(ctx, "/Calls/"+callID+".json", map[string][]string{"Status": {"completed"}}, nil)
}

func (c *RESTClient) post(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("telephony: rest call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("telephony: rest call %s returned status %d", path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("telephony: decode response: %w", err)
		}
	}
	return nil
}
