package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	twilioBaseURL         = "https://api.twilio.com/2010-04-01"
	twilioDefaultPageSize = 100
	// Twilio reports call timestamps in RFC 2822 form.
	twilioTimeLayout = "Mon, 02 Jan 2006 15:04:05 -0700"
)

// TwilioConfig carries the credentials for the Twilio REST API.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string

	// BaseURL overrides the API host in tests.
	BaseURL string
	// HTTPClient overrides the default client; a 30s-timeout client is used
	// when nil.
	HTTPClient *http.Client
}

// TwilioProvider talks to the Twilio voice REST API directly.
// No SDK: the two operations this platform needs are a form POST and a GET.
type TwilioProvider struct {
	accountSID string
	authToken  string
	baseURL    string
	httpClient *http.Client
}

func NewTwilioProvider(cfg TwilioConfig) (*TwilioProvider, error) {
	if strings.TrimSpace(cfg.AccountSID) == "" {
		return nil, errors.New("telephony: twilio account sid is required")
	}
	if cfg.AuthToken == "" {
		return nil, errors.New("telephony: twilio auth token is required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = twilioBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &TwilioProvider{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: hc,
	}, nil
}

func (p *TwilioProvider) Name() string { return "twilio" }

// HealthCheck fetches the account resource, which is the cheapest
// authenticated call Twilio offers.
func (p *TwilioProvider) HealthCheck(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/Accounts/%s.json", p.baseURL, p.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(p.accountSID, p.authToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telephony: twilio health check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telephony: twilio health check status %d", resp.StatusCode)
	}
	return nil
}

type twilioCallResponse struct {
	Sid       string `json:"sid"`
	To        string `json:"to"`
	From      string `json:"from"`
	Status    string `json:"status"`
	StartTime string `json:"start_time"`
}

type twilioCallListResponse struct {
	Calls []twilioCallResponse `json:"calls"`
}

type twilioErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// PlaceCall creates an outbound call speaking the prepared TwiML document.
func (p *TwilioProvider) PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error) {
	if req.To == "" || req.From == "" {
		return PlaceCallResult{}, errors.New("telephony: to and from are required")
	}
	if strings.TrimSpace(req.Instruction) == "" {
		return PlaceCallResult{}, errors.New("telephony: instruction document is required")
	}

	form := url.Values{}
	form.Set("To", req.To)
	form.Set("From", req.From)
	form.Set("Twiml", req.Instruction)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls.json", p.baseURL, p.accountSID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return PlaceCallResult{}, err
	}
	httpReq.SetBasicAuth(p.accountSID, p.authToken)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return PlaceCallResult{}, fmt.Errorf("telephony: twilio call create failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return PlaceCallResult{}, fmt.Errorf("telephony: twilio response read failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return PlaceCallResult{}, p.apiError(resp.StatusCode, body)
	}

	var call twilioCallResponse
	if err := json.Unmarshal(body, &call); err != nil {
		return PlaceCallResult{}, fmt.Errorf("telephony: twilio response decode failed: %w", err)
	}
	return PlaceCallResult{ProviderCallID: call.Sid, Status: call.Status}, nil
}

// ListRecentCalls pages through calls started after the requested time.
// Twilio's StartTime filter has date granularity, so results are filtered
// again client-side against the exact instant.
func (p *TwilioProvider) ListRecentCalls(ctx context.Context, req ListCallsRequest) ([]CallRecord, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = twilioDefaultPageSize
	}

	q := url.Values{}
	q.Set("PageSize", strconv.Itoa(limit))
	if !req.StartedAfter.IsZero() {
		q.Set("StartTime>", req.StartedAfter.UTC().Format("2006-01-02"))
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls.json?%s", p.baseURL, p.accountSID, q.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(p.accountSID, p.authToken)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("telephony: twilio call list failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("telephony: twilio response read failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, p.apiError(resp.StatusCode, body)
	}

	var list twilioCallListResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("telephony: twilio response decode failed: %w", err)
	}

	out := make([]CallRecord, 0, len(list.Calls))
	for _, c := range list.Calls {
		rec := CallRecord{
			ProviderCallID: c.Sid,
			To:             c.To,
			From:           c.From,
			Status:         CallStatus(c.Status),
		}
		if c.StartTime != "" {
			if ts, err := time.Parse(twilioTimeLayout, c.StartTime); err == nil {
				rec.StartedAt = ts
			}
		}
		if !req.StartedAfter.IsZero() && !rec.StartedAt.IsZero() && rec.StartedAt.Before(req.StartedAfter) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (p *TwilioProvider) apiError(status int, body []byte) error {
	var e twilioErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		return fmt.Errorf("telephony: twilio error %d (code %d): %s", status, e.Code, e.Message)
	}
	return fmt.Errorf("telephony: twilio error %d", status)
}
