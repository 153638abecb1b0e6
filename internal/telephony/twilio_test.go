package telephony

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*TwilioProvider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewTwilioProvider(TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "token",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return p, srv
}

func TestTwilioPlaceCall(t *testing.T) {
	var gotPath, gotTo, gotTwiml string
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotTo = r.PostFormValue("To")
		gotTwiml = r.PostFormValue("Twiml")
		if u, _, ok := r.BasicAuth(); !ok || u != "AC123" {
			t.Fatalf("expected basic auth with account sid")
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"CA1","to":"+919876543210","from":"+15550001111","status":"queued"}`))
	})

	res, err := p.PlaceCall(context.Background(), PlaceCallRequest{
		To:          "+919876543210",
		From:        "+15550001111",
		Instruction: "<Response><Say>hi</Say></Response>",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.ProviderCallID != "CA1" {
		t.Fatalf("expected sid CA1, got %q", res.ProviderCallID)
	}
	if gotPath != "/Accounts/AC123/Calls.json" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotTo != "+919876543210" || gotTwiml == "" {
		t.Fatalf("form not posted: to=%q twiml=%q", gotTo, gotTwiml)
	}
}

func TestTwilioPlaceCallSurfacesAPIError(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number"}`))
	})

	_, err := p.PlaceCall(context.Background(), PlaceCallRequest{
		To: "+91000", From: "+15550001111", Instruction: "<Response/>",
	})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestTwilioListRecentCalls(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("PageSize") != "100" {
			t.Fatalf("expected default page size, got %q", r.URL.Query().Get("PageSize"))
		}
		_, _ = w.Write([]byte(`{"calls":[
			{"sid":"CA1","to":"+919876543210","from":"+15550001111","status":"completed","start_time":"Mon, 02 Jan 2006 15:04:05 +0000"},
			{"sid":"CA2","to":"+919123456789","from":"+15550001111","status":"no-answer","start_time":"Mon, 02 Jan 2006 10:00:00 +0000"}
		]}`))
	})

	cutoff := time.Date(2006, 1, 2, 12, 0, 0, 0, time.UTC)
	recs, err := p.ListRecentCalls(context.Background(), ListCallsRequest{StartedAfter: cutoff})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	// CA2 started before the exact cutoff and is filtered client-side.
	if len(recs) != 1 {
		t.Fatalf("expected 1 record after cutoff filter, got %d", len(recs))
	}
	if recs[0].ProviderCallID != "CA1" || !recs[0].Status.Answered() {
		t.Fatalf("unexpected record: %+v", recs[0])
	}
}

func TestNewTwilioProviderRequiresCredentials(t *testing.T) {
	if _, err := NewTwilioProvider(TwilioConfig{}); err == nil {
		t.Fatalf("expected error for missing credentials")
	}
}
