package messenger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ain9900/custom-chatbot-saas/internal/conversation/flow"
	"github.com/ain9900/custom-chatbot-saas/internal/dedupe"
	"github.com/ain9900/custom-chatbot-saas/internal/identity"
)

type fakeTurns struct {
	calls []flow.Turn
	errs  map[string]error
}

func (f *fakeTurns) HandleTurn(_ context.Context, turn flow.Turn) (flow.Result, error) {
	f.calls = append(f.calls, turn)
	if err, ok := f.errs[turn.Text]; ok {
		return flow.Result{}, err
	}
	return flow.Result{Reply: "ok"}, nil
}

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("webhook_key")
	c.SetParamValues("k1")
	return c, rec
}

func TestWebhookHandler_Verify(t *testing.T) {
	t.Parallel()

	h := NewWebhookHandler(nil, &fakeTurns{}, nil, WebhookOptions{VerifyToken: "s3cret"})
	tests := []struct {
		name     string
		query    string
		wantCode int
		wantBody string
	}{
		{name: "match", query: "hub.mode=subscribe&hub.verify_token=s3cret&hub.challenge=12345", wantCode: http.StatusOK, wantBody: "12345"},
		{name: "mismatch", query: "hub.verify_token=nope&hub.challenge=12345", wantCode: http.StatusForbidden},
		{name: "missing", query: "hub.challenge=12345", wantCode: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, rec := newContext(http.MethodGet, "/api/fb/webhook/k1?"+tt.query, "")
			if err := h.HandleVerify(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Fatalf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestWebhookHandler_VerifyRequiresConfiguredToken(t *testing.T) {
	t.Parallel()

	h := NewWebhookHandler(nil, &fakeTurns{}, nil, WebhookOptions{})
	c, rec := newContext(http.MethodGet, "/api/fb/webhook/k1?hub.verify_token=&hub.challenge=1", "")
	if err := h.HandleVerify(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("unexpected status code: %d", rec.Code)
	}
}

func TestWebhookHandler_BatchSkipsMalformedEvents(t *testing.T) {
	t.Parallel()

	turns := &fakeTurns{}
	h := NewWebhookHandler(nil, turns, nil, WebhookOptions{})
	body := `{"object":"page","entry":[
		{"id":"page-1","messaging":[
			{"sender":{"id":"psid-1"},"recipient":{"id":"page-1"},"message":{"mid":"m1","text":"first"}},
			{"sender":"broken","message":{"text":"bad"}},
			{"sender":{"id":"psid-2"},"recipient":{"id":"page-1"},"delivery":{"mids":["m0"]}},
			{"sender":{"id":"psid-3"},"recipient":{"id":"page-1"},"message":{"mid":"m3","attachments":[{"type":"image"}]}},
			{"sender":{"id":"page-1"},"recipient":{"id":"psid-1"},"message":{"mid":"m4","text":"echo","is_echo":true}},
			{"sender":{"id":"psid-5"},"recipient":{"id":"page-1"},"message":{"mid":"m5","text":"second"}}
		]},
		"not-an-entry"
	]}`
	c, rec := newContext(http.MethodPost, "/api/fb/webhook/k1", body)
	if err := h.Handle(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected response: %d %s", rec.Code, rec.Body.String())
	}
	if len(turns.calls) != 2 {
		t.Fatalf("expected 2 turns, got %d: %+v", len(turns.calls), turns.calls)
	}
	first := turns.calls[0]
	if first.SenderID != "psid-1" || first.RecipientID != "page-1" || first.WebhookKey != "k1" || first.Channel != Type {
		t.Fatalf("unexpected turn: %+v", first)
	}
	if turns.calls[1].Text != "second" {
		t.Fatalf("unexpected second turn: %+v", turns.calls[1])
	}
}

func TestWebhookHandler_FailuresStillReturnOK(t *testing.T) {
	t.Parallel()

	turns := &fakeTurns{errs: map[string]error{
		"one": &identity.ResolutionError{Err: identity.ErrChatbotNotFound},
		"two": &flow.CompletionError{ChatbotID: "b", Err: errors.New("timeout")},
	}}
	h := NewWebhookHandler(nil, turns, nil, WebhookOptions{})
	body := `{"entry":[{"messaging":[
		{"sender":{"id":"a"},"recipient":{"id":"p"},"message":{"mid":"1","text":"one"}},
		{"sender":{"id":"b"},"recipient":{"id":"p"},"message":{"mid":"2","text":"two"}},
		{"sender":{"id":"c"},"recipient":{"id":"p"},"message":{"mid":"3","text":"three"}}
	]}]}`
	c, rec := newContext(http.MethodPost, "/api/fb/webhook/k1", body)
	if err := h.Handle(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status code: %d", rec.Code)
	}
	if len(turns.calls) != 3 {
		t.Fatalf("every event should be attempted, got %d", len(turns.calls))
	}
}

func TestWebhookHandler_MalformedBody(t *testing.T) {
	t.Parallel()

	h := NewWebhookHandler(nil, &fakeTurns{}, nil, WebhookOptions{})
	c, _ := newContext(http.MethodPost, "/api/fb/webhook/k1", `{"entry":`)
	err := h.Handle(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestWebhookHandler_DeduplicatesRedelivery(t *testing.T) {
	t.Parallel()

	cache := dedupe.New(0, 0)
	defer cache.Close()
	turns := &fakeTurns{}
	h := NewWebhookHandler(nil, turns, cache, WebhookOptions{})
	body := `{"entry":[{"messaging":[{"sender":{"id":"a"},"recipient":{"id":"p"},"message":{"mid":"mid.1","text":"hi"}}]}]}`
	for i := 0; i < 2; i++ {
		c, _ := newContext(http.MethodPost, "/api/fb/webhook/k1", body)
		if err := h.Handle(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(turns.calls) != 1 {
		t.Fatalf("redelivered message should be skipped, got %d turns", len(turns.calls))
	}
}

func TestWebhookHandler_FailedTurnRedeliveryIsDropped(t *testing.T) {
	t.Parallel()

	cache := dedupe.New(0, 0)
	defer cache.Close()
	turns := &fakeTurns{errs: map[string]error{
		"hi": &flow.CompletionError{ChatbotID: "b", Err: errors.New("timeout")},
	}}
	h := NewWebhookHandler(nil, turns, cache, WebhookOptions{})
	body := `{"entry":[{"messaging":[{"sender":{"id":"a"},"recipient":{"id":"p"},"message":{"mid":"mid.9","text":"hi"}}]}]}`
	for i := 0; i < 2; i++ {
		c, rec := newContext(http.MethodPost, "/api/fb/webhook/k1", body)
		if err := h.Handle(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("unexpected status code: %d", rec.Code)
		}
	}
	if len(turns.calls) != 1 {
		t.Fatalf("mid is marked before the turn runs, got %d turns", len(turns.calls))
	}
}

func TestWebhookHandler_Signature(t *testing.T) {
	t.Parallel()

	body := `{"entry":[{"messaging":[{"sender":{"id":"a"},"recipient":{"id":"p"},"message":{"mid":"1","text":"hi"}}]}]}`
	tests := []struct {
		name      string
		signature string
		wantErr   bool
	}{
		{name: "valid", signature: Sign("app-secret", []byte(body))},
		{name: "wrong secret", signature: Sign("other", []byte(body)), wantErr: true},
		{name: "missing", signature: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			turns := &fakeTurns{}
			h := NewWebhookHandler(nil, turns, nil, WebhookOptions{AppSecret: "app-secret"})
			c, rec := newContext(http.MethodPost, "/api/fb/webhook/k1", body)
			if tt.signature != "" {
				c.Request().Header.Set(signatureHeader, tt.signature)
			}
			err := h.Handle(c)
			if tt.wantErr {
				var httpErr *echo.HTTPError
				if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
					t.Fatalf("expected 401, got %v", err)
				}
				if len(turns.calls) != 0 {
					t.Fatalf("unsigned batch must not be processed")
				}
				return
			}
			if err != nil || rec.Code != http.StatusOK {
				t.Fatalf("unexpected result: %v %d", err, rec.Code)
			}
		})
	}
}
