package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultGraphBaseURL = "https://graph.facebook.com/v16.0"
	defaultSendTimeout  = 10 * time.Second
	maxErrorBodyBytes   = 4 << 10
)

var ErrMissingAccessToken = errors.New("page access token is missing")

// GraphClient posts text messages through the Graph send API.
type GraphClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGraphClient creates a send API client.
func NewGraphClient(log *slog.Logger, baseURL string, timeout time.Duration) *GraphClient {
	if log == nil {
		log = slog.Default()
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultGraphBaseURL
	}
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &GraphClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.With(slog.String("component", "graph_client")),
	}
}

type sendRequest struct {
	Recipient sendRecipient `json:"recipient"`
	Message   sendMessage   `json:"message"`
}

type sendRecipient struct {
	ID string `json:"id"`
}

type sendMessage struct {
	Text string `json:"text"`
}

type graphErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// SendText delivers text from pageID to the end user recipientID.
func (g *GraphClient) SendText(ctx context.Context, pageID, accessToken, recipientID, text string) error {
	if strings.TrimSpace(accessToken) == "" {
		return ErrMissingAccessToken
	}
	if strings.TrimSpace(pageID) == "" || strings.TrimSpace(recipientID) == "" {
		return fmt.Errorf("page id and recipient id are required")
	}
	body, err := json.Marshal(sendRequest{
		Recipient: sendRecipient{ID: recipientID},
		Message:   sendMessage{Text: text},
	})
	if err != nil {
		return err
	}
	endpoint := g.baseURL + "/" + url.PathEscape(pageID) + "/messages?" + url.Values{"access_token": {accessToken}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		// The URL carries the token; report only the page.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("graph send for page %s: %w", pageID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	var ge graphErrorBody
	if json.Unmarshal(raw, &ge) == nil && ge.Error.Message != "" {
		return fmt.Errorf("graph send for page %s: status %d: %s (code %d)", pageID, resp.StatusCode, ge.Error.Message, ge.Error.Code)
	}
	return fmt.Errorf("graph send for page %s: status %d", pageID, resp.StatusCode)
}
