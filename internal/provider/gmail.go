package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	gmailName = "gmail"

	gmailBaseURL   = "https://gmail.googleapis.com/gmail/v1"
	googleTokenURL = "https://oauth2.googleapis.com/token"

	mimeTextPlain = "text/plain"
	mimeTextHTML  = "text/html"
)

func init() {
	Register(gmailName, func() Provider { return NewGmail() })
}

// Gmail talks to the Gmail REST API over OAuth2. All session state (token
// source, HTTP client) lives only inside one connected instance.
type Gmail struct {
	// BaseURL and TokenURL override the Google endpoints, for tests.
	BaseURL  string
	TokenURL string
	// Transport overrides the HTTP client used underneath the OAuth2 layer.
	Transport *http.Client

	client *http.Client
}

// NewGmail creates an unconnected Gmail provider.
func NewGmail() *Gmail {
	return &Gmail{}
}

var _ Provider = (*Gmail)(nil)

// Connect builds an OAuth2 token from the stored credentials. An expired token
// with a refresh token available is refreshed synchronously before use; failure
// to construct or refresh credentials is an auth error.
func (g *Gmail) Connect(ctx context.Context, creds Credentials) error {
	if creds.AccessToken == "" && creds.RefreshToken == "" {
		return NewAuthError(gmailName, "no access or refresh token", nil)
	}

	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		Expiry:       creds.TokenExpiry,
		TokenType:    "Bearer",
	}

	if !token.Valid() && token.RefreshToken != "" {
		conf := &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: g.tokenURL()},
		}
		fresh, err := conf.TokenSource(g.oauthContext(ctx), token).Token()
		if err != nil {
			return NewAuthError(gmailName, "oauth2 token refresh failed", err)
		}
		token = fresh
	}

	g.client = oauth2.NewClient(g.oauthContext(ctx), oauth2.StaticTokenSource(token))
	return nil
}

// FetchMessages lists message IDs then fetches per-message metadata, up to
// limit, returning the opaque cursor for the next page.
func (g *Gmail) FetchMessages(ctx context.Context, cursor string, limit int) (*MessagePage, error) {
	if g.client == nil {
		return nil, NewAuthError(gmailName, "provider not connected", nil)
	}
	if limit <= 0 {
		limit = 50
	}

	q := url.Values{}
	q.Set("maxResults", strconv.Itoa(limit))
	if cursor != "" {
		q.Set("pageToken", cursor)
	}

	var list gmailListResponse
	if err := g.getJSON(ctx, "/users/me/messages?"+q.Encode(), &list); err != nil {
		return nil, err
	}

	page := &MessagePage{NextCursor: list.NextPageToken}
	for _, meta := range list.Messages {
		var msg gmailMessage
		if err := g.getJSON(ctx, "/users/me/messages/"+url.PathEscape(meta.ID)+"?format=metadata", &msg); err != nil {
			return nil, err
		}
		page.Messages = append(page.Messages, msg.normalize(false))
	}

	return page, nil
}

// FetchMessageBody fetches the full payload for one message and extracts the
// first plain-text and first HTML part from the MIME tree.
func (g *Gmail) FetchMessageBody(ctx context.Context, messageID string) (*Message, error) {
	if g.client == nil {
		return nil, NewAuthError(gmailName, "provider not connected", nil)
	}

	var msg gmailMessage
	if err := g.getJSON(ctx, "/users/me/messages/"+url.PathEscape(messageID)+"?format=full", &msg); err != nil {
		return nil, err
	}

	normalized := msg.normalize(true)
	return &normalized, nil
}

// Disconnect clears the cached session handle. Safe to call repeatedly.
func (g *Gmail) Disconnect() {
	g.client = nil
}

func (g *Gmail) baseURL() string {
	if g.BaseURL != "" {
		return g.BaseURL
	}
	return gmailBaseURL
}

func (g *Gmail) tokenURL() string {
	if g.TokenURL != "" {
		return g.TokenURL
	}
	return googleTokenURL
}

// oauthContext injects the override transport into the oauth2 machinery.
func (g *Gmail) oauthContext(ctx context.Context) context.Context {
	if g.Transport == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, g.Transport)
}

// getJSON performs an authenticated GET and decodes the JSON response,
// classifying HTTP failures into the provider error kinds.
func (g *Gmail) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL()+path, nil)
	if err != nil {
		return NewFetchError(gmailName, "build request", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return NewFetchError(gmailName, "request failed", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return NewAuthError(gmailName, fmt.Sprintf("gmail api returned %d", resp.StatusCode), nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return NewRateLimitError(gmailName, "gmail api throttled the request", nil)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return NewFetchError(gmailName, fmt.Sprintf("gmail api returned %d", resp.StatusCode), nil)
	}

	if decodeErr := json.NewDecoder(resp.Body).Decode(out); decodeErr != nil {
		return NewFetchError(gmailName, "decode response", decodeErr)
	}
	return nil
}

// Gmail wire types.

type gmailListResponse struct {
	Messages      []gmailMessageRef `json:"messages"`
	NextPageToken string            `json:"nextPageToken"`
}

type gmailMessageRef struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

type gmailMessage struct {
	ID           string           `json:"id"`
	ThreadID     string           `json:"threadId"`
	InternalDate string           `json:"internalDate"`
	Payload      gmailMessagePart `json:"payload"`
}

type gmailMessagePart struct {
	MimeType string             `json:"mimeType"`
	Headers  []gmailHeader      `json:"headers"`
	Body     gmailPartBody      `json:"body"`
	Parts    []gmailMessagePart `json:"parts"`
}

type gmailHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type gmailPartBody struct {
	Data string `json:"data"`
}

// normalize converts the Gmail API shape to the canonical Message.
func (m gmailMessage) normalize(includeBody bool) Message {
	headers := make(map[string]string, len(m.Payload.Headers))
	for _, h := range m.Payload.Headers {
		headers[strings.ToLower(h.Name)] = h.Value
	}

	var receivedAt time.Time
	if ms, err := strconv.ParseInt(m.InternalDate, 10, 64); err == nil && ms > 0 {
		receivedAt = time.UnixMilli(ms).UTC()
	}

	var toEmails []string
	for _, addr := range strings.Split(headers["to"], ",") {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			toEmails = append(toEmails, trimmed)
		}
	}

	msg := Message{
		Provider:          gmailName,
		ProviderMessageID: m.ID,
		ThreadID:          m.ThreadID,
		FromEmail:         headers["from"],
		ToEmails:          toEmails,
		Subject:           headers["subject"],
		ReceivedAt:        receivedAt,
	}

	if includeBody {
		msg.BodyText, msg.BodyHTML = extractBody(m.Payload)
	}

	return msg
}

// extractBody walks the MIME part tree and returns the first text/plain and
// first text/html parts found; deeper duplicates of the same type are ignored.
func extractBody(payload gmailMessagePart) (text, html string) {
	walkParts(payload, &text, &html)
	return text, html
}

func walkParts(part gmailMessagePart, text, html *string) {
	if decoded := decodePartData(part.Body.Data); decoded != "" {
		switch {
		case part.MimeType == mimeTextPlain && *text == "":
			*text = decoded
		case part.MimeType == mimeTextHTML && *html == "":
			*html = decoded
		}
	}
	for _, child := range part.Parts {
		walkParts(child, text, html)
	}
}

// decodePartData decodes the base64url body data Gmail returns, tolerating
// both padded and unpadded encodings.
func decodePartData(data string) string {
	if data == "" {
		return ""
	}
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return string(decoded)
}
