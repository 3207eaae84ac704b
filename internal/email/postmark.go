package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

const defaultAPIURL = "https://api.postmarkapp.com"

type Client struct {
	serverToken string
	fromEmail   string
	appURL      string
	apiURL      string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithAPIURL overrides the Postmark API base URL.
func WithAPIURL(u string) Option {
	return func(cl *Client) {
		cl.apiURL = u
	}
}

// NewClient creates a Postmark-backed email client. appURL is the public
// address of the app, used for links inside outgoing emails.
func NewClient(serverToken, fromEmail, appURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		appURL:      appURL,
		apiURL:      defaultAPIURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendLoginCode sends a 6-digit sign-in code for guardian login or
// registration.
func (c *Client) SendLoginCode(toEmail, code, purpose string) error {
	var subject string
	switch purpose {
	case "register":
		subject = "Welcome to Sahaay"
	default:
		subject = "Sign in to Sahaay"
	}

	textBody := fmt.Sprintf("Your Sahaay sign-in code is %s.\n\nIt expires in 15 minutes.", code)
	htmlBody := fmt.Sprintf(
		`<p>Your Sahaay sign-in code is:</p><p style="font-size:24px;letter-spacing:4px"><strong>%s</strong></p><p>It expires in 15 minutes.</p>`,
		code,
	)

	return c.send(postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	})
}

// SendAlert sends a care alert (missed dose, emergency) to a guardian.
func (c *Client) SendAlert(toEmail, title, message string) error {
	textBody := fmt.Sprintf("%s\n\n%s\n\nOpen your dashboard: %s", title, message, c.appURL)
	htmlBody := fmt.Sprintf(
		`<p><strong>%s</strong></p><p>%s</p><p><a href="%s">Open your dashboard</a></p>`,
		title, message, c.appURL,
	)

	return c.send(postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  title,
		HtmlBody: htmlBody,
		TextBody: textBody,
	})
}

func (c *Client) send(payload postmarkEmail) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest("POST", c.apiURL+"/email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
