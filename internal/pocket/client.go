package pocket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultBaseURL is the root of the Pocket v3 API.
	DefaultBaseURL = "https://getpocket.com/v3"
	// DefaultRedirectURI is a placeholder for the authorization flow, which
	// this package does not implement.
	DefaultRedirectURI = "https://getpocket.com/connected_applications"

	defaultHTTPTimeout = 10 * time.Second
	acceptHeader       = "X-Accept"
	acceptJSON         = "application/json"
)

var validate = validator.New()

// Client represents a Pocket API client.
type Client struct {
	BaseURL     *url.URL
	ConsumerKey string
	AccessToken string
	RedirectURI string
	HTTPClient  *http.Client
}

// Option is a functional option for configuring the Client.
type Option func(*clientOptions)

type clientOptions struct {
	baseURL     string
	redirectURI string
	httpClient  *http.Client
	timeout     time.Duration
}

// WithBaseURL overrides the API root, mostly for tests.
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		o.baseURL = baseURL
	}
}

// WithRedirectURI sets the redirect URI registered for the consumer key.
func WithRedirectURI(redirectURI string) Option {
	return func(o *clientOptions) {
		o.redirectURI = redirectURI
	}
}

// WithHTTPClient replaces the underlying HTTP client. WithTimeout is ignored
// when it is set.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = httpClient
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = timeout
	}
}

// NewClient creates a new Pocket API client. The consumer key and access token
// must be given together; a client with neither can be built but cannot add
// items.
func NewClient(consumerKey, accessToken string, opts ...Option) (*Client, error) {
	if consumerKey != "" && accessToken == "" {
		return nil, &CredentialError{Reason: "an access token is required for all API access"}
	}
	if consumerKey == "" && accessToken != "" {
		return nil, &CredentialError{Reason: "an access token cannot be used without a consumer key"}
	}

	o := clientOptions{
		baseURL:     DefaultBaseURL,
		redirectURI: DefaultRedirectURI,
		timeout:     defaultHTTPTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	parsedURL, err := url.ParseRequestURI(o.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.timeout}
	}

	return &Client{
		BaseURL:     parsedURL,
		ConsumerKey: consumerKey,
		AccessToken: accessToken,
		RedirectURI: o.redirectURI,
		HTTPClient:  httpClient,
	}, nil
}

// AddInput holds the parameters of a single add call.
type AddInput struct {
	// URL of the item to save.
	URL string `validate:"required,url"`
	// Title is used only when Pocket cannot detect one, e.g. for images or PDFs.
	Title string
	// Tags are sent as a single comma-separated list.
	Tags []string
	// TweetID lets Pocket show the original tweet next to the article.
	TweetID string
}

func (in AddInput) form(consumerKey, accessToken string) url.Values {
	params := url.Values{}
	params.Set("consumer_key", consumerKey)
	params.Set("access_token", accessToken)
	params.Set("url", in.URL)

	if in.Title != "" {
		params.Set("title", in.Title)
	}
	if tags := joinTags(in.Tags); tags != "" {
		params.Set("tags", tags)
	}
	if in.TweetID != "" {
		params.Set("tweet_id", in.TweetID)
	}
	return params
}

// joinTags trims every tag, drops blank ones and joins the rest with commas,
// without a trailing separator.
func joinTags(tags []string) string {
	kept := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			kept = append(kept, tag)
		}
	}
	return strings.Join(kept, ",")
}

// Add saves a single item to the user's Pocket list.
func (c *Client) Add(ctx context.Context, input AddInput) (*Item, error) {
	if c.ConsumerKey == "" || c.AccessToken == "" {
		return nil, &CredentialError{Reason: "client has no consumer key and access token"}
	}
	if err := validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid add input: %w", err)
	}

	body, err := c.doForm(ctx, "add", input.form(c.ConsumerKey, c.AccessToken))
	if err != nil {
		return nil, err
	}

	return NewItemFromResponse(body)
}

// doForm POSTs a form-encoded body to the given API method and returns the
// raw response body.
func (c *Client) doForm(ctx context.Context, method string, params url.Values) ([]byte, error) {
	reqURL := c.BaseURL.JoinPath(method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(acceptHeader, acceptJSON)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg := resp.Header.Get("X-Error")
		if msg == "" {
			msg = resp.Status
		}
		return nil, &RequestError{
			StatusCode: resp.StatusCode,
			Err: &APIError{
				StatusCode: resp.StatusCode,
				Message:    msg,
				Code:       resp.Header.Get("X-Error-Code"),
			},
		}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return bodyBytes, nil
}

// IsCredentialError reports whether err is, or wraps, a *CredentialError.
func IsCredentialError(err error) bool {
	var credErr *CredentialError
	return errors.As(err, &credErr)
}
