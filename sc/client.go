package sc

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/rs/zerolog"
)

// Config holds the connection settings for a SecurityCenter instance.
type Config struct {
	// URL is the base address, e.g. https://sc.example.com. The REST
	// prefix is appended by the client.
	URL string `env:"SC_URL"`

	// AccessKey and SecretKey enable API-key authentication. When unset,
	// call Login for session authentication instead.
	AccessKey string `env:"SC_ACCESS_KEY"`
	SecretKey string `env:"SC_SECRET_KEY"`

	// Insecure skips TLS certificate verification. Appliances commonly
	// ship with self-signed certificates.
	Insecure bool `env:"SC_INSECURE"`

	Timeout time.Duration `env:"SC_TIMEOUT" envDefault:"30s"`
}

// Client talks to the SecurityCenter REST API. It holds no per-request
// state besides the session credentials, so a single instance may be shared
// across goroutines.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	accessKey  string
	secretKey  string
	log        zerolog.Logger
}

// NewClient builds a client from an explicit configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("securitycenter URL is not set")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	// Session authentication relies on the TNS_SESSIONID cookie issued
	// alongside the token.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %v", err)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/") + "/rest",
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			Jar:       jar,
		},
		accessKey: cfg.AccessKey,
		secretKey: cfg.SecretKey,
		log:       zerolog.Nop(),
	}, nil
}

// NewFromEnv builds a client from the SC_* environment variables.
func NewFromEnv() (*Client, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %v", err)
	}
	return NewClient(cfg)
}

// SetLogger enables request logging. The client logs at debug level only.
func (c *Client) SetLogger(log zerolog.Logger) {
	c.log = log
}

// Alerts returns the interface object for the alert APIs.
func (c *Client) Alerts() *AlertAPI {
	return &AlertAPI{client: c}
}

// Login authenticates with a username and password and stores the session
// token for subsequent requests.
func (c *Client) Login(username, password string) error {
	var resp struct {
		Token json.Number `json:"token"`
	}
	if err := c.Post("token", map[string]string{
		"username": username,
		"password": password,
	}, &resp); err != nil {
		return err
	}
	c.token = resp.Token.String()
	return nil
}

// Logout releases the current session token.
func (c *Client) Logout() error {
	if c.token == "" {
		return nil
	}
	if err := c.Delete("token", nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

func (c *Client) Get(path string, params url.Values, out interface{}) error {
	return c.do(http.MethodGet, path, params, nil, out)
}

func (c *Client) Post(path string, body, out interface{}) error {
	return c.do(http.MethodPost, path, nil, body, out)
}

func (c *Client) Patch(path string, body, out interface{}) error {
	return c.do(http.MethodPatch, path, nil, body, out)
}

func (c *Client) Delete(path string, out interface{}) error {
	return c.do(http.MethodDelete, path, nil, nil, out)
}

// envelope is the wrapper SecurityCenter puts around every response.
type envelope struct {
	Type      string          `json:"type"`
	Response  json.RawMessage `json:"response"`
	ErrorCode int             `json:"error_code"`
	ErrorMsg  string          `json:"error_msg"`
}

func (c *Client) do(method, path string, params url.Values, body, out interface{}) error {
	u := c.baseURL + "/" + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.accessKey != "" && c.secretKey != "" {
		req.Header.Set("x-apikey",
			fmt.Sprintf("accesskey=%s; secretkey=%s", c.accessKey, c.secretKey))
	} else if c.token != "" {
		req.Header.Set("X-SecurityCenter", c.token)
	}

	c.log.Debug().Str("method", method).Str("url", u).Msg("securitycenter request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %v", err)
	}

	c.log.Debug().Int("status", resp.StatusCode).Int("bytes", len(respBody)).
		Msg("securitycenter response")

	var env envelope
	if len(respBody) > 0 {
		// Error envelopes still decode; anything else is surfaced raw.
		if err := json.Unmarshal(respBody, &env); err != nil && resp.StatusCode < 400 {
			return fmt.Errorf("failed to decode response: %v", err)
		}
	}

	if resp.StatusCode >= 400 {
		return &APIError{
			StatusCode: resp.StatusCode,
			ErrorCode:  env.ErrorCode,
			ErrorMsg:   env.ErrorMsg,
			Body:       string(respBody),
		}
	}

	if out != nil && len(env.Response) > 0 {
		if err := json.Unmarshal(env.Response, out); err != nil {
			return fmt.Errorf("failed to decode response: %v", err)
		}
	}
	return nil
}
