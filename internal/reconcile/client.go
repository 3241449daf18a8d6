package reconcile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Error kinds of the external client, matching the sync error taxonomy:
// configuration errors and transport errors abort the whole call and
// may be retried manually; protocol errors carry the upstream status or
// comment for diagnosis.
var (
	ErrMissingCredentials = eris.New("external api credentials not configured")
	ErrTransport          = eris.New("external api transport error")
	ErrProtocol           = eris.New("external api protocol error")
)

// ClientConfig configures the external sales API client.
type ClientConfig struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
	// RPS bounds outbound calls; the upstream's own limits are unknown.
	RPS rate.Limit
}

// Client talks to the external sales API. Both endpoints are POSTs with
// empty bodies despite being logically reads; that quirk is upstream's
// and is preserved byte-for-byte, including the "constrasena" spelling
// in the token query string.
type Client struct {
	http    *http.Client
	cfg     ClientConfig
	limiter *rate.Limiter
	log     *zap.SugaredLogger
}

type apiEnvelope struct {
	Error   bool            `json:"Error"`
	Data    json.RawMessage `json:"Data"`
	Comment *string         `json:"Comment"`
}

func NewClient(cfg ClientConfig, log *zap.SugaredLogger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RPS == 0 {
		cfg.RPS = 5
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		limiter: rate.NewLimiter(cfg.RPS, 1),
		log:     log,
	}
}

// GetToken obtains a bearer token using the stored credentials.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	if c.cfg.Username == "" || c.cfg.Password == "" {
		return "", ErrMissingCredentials
	}

	endpoint := c.cfg.BaseURL + "/GetExternalToken?usuario=" + url.QueryEscape(c.cfg.Username) +
		"&constrasena=" + url.QueryEscape(c.cfg.Password)

	env, err := c.post(ctx, endpoint)
	if err != nil {
		return "", err
	}

	var token string
	if err := json.Unmarshal(env.Data, &token); err != nil || token == "" {
		return "", eris.Wrap(ErrProtocol, "token response carried no usable Data")
	}
	return token, nil
}

// FetchRows retrieves the raw scraped rows for a date range, inclusive.
func (c *Client) FetchRows(ctx context.Context, token string, dateStart, dateEnd time.Time) ([]Row, error) {
	endpoint := c.cfg.BaseURL + "/GetScrapByDate?token=" + url.QueryEscape(token) +
		"&dateIni=" + dateStart.Format("2006-01-02") +
		"&dateEnd=" + dateEnd.Format("2006-01-02")

	env, err := c.post(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var rows []Row
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		return nil, eris.Wrap(ErrProtocol, "malformed Data payload, expected an array of rows")
	}
	return rows, nil
}

func (c *Client) post(ctx context.Context, endpoint string) (*apiEnvelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(ErrTransport, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(ErrTransport, err.Error())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warnw("external api request failed", "error", err)
		return nil, eris.Wrap(ErrTransport, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, eris.Wrapf(ErrProtocol, "upstream returned status %d", resp.StatusCode)
	}

	env := &apiEnvelope{}
	if err := json.NewDecoder(resp.Body).Decode(env); err != nil {
		return nil, eris.Wrap(ErrProtocol, "undecodable response body")
	}

	if env.Error {
		comment := ""
		if env.Comment != nil {
			comment = *env.Comment
		}
		return nil, eris.Wrapf(ErrProtocol, "upstream reported an error: %s", comment)
	}
	return env, nil
}
