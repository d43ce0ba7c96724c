package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"bithumb-backoffice/internal/auth"
)

const (
	userTransactionsPath = "/info/user_transactions"
	accountsPath         = "/v1/accounts"
	orderChancePath      = "/v1/orders/chance"
	marketAllPath        = "/v1/market/all"
	walletStatusPath     = "/v1/status/wallet"

	// CurrencyAll is the sentinel for querying every currency at once.
	CurrencyAll = "ALL"

	defaultCount = 20
)

// Scope selects which direction of transfers to fetch (searchGb).
type Scope int

const (
	ScopeAll        Scope = 0
	ScopeDeposit    Scope = 1
	ScopeWithdrawal Scope = 2
)

// APIError reports a failed exchange API call: either a non-2xx response
// (StatusCode/Body set) or a transport/decode failure (Err set).
type APIError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("exchange api call failed: %v", e.Err)
	}
	return fmt.Sprintf("exchange api returned status %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Options parameterise the exchange client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client issues signed requests against the exchange REST API.
type Client struct {
	opts    Options
	signer  *auth.Signer
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewClient constructs an exchange API client.
func NewClient(opts Options, signer *auth.Signer, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.bithumb.com"
	}

	return &Client{
		opts:    opts,
		signer:  signer,
		logger:  logger.With().Str("component", "exchange_client").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// UserTransactions fetches the deposit/withdrawal ledger. currency may be a
// single asset code or CurrencyAll; count defaults to 20 when non-positive.
func (c *Client) UserTransactions(ctx context.Context, currency string, scope Scope, count int) (*TransactionsResponse, error) {
	if currency == "" {
		currency = CurrencyAll
	}
	if count <= 0 {
		count = defaultCount
	}

	params := []auth.Param{
		{Name: "currency", Value: currency},
		{Name: "searchGb", Value: strconv.Itoa(int(scope))},
		{Name: "count", Value: strconv.Itoa(count)},
	}

	var res TransactionsResponse
	if err := c.get(ctx, userTransactionsPath, params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Accounts fetches all account balances.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	var res []Account
	if err := c.get(ctx, accountsPath, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// OrderChance fetches order availability for one market, e.g. "KRW-BTC".
func (c *Client) OrderChance(ctx context.Context, market string) (*OrderChance, error) {
	params := []auth.Param{{Name: "market", Value: market}}

	var res OrderChance
	if err := c.get(ctx, orderChancePath, params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// MarketCodes fetches every listed market.
func (c *Client) MarketCodes(ctx context.Context) ([]MarketCode, error) {
	var res []MarketCode
	if err := c.get(ctx, marketAllPath, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// WalletStatus fetches the wallet status payload unparsed.
func (c *Client) WalletStatus(ctx context.Context) (json.RawMessage, error) {
	body, err := c.do(ctx, walletStatusPath, nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// get performs a signed GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, params []auth.Param, out any) error {
	body, err := c.do(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// do signs the exact query string it transmits; a mismatch between the
// hashed and sent encodings makes the exchange reject the call.
func (c *Client) do(ctx context.Context, path string, params []auth.Param) ([]byte, error) {
	token, err := c.signer.Sign(params)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + path
	if query := auth.EncodeQuery(params); query != "" {
		endpoint += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &APIError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", token)
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	c.logger.Debug().Str("path", path).Msg("calling exchange api")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &APIError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error().Int("status", resp.StatusCode).Str("path", path).Msg("exchange api call failed")
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
