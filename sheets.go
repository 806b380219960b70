package rugsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RemoteClient is the surface the coordinator needs from the remote
// spreadsheet. Satisfied by SheetsClient; tests substitute fakes.
type RemoteClient interface {
	// TestConnection verifies credentials and reachability and returns the
	// name of the sheet tab that will be synced.
	TestConnection(ctx context.Context) (string, error)

	// ReadRange reads an A1 range (without tab prefix) from the sheet.
	ReadRange(ctx context.Context, rng string) ([][]string, error)

	// WriteRange writes rows to an A1 range with RAW value semantics.
	WriteRange(ctx context.Context, rng string, rows [][]string) error

	// ClearRange clears all values in an A1 range.
	ClearRange(ctx context.Context, rng string) error
}

// SheetsClient is a thin wrapper over the Sheets v4 REST API, bound to one
// spreadsheet and its first sheet tab.
type SheetsClient struct {
	spreadsheetID   string
	expectedAccount string
	account         *ServiceAccount
	tokens          *tokenSource
	baseURL         string
	client          *http.Client
	logger          zerolog.Logger

	mu  sync.Mutex
	tab string // cached after first discovery
}

// NewSheetsClient creates a client for the configured spreadsheet.
func NewSheetsClient(account *ServiceAccount, cfg Config, logger zerolog.Logger) *SheetsClient {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return &SheetsClient{
		spreadsheetID:   cfg.SpreadsheetID,
		expectedAccount: cfg.ExpectedAccount,
		account:         account,
		tokens:          newTokenSource(account, cfg.TokenURL, httpClient),
		baseURL:         cfg.SheetsBaseURL,
		client:          httpClient,
		logger:          logger,
	}
}

// TestConnection verifies the credential identifies the expected service
// account and the spreadsheet is reachable with at least one tab. Returns
// the tab name on success.
func (c *SheetsClient) TestConnection(ctx context.Context) (string, error) {
	if c.expectedAccount != "" && c.account.ClientEmail != c.expectedAccount {
		return "", &SyncError{
			Operation: "test connection",
			Err: fmt.Errorf("%w: credential is for %s, expected %s",
				ErrAccountMismatch, c.account.ClientEmail, c.expectedAccount),
		}
	}
	return c.tabName(ctx)
}

// tabName returns the first sheet tab, discovering and caching it on first use.
func (c *SheetsClient) tabName(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tab != "" {
		return c.tab, nil
	}

	u := fmt.Sprintf("%s/%s?fields=sheets.properties.title", c.baseURL, c.spreadsheetID)
	body, err := c.do(ctx, "GET", u, nil, "discover sheet")
	if err != nil {
		return "", err
	}

	var meta struct {
		Sheets []struct {
			Properties struct {
				Title string `json:"title"`
			} `json:"properties"`
		} `json:"sheets"`
	}
	if err := json.Unmarshal(body, &meta); err != nil {
		return "", &SyncError{Operation: "discover sheet", Err: err}
	}
	if len(meta.Sheets) == 0 {
		return "", &SyncError{Operation: "discover sheet", Err: ErrNoSheetTab}
	}

	c.tab = meta.Sheets[0].Properties.Title
	c.logger.Debug().Str("tab", c.tab).Msg("discovered sheet tab")
	return c.tab, nil
}

// ReadRange reads cell values from the given A1 range on the synced tab.
func (c *SheetsClient) ReadRange(ctx context.Context, rng string) ([][]string, error) {
	full, err := c.qualifiedRange(ctx, rng)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/%s/values/%s", c.baseURL, c.spreadsheetID, url.PathEscape(full))
	body, err := c.do(ctx, "GET", u, nil, "read range")
	if err != nil {
		return nil, err
	}

	var result struct {
		Values [][]any `json:"values"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &SyncError{Operation: "read range", Err: err}
	}

	rows := make([][]string, len(result.Values))
	for i, row := range result.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v)
		}
		rows[i] = cells
	}
	return rows, nil
}

// WriteRange writes rows into the given A1 range with RAW input semantics:
// no formula evaluation, no type coercion by the remote side.
func (c *SheetsClient) WriteRange(ctx context.Context, rng string, rows [][]string) error {
	full, err := c.qualifiedRange(ctx, rng)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{"values": rows})
	if err != nil {
		return &SyncError{Operation: "write range", Err: err}
	}

	u := fmt.Sprintf("%s/%s/values/%s?valueInputOption=RAW", c.baseURL, c.spreadsheetID, url.PathEscape(full))
	_, err = c.do(ctx, "PUT", u, payload, "write range")
	return err
}

// ClearRange removes all values from the given A1 range.
func (c *SheetsClient) ClearRange(ctx context.Context, rng string) error {
	full, err := c.qualifiedRange(ctx, rng)
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/%s/values/%s:clear", c.baseURL, c.spreadsheetID, url.PathEscape(full))
	_, err = c.do(ctx, "POST", u, []byte("{}"), "clear range")
	return err
}

func (c *SheetsClient) qualifiedRange(ctx context.Context, rng string) (string, error) {
	tab, err := c.tabName(ctx)
	if err != nil {
		return "", err
	}
	return tab + "!" + rng, nil
}

// do issues one authenticated request and translates failures into *SyncError.
func (c *SheetsClient) do(ctx context.Context, method, u string, payload []byte, op string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, &SyncError{Operation: op, Err: err}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("method", method).Str("url", u).Msg("sheets request")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &SyncError{Operation: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	c.logger.Debug().Int("status", resp.StatusCode).Int("bytes", len(respBody)).Msg("sheets response")

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(op, resp.StatusCode)
	}
	return respBody, nil
}

// apiError maps HTTP failure statuses to display-ready messages.
func (c *SheetsClient) apiError(op string, status int) error {
	var err error
	switch status {
	case http.StatusForbidden:
		err = fmt.Errorf("access denied: share the spreadsheet with %s", c.account.ClientEmail)
	case http.StatusNotFound:
		err = fmt.Errorf("spreadsheet or sheet not found")
	default:
		err = fmt.Errorf("sheets API error")
	}
	return &SyncError{Operation: op, StatusCode: status, Err: err}
}

// ColumnLetter converts a 1-based column index to A1 letters:
// 1 → A, 26 → Z, 27 → AA.
func ColumnLetter(n int) string {
	letters := ""
	for n > 0 {
		n--
		letters = string(rune('A'+n%26)) + letters
		n /= 26
	}
	return letters
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprint(t)
	}
}
