package smartsheet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lo "github.com/samber/lo"
	"golang.org/x/oauth2"
)

// Package smartsheet is a minimal Smartsheet REST client covering the
// operations the rollup job needs: sheet listing/creation/retrieval, row
// CRUD and sorting. It is not a general SDK.

// Sort directions accepted by SortSheet.
const (
	SortAscending  = "ASCENDING"
	SortDescending = "DESCENDING"
)

// TypeTextNumber is the column type used for both outline columns.
const TypeTextNumber = "TEXT_NUMBER"

// Column describes one sheet column. ID is assigned by the service.
type Column struct {
	ID      int64  `json:"id,omitempty"`
	Title   string `json:"title"`
	Primary bool   `json:"primary,omitempty"`
	Type    string `json:"type,omitempty"`
}

// Cell is one cell of a row, addressed by column id. A blank cell is sent as
// an empty string value, matching what the sheet displays.
type Cell struct {
	ColumnID     int64  `json:"columnId"`
	Value        any    `json:"value"`
	DisplayValue string `json:"displayValue,omitempty"`
}

// Row is a sheet row for both requests and responses. ParentID is a pointer so
// top-level rows serialize without a parent link.
type Row struct {
	ID       int64  `json:"id,omitempty"`
	ParentID *int64 `json:"parentId,omitempty"`
	ToTop    bool   `json:"toTop,omitempty"`
	Cells    []Cell `json:"cells,omitempty"`
}

// Sheet is a container of columns and rows.
type Sheet struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Columns []Column `json:"columns,omitempty"`
	Rows    []Row    `json:"rows,omitempty"`
}

// SheetSpec is the creation payload: a name plus the ordered column schema.
type SheetSpec struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// APIError is a non-2xx response from the service, with the decoded error
// body when one was present.
type APIError struct {
	StatusCode int
	ErrorCode  int    `json:"errorCode"`
	Message    string `json:"message"`
	RefID      string `json:"refId"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("smartsheet API error %d (code %d, ref %s): %s", e.StatusCode, e.ErrorCode, e.RefID, e.Message)
}

// Client is a thin wrapper over http.Client with bearer-token auth.
// Use New to construct it.
type Client struct {
	baseURL string
	c       *http.Client
}

// New builds a client for the given API base URL. The token is attached to
// every request through an oauth2 static token source.
func New(ctx context.Context, baseURL, token string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	c := oauth2.NewClient(ctx, ts)
	c.Timeout = 30 * time.Second
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), c: c}
}

func (sc *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := sc.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s request: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := sc.c.Do(req)
	if err != nil {
		return fmt.Errorf("smartsheet %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		b, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(b, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(b))
		}
		return apiErr
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding %s %s response: %w", method, path, err)
		}
	}
	return nil
}

type listSheetsResponse struct {
	TotalCount int     `json:"totalCount"`
	Data       []Sheet `json:"data"`
}

// ListSheets returns every sheet the token can see (id and name only).
func (sc *Client) ListSheets(ctx context.Context) ([]Sheet, error) {
	q := url.Values{"includeAll": {"true"}}
	var res listSheetsResponse
	if err := sc.do(ctx, http.MethodGet, "/sheets", q, nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

type sheetResult struct {
	Message    string `json:"message"`
	ResultCode int    `json:"resultCode"`
	Result     Sheet  `json:"result"`
}

// CreateSheet creates a sheet from spec and returns it with column ids
// populated.
func (sc *Client) CreateSheet(ctx context.Context, spec SheetSpec) (Sheet, error) {
	var res sheetResult
	if err := sc.do(ctx, http.MethodPost, "/sheets", nil, spec, &res); err != nil {
		return Sheet{}, err
	}
	return res.Result, nil
}

// GetSheet fetches a sheet with its columns and rows populated.
func (sc *Client) GetSheet(ctx context.Context, id int64) (*Sheet, error) {
	var s Sheet
	if err := sc.do(ctx, http.MethodGet, "/sheets/"+strconv.FormatInt(id, 10), nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

type rowsResult struct {
	Message    string `json:"message"`
	ResultCode int    `json:"resultCode"`
	Result     []Row  `json:"result"`
}

// AddRows appends rows to the sheet and returns the created rows, ids
// populated, in submission order.
func (sc *Client) AddRows(ctx context.Context, sheetID int64, rows []Row) ([]Row, error) {
	var res rowsResult
	path := "/sheets/" + strconv.FormatInt(sheetID, 10) + "/rows"
	if err := sc.do(ctx, http.MethodPost, path, nil, rows, &res); err != nil {
		return nil, err
	}
	return res.Result, nil
}

// UpdateRows updates existing rows (cells, parent links) by id.
func (sc *Client) UpdateRows(ctx context.Context, sheetID int64, rows []Row) error {
	path := "/sheets/" + strconv.FormatInt(sheetID, 10) + "/rows"
	return sc.do(ctx, http.MethodPut, path, nil, rows, nil)
}

// DeleteRows deletes the given row ids. Callers are responsible for keeping
// one call within the service's batch ceiling.
func (sc *Client) DeleteRows(ctx context.Context, sheetID int64, ids []int64) error {
	strs := lo.Map(ids, func(id int64, _ int) string { return strconv.FormatInt(id, 10) })
	q := url.Values{
		"ids":                {strings.Join(strs, ",")},
		"ignoreRowsNotFound": {"true"},
	}
	path := "/sheets/" + strconv.FormatInt(sheetID, 10) + "/rows"
	return sc.do(ctx, http.MethodDelete, path, q, nil, nil)
}

type sortSpecifier struct {
	SortCriteria []sortCriterion `json:"sortCriteria"`
}

type sortCriterion struct {
	ColumnID  int64  `json:"columnId"`
	Direction string `json:"direction"`
}

// SortSheet sorts the sheet rows by one column. direction is SortAscending or
// SortDescending.
func (sc *Client) SortSheet(ctx context.Context, sheetID, columnID int64, direction string) error {
	body := sortSpecifier{SortCriteria: []sortCriterion{{ColumnID: columnID, Direction: direction}}}
	path := "/sheets/" + strconv.FormatInt(sheetID, 10) + "/sort"
	return sc.do(ctx, http.MethodPost, path, nil, body, nil)
}

// LookupColumn finds a column by title. Unlike the sheet service's own cell
// helpers this fails loud: a missing title is an error, not a zero id.
func LookupColumn(columns []Column, title string) (Column, error) {
	col, ok := lo.Find(columns, func(c Column) bool { return c.Title == title })
	if !ok {
		return Column{}, fmt.Errorf("column %q not found in sheet schema", title)
	}
	return col, nil
}
