package smartsheet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(context.Background(), srv.URL, "test-token")
}

func TestClientSendsBearerToken(t *testing.T) {
	var auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(listSheetsResponse{})
	})
	_, err := c.ListSheets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", auth)
}

func TestCreateSheetPayloadAndResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/sheets", r.URL.Path)
		var spec SheetSpec
		require.NoError(t, json.NewDecoder(r.Body).Decode(&spec))
		assert.Equal(t, "ARR per Location", spec.Name)
		require.Len(t, spec.Columns, 2)
		assert.True(t, spec.Columns[0].Primary)

		res := sheetResult{ResultCode: 0, Result: Sheet{ID: 42, Name: spec.Name, Columns: []Column{
			{ID: 1, Title: "Location", Primary: true},
			{ID: 2, Title: "ARR"},
		}}}
		_ = json.NewEncoder(w).Encode(res)
	})

	sheet, err := c.CreateSheet(context.Background(), SheetSpec{
		Name: "ARR per Location",
		Columns: []Column{
			{Title: "Location", Primary: true, Type: TypeTextNumber},
			{Title: "ARR", Type: TypeTextNumber},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), sheet.ID)
	assert.Equal(t, int64(2), sheet.Columns[1].ID)
}

func TestAddRowsReturnsSubmissionOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sheets/7/rows", r.URL.Path)
		var rows []Row
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rows))
		for i := range rows {
			rows[i].ID = int64(100 + i)
		}
		_ = json.NewEncoder(w).Encode(rowsResult{Result: rows})
	})

	created, err := c.AddRows(context.Background(), 7, []Row{{ToTop: true}, {ToTop: true}})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, int64(100), created[0].ID)
	assert.Equal(t, int64(101), created[1].ID)
}

func TestDeleteRowsQuery(t *testing.T) {
	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		got = r.URL.Query().Get("ids")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"resultCode":0}`))
	})
	require.NoError(t, c.DeleteRows(context.Background(), 7, []int64{1, 2, 3}))
	assert.Equal(t, "1,2,3", got)
}

func TestSortSheetBody(t *testing.T) {
	var body sortSpecifier
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sheets/7/sort", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(Sheet{ID: 7})
	})
	require.NoError(t, c.SortSheet(context.Background(), 7, 11, SortDescending))
	require.Len(t, body.SortCriteria, 1)
	assert.Equal(t, int64(11), body.SortCriteria[0].ColumnID)
	assert.Equal(t, "DESCENDING", body.SortCriteria[0].Direction)
}

func TestAPIErrorDecoding(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errorCode":1006,"message":"Not Found","refId":"abc"}`))
	})
	_, err := c.GetSheet(context.Background(), 99)
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, 1006, apiErr.ErrorCode)
	assert.Equal(t, "Not Found", apiErr.Message)
}

func TestLookupColumn(t *testing.T) {
	cols := []Column{{ID: 1, Title: "Location"}, {ID: 2, Title: "ARR"}}
	col, err := LookupColumn(cols, "ARR")
	require.NoError(t, err)
	assert.Equal(t, int64(2), col.ID)

	_, err = LookupColumn(cols, "Revenue")
	require.Error(t, err)
}
