package google

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"

	"sheetledger/internal/core"
	ports "sheetledger/internal/sheets"
)

// fakeAPI answers the handful of Drive and Sheets calls the client makes.
type fakeAPI struct {
	mu       sync.Mutex
	files    []map[string]string
	rows     [][]interface{}
	query    string
	orderBy  string
	created  map[string]interface{}
	header   map[string]interface{}
	appended map[string]interface{}
	appendQS string
	fail     bool
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		http.Error(w, `{"error":{"code":500,"message":"boom"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/files"):
		f.query = r.URL.Query().Get("q")
		f.orderBy = r.URL.Query().Get("orderBy")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"files": f.files})
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/v4/spreadsheets"):
		f.created = decodeBody(r)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"spreadsheetId": "new-sheet"})
	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		f.header = decodeBody(r)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"updatedRows": 1})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		f.appended = decodeBody(r)
		f.appendQS = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(map[string]interface{}{})
	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"range": ports.DataRange, "values": f.rows})
	default:
		http.NotFound(w, r)
	}
}

func decodeBody(r *http.Request) map[string]interface{} {
	b, _ := io.ReadAll(r.Body)
	out := map[string]interface{}{}
	_ = json.Unmarshal(b, &out)
	return out
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	c, err := New(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return c
}

func TestClient_LocateFirstMatchWins(t *testing.T) {
	api := &fakeAPI{files: []map[string]string{
		{"id": "oldest", "name": ports.ResourceName},
		{"id": "newer", "name": ports.ResourceName},
	}}
	c := newTestClient(t, api)

	res, err := c.Locate(context.Background(), ports.ResourceName)
	require.NoError(t, err)
	assert.Equal(t, "oldest", res.ResourceID)
	assert.Equal(t, 2, res.Matches)
	assert.Equal(t, "name='ExpenseTracker' and mimeType='application/vnd.google-apps.spreadsheet' and trashed=false", api.query)
	assert.Equal(t, "createdTime", api.orderBy)
}

func TestClient_LocateNotFound(t *testing.T) {
	c := newTestClient(t, &fakeAPI{})
	_, err := c.Locate(context.Background(), ports.ResourceName)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestClient_CreateWritesHeader(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)

	id, err := c.Create(context.Background(), ports.ResourceName)
	require.NoError(t, err)
	assert.Equal(t, "new-sheet", id)

	props := api.created["properties"].(map[string]interface{})
	assert.Equal(t, ports.ResourceName, props["title"])
	sheets := api.created["sheets"].([]interface{})
	require.Len(t, sheets, 1)
	sp := sheets[0].(map[string]interface{})["properties"].(map[string]interface{})
	assert.Equal(t, ports.SheetName, sp["title"])
	grid := sp["gridProperties"].(map[string]interface{})
	assert.EqualValues(t, 1000, grid["rowCount"])
	assert.EqualValues(t, 3, grid["columnCount"])

	values := api.header["values"].([]interface{})
	assert.Equal(t, []interface{}{"Name", "Amount", "Type"}, values[0])
}

func TestClient_ReadEntries(t *testing.T) {
	api := &fakeAPI{rows: [][]interface{}{
		{"Coffee", 3.5, "expense"},
		{"Salary", 1000, "income"},
	}}
	c := newTestClient(t, api)

	entries, err := c.ReadEntries(context.Background(), "sheet-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Coffee", entries[0].Name)
	assert.True(t, entries[0].Amount.Equal(decimal.RequireFromString("3.5")))
	assert.Equal(t, core.Income, entries[1].Type)
}

func TestClient_AppendEntryUsesInsertRows(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)

	err := c.AppendEntry(context.Background(), "sheet-1", core.NewEntry("Coffee", "3.5", "expense"))
	require.NoError(t, err)
	assert.Contains(t, api.appendQS, "valueInputOption=RAW")
	assert.Contains(t, api.appendQS, "insertDataOption=INSERT_ROWS")
	values := api.appended["values"].([]interface{})
	assert.Equal(t, []interface{}{"Coffee", 3.5, "expense"}, values[0])
}

func TestClient_ProviderErrorsAreWrapped(t *testing.T) {
	c := newTestClient(t, &fakeAPI{fail: true})

	_, err := c.Locate(context.Background(), ports.ResourceName)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ports.ErrNotFound))
	assert.Contains(t, err.Error(), "search drive")

	err = c.AppendEntry(context.Background(), "sheet-1", core.NewEntry("x", "1", "income"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append to")
}

func TestNewForToken_RequiresTokenSource(t *testing.T) {
	_, err := NewForToken(context.Background(), nil)
	require.Error(t, err)
}
