package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
	"ledger/internal/services"
)

type fakeTransactionAPI struct {
	createErr error
	listErr   error

	created []services.CreateTransactionInput
	listed  []core.Transaction
	balance core.Balance
}

func (f *fakeTransactionAPI) Create(ctx context.Context, in services.CreateTransactionInput) (core.Transaction, error) {
	if f.createErr != nil {
		return core.Transaction{}, f.createErr
	}
	f.created = append(f.created, in)
	return core.Transaction{
		ID:         "tx-1",
		Title:      in.Title,
		Value:      in.Value,
		Type:       in.Type,
		CategoryID: "cat-1",
		CreatedAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeTransactionAPI) List(ctx context.Context) ([]core.Transaction, core.Balance, error) {
	if f.listErr != nil {
		return nil, core.Balance{}, f.listErr
	}
	return f.listed, f.balance, nil
}

type fakeImporter struct {
	err      error
	imported []string
	result   []core.Transaction
}

func (f *fakeImporter) ImportFile(ctx context.Context, name string) ([]core.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.imported = append(f.imported, name)
	return f.result, nil
}

func newTestServer(t *testing.T, api *fakeTransactionAPI, imp *fakeImporter) *Server {
	t.Helper()
	srv := NewServer(":0", api, imp, t.TempDir(), 2<<20)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func TestCreateTransaction(t *testing.T) {
	api := &fakeTransactionAPI{}
	srv := newTestServer(t, api, &fakeImporter{})

	body := `{"title":"Salary","value":4500,"type":"income","category":"Job"}`
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, api.created, 1)
	assert.Equal(t, "Salary", api.created[0].Title)
	assert.Equal(t, int64(450000), api.created[0].Value.Cents)
	assert.Equal(t, core.Income, api.created[0].Type)
	assert.Equal(t, "Job", api.created[0].Category)

	var resp transactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "tx-1", resp.ID)
	assert.Equal(t, 4500.0, resp.Value)
}

func TestCreateTransactionDomainErrorsAre400(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"invalid type", core.ErrInvalidTransactionType},
		{"insufficient funds", core.ErrInsufficientFunds},
		{"empty title", core.ErrEmptyTitle},
		{"empty category", core.ErrEmptyCategoryTitle},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeTransactionAPI{createErr: tc.err}
			srv := newTestServer(t, api, &fakeImporter{})

			body := `{"title":"x","value":1,"type":"outcome","category":"y"}`
			req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, tc.err.Error(), resp.Message)
		})
	}
}

func TestCreateTransactionRejectsNegativeValue(t *testing.T) {
	api := &fakeTransactionAPI{}
	srv := newTestServer(t, api, &fakeImporter{})

	body := `{"title":"x","value":-5,"type":"income","category":"y"}`
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, api.created)
}

func TestCreateTransactionBadJSON(t *testing.T) {
	srv := newTestServer(t, &fakeTransactionAPI{}, &fakeImporter{})

	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTransactions(t *testing.T) {
	api := &fakeTransactionAPI{
		listed: []core.Transaction{
			{ID: "a", Title: "Salary", Value: core.Money{Cents: 450000}, Type: core.Income, CategoryID: "c1"},
			{ID: "b", Title: "Rent", Value: core.Money{Cents: 120000}, Type: core.Outcome, CategoryID: "c2"},
		},
		balance: core.Balance{
			Income:  core.Money{Cents: 450000},
			Outcome: core.Money{Cents: 120000},
			Total:   core.Money{Cents: 330000},
		},
	}
	srv := newTestServer(t, api, &fakeImporter{})

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp listTransactionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Transactions, 2)
	assert.Equal(t, 4500.0, resp.Transactions[0].Value)
	assert.Equal(t, "outcome", resp.Transactions[1].Type)
	assert.Equal(t, 3300.0, resp.Balance.Total)
}

func TestImportUpload(t *testing.T) {
	imp := &fakeImporter{
		result: []core.Transaction{
			{ID: "a", Title: "Loan", Value: core.Money{Cents: 150000}, Type: core.Income, CategoryID: "c1"},
		},
	}
	srv := newTestServer(t, &fakeTransactionAPI{}, imp)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "import.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("title, type, value, category\nLoan, income, 1500, Other\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/transactions/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, imp.imported, 1)
	assert.True(t, strings.HasSuffix(imp.imported[0], "-import.csv"))

	// The upload lands in the configured directory under the stored name.
	stored, err := os.ReadFile(filepath.Join(srv.uploadDir, imp.imported[0]))
	require.NoError(t, err)
	assert.Contains(t, string(stored), "Loan")

	var resp importResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Transactions, 1)
	assert.Equal(t, 1500.0, resp.Transactions[0].Value)
}

func TestImportMissingFileField(t *testing.T) {
	srv := newTestServer(t, &fakeTransactionAPI{}, &fakeImporter{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "value"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/transactions/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &fakeTransactionAPI{}, &fakeImporter{})

	req := httptest.NewRequest(http.MethodDelete, "/transactions", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/transactions/import", nil)
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, &fakeTransactionAPI{}, &fakeImporter{})

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, &fakeTransactionAPI{}, &fakeImporter{})

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRateLimitOnWrites(t *testing.T) {
	srv := newTestServer(t, &fakeTransactionAPI{}, &fakeImporter{})

	var last int
	for i := 0; i < maxRequestsPerMinute+1; i++ {
		req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(`{"title":"x","value":1,"type":"income","category":"y"}`))
		req.RemoteAddr = "10.0.0.9:1234"
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)
		last = rec.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, last)
}
