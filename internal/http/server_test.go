package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"tracker/internal/aggregate"
	"tracker/internal/board"
	"tracker/internal/core"
)

type fakeStore struct {
	mu        sync.Mutex
	records   []core.Transaction
	creates   int
	createErr error
	listErr   error
}

func (f *fakeStore) ListTransactions(context.Context) ([]core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]core.Transaction(nil), f.records...), nil
}

func (f *fakeStore) CreateTransaction(_ context.Context, t core.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	f.records = append(f.records, t)
	return nil
}

func newTestServer(t *testing.T, store *fakeStore) (*Server, *board.Board) {
	t.Helper()
	b := board.New(store, board.WithClock(func() time.Time {
		return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	}))
	return NewServer(":0", b, nil), b
}

func do(srv *Server, method, path string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestIndexRendersTablesNewestFirst(t *testing.T) {
	store := &fakeStore{records: []core.Transaction{
		{Type: core.Earning, Title: "Salary", Amount: 1000, Date: core.NewDate(2024, 1, 1), Currency: core.USD},
		{Type: core.Expense, Title: "Rent", Amount: 500, Date: core.NewDate(2024, 1, 2), Currency: core.USD},
		{Type: core.Earning, Title: "Bonus", Amount: 50.25, Date: core.NewDate(2024, 2, 1), Currency: core.USD},
	}}
	srv, b := newTestServer(t, store)
	if err := b.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	rr := do(srv, http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"Earnings", "Expenses",
		"Total Earnings: 1050.25 USD",
		"Total Expenses: 500.00 USD",
		"02/01/2024",
		`value="2024-03-15"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("index body missing %q", want)
		}
	}
	if strings.Index(body, "Bonus") > strings.Index(body, "Salary") {
		t.Fatal("earnings not newest first")
	}
	if rr.Header().Get("X-Frame-Options") != "DENY" || rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("middleware headers missing: %v", rr.Header())
	}
}

func TestIndexEmptyBoard(t *testing.T) {
	srv, _ := newTestServer(t, &fakeStore{})
	body := do(srv, http.MethodGet, "/", nil).Body.String()
	if !strings.Contains(body, "Total Earnings: 0.00 USD") || !strings.Contains(body, "No expenses yet") {
		t.Fatalf("unexpected empty board body")
	}
}

func TestHealthAndReady(t *testing.T) {
	store := &fakeStore{}
	srv, b := newTestServer(t, store)

	if rr := do(srv, http.MethodGet, "/healthz", nil); rr.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rr.Code)
	}
	if rr := do(srv, http.MethodGet, "/readyz", nil); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before load status=%d", rr.Code)
	}
	if err := b.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rr := do(srv, http.MethodGet, "/readyz", nil); rr.Code != http.StatusOK {
		t.Fatalf("readyz after load status=%d", rr.Code)
	}
}

func TestCreateTransactionFlow(t *testing.T) {
	tests := []struct {
		name       string
		form       url.Values
		createErr  error
		wantStatus int
		wantNotice string
		wantCreate int
	}{
		{
			name:       "missing title",
			form:       url.Values{"type": {"earning"}, "title": {""}, "amount": {"10"}, "date": {"2024-01-01"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantNotice: "Please fill in all fields",
		},
		{
			name:       "bad amount",
			form:       url.Values{"title": {"Lunch"}, "amount": {"abc"}, "date": {"2024-01-01"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantNotice: "Please enter a valid amount",
		},
		{
			name:       "bad type",
			form:       url.Values{"type": {"transfer"}, "title": {"x"}, "amount": {"1"}, "date": {"2024-01-01"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantNotice: "Please choose earning or expense",
		},
		{
			name:       "remote failure is silent",
			form:       url.Values{"title": {"Salary"}, "amount": {"1000"}, "date": {"2024-01-01"}},
			createErr:  errors.New("store down"),
			wantStatus: http.StatusSeeOther,
			wantCreate: 1,
		},
		{
			name:       "success",
			form:       url.Values{"type": {"expense"}, "title": {"Rent"}, "amount": {"500"}, "date": {"2024-01-02"}, "currency": {"EUR"}},
			wantStatus: http.StatusSeeOther,
			wantCreate: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{createErr: tt.createErr}
			srv, _ := newTestServer(t, store)

			rr := do(srv, http.MethodPost, "/transactions", tt.form)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status=%d want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantNotice != "" && !strings.Contains(rr.Body.String(), tt.wantNotice) {
				t.Fatalf("notice %q missing from body", tt.wantNotice)
			}
			if tt.wantStatus == http.StatusSeeOther && rr.Header().Get("Location") != "/" {
				t.Fatalf("redirect location = %q", rr.Header().Get("Location"))
			}
			if store.creates != tt.wantCreate {
				t.Fatalf("creates=%d want %d", store.creates, tt.wantCreate)
			}
		})
	}
}

func TestCreateKeepsFormOnRemoteFailure(t *testing.T) {
	store := &fakeStore{createErr: errors.New("store down")}
	srv, b := newTestServer(t, store)

	do(srv, http.MethodPost, "/transactions", url.Values{"title": {"Salary"}, "amount": {"1000"}, "date": {"2024-01-01"}})
	if f := b.Form(); f.Title != "Salary" || f.Amount != "1000" {
		t.Fatalf("form not kept: %+v", f)
	}
	if body := do(srv, http.MethodGet, "/", nil).Body.String(); !strings.Contains(body, `value="Salary"`) {
		t.Fatal("page should redisplay the pending title")
	}
}

func TestCreateRejectedFieldLeavesFormUntouched(t *testing.T) {
	store := &fakeStore{}
	srv, b := newTestServer(t, store)
	if err := b.SetFields(map[board.Field]string{board.FieldTitle: "Rent", board.FieldAmount: "500"}); err != nil {
		t.Fatalf("SetFields: %v", err)
	}

	rr := do(srv, http.MethodPost, "/transactions", url.Values{
		"title": {"Salary"}, "amount": {"1000"}, "date": {"2024-01-01"}, "currency": {"BTC"},
	})
	if rr.Code != http.StatusUnprocessableEntity || !strings.Contains(rr.Body.String(), "Please choose a supported currency") {
		t.Fatalf("status=%d", rr.Code)
	}
	if f := b.Form(); f.Title != "Rent" || f.Amount != "500" || f.Date != "2024-03-15" || f.Currency != core.USD {
		t.Fatalf("form changed by rejected post: %+v", f)
	}
	if store.creates != 0 {
		t.Fatalf("creates=%d", store.creates)
	}
}

func TestCurrencyAndSummary(t *testing.T) {
	store := &fakeStore{records: []core.Transaction{
		{Type: core.Earning, Title: "Salary", Amount: 1000, Date: core.NewDate(2024, 1, 1), Currency: core.USD},
	}}
	srv, b := newTestServer(t, store)
	_ = b.Refresh(context.Background())

	if rr := do(srv, http.MethodPost, "/currency", url.Values{"currency": {"JPY"}}); rr.Code != http.StatusSeeOther {
		t.Fatalf("currency status=%d", rr.Code)
	}
	if rr := do(srv, http.MethodPost, "/currency", url.Values{"currency": {"XYZ"}}); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad currency status=%d", rr.Code)
	}

	rr := do(srv, http.MethodGet, "/api/summary", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("summary status=%d", rr.Code)
	}
	var s aggregate.Summary
	if err := json.NewDecoder(rr.Body).Decode(&s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Currency != core.JPY || s.TotalEarnings != "1000.00" || len(s.Earnings) != 1 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestRefreshKeepsListOnFailure(t *testing.T) {
	store := &fakeStore{records: []core.Transaction{
		{Type: core.Expense, Title: "Rent", Amount: 500, Date: core.NewDate(2024, 1, 2), Currency: core.USD},
	}}
	srv, b := newTestServer(t, store)
	_ = b.Refresh(context.Background())

	store.listErr = errors.New("unreachable")
	if rr := do(srv, http.MethodPost, "/refresh", nil); rr.Code != http.StatusSeeOther {
		t.Fatalf("refresh status=%d", rr.Code)
	}
	if !strings.Contains(do(srv, http.MethodGet, "/", nil).Body.String(), "Rent") {
		t.Fatal("previous list should stay on screen")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, &fakeStore{})
	if rr := do(srv, http.MethodGet, "/transactions", nil); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("Rent\x00\x07 March\t"); got != "Rent March\t" {
		t.Fatalf("sanitizeInput = %q", got)
	}
}
