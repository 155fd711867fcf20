package storeapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tracker/internal/core"
	"tracker/internal/remote"
	"tracker/internal/store"
	"tracker/internal/store/memory"
)

type failingBackend struct{ store.Backend }

var errDisk = errors.New("disk full")

func (failingBackend) Create(context.Context, core.Transaction) (store.Record, error) {
	return store.Record{}, errDisk
}

func (failingBackend) List(context.Context) ([]store.Record, error) { return nil, errDisk }

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestCreateAndList(t *testing.T) {
	srv := NewServer(":0", memory.New(), nil)

	rr := do(t, srv, http.MethodPost, "/api/transactions/", `{"type":"earning","title":" Salary ","amount":1000.5,"date":"2024-01-01","currency":"eur"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	var created store.Record
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID != 1 || created.Title != "Salary" || created.Currency != core.EUR {
		t.Fatalf("created = %+v", created)
	}

	rr = do(t, srv, http.MethodPost, "/api/transactions", `{"type":"expense","title":"Rent","amount":"500","date":"2024-01-02"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create without slash status=%d body=%s", rr.Code, rr.Body.String())
	}

	for _, path := range []string{"/api/transactions/", "/api/transactions"} {
		rr = do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		var list []store.Record
		if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
			t.Fatalf("decode list: %v", err)
		}
		if len(list) != 2 || list[1].Currency != core.USD || list[1].Amount != 500 {
			t.Fatalf("list = %+v", list)
		}
	}
}

func TestListEmptyIsArray(t *testing.T) {
	srv := NewServer(":0", memory.New(), nil)
	rr := do(t, srv, http.MethodGet, "/api/transactions/", "")
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("body = %q", rr.Body.String())
	}
	if rr.Header().Get("Cache-Control") == "" {
		t.Fatal("API responses must not be cached")
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{"type":`},
		{"unknown type", `{"type":"transfer","title":"x","amount":1,"date":"2024-01-01"}`},
		{"blank title", `{"type":"earning","title":"  ","amount":1,"date":"2024-01-01"}`},
		{"bad amount", `{"type":"earning","title":"x","amount":"abc","date":"2024-01-01"}`},
		{"missing date", `{"type":"earning","title":"x","amount":1}`},
		{"bad date", `{"type":"earning","title":"x","amount":1,"date":"01/01/2024"}`},
		{"bad currency", `{"type":"earning","title":"x","amount":1,"date":"2024-01-01","currency":"XYZ"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := memory.New()
			srv := NewServer(":0", backend, nil)
			rr := do(t, srv, http.MethodPost, "/api/transactions/", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
			}
			var body map[string]string
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil || body["error"] == "" {
				t.Fatalf("error body: %v %v", body, err)
			}
			if list, _ := backend.List(context.Background()); len(list) != 0 {
				t.Fatal("nothing should be stored")
			}
		})
	}
}

func TestStorageFailures(t *testing.T) {
	srv := NewServer(":0", failingBackend{}, nil)
	if rr := do(t, srv, http.MethodGet, "/api/transactions/", ""); rr.Code != http.StatusInternalServerError {
		t.Fatalf("list status=%d", rr.Code)
	}
	rr := do(t, srv, http.MethodPost, "/api/transactions/", `{"type":"earning","title":"x","amount":1,"date":"2024-01-01"}`)
	if rr.Code != http.StatusInternalServerError || strings.Contains(rr.Body.String(), "disk full") {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["request_id"] == "" || body["request_id"] != rr.Header().Get("X-Request-ID") {
		t.Fatalf("error body should carry the request id: %v", body)
	}
}

func TestWriteLimit(t *testing.T) {
	srv := NewServer(":0", memory.New(), nil, WithWriteLimit(1))
	body := `{"type":"earning","title":"x","amount":1,"date":"2024-01-01"}`

	if rr := do(t, srv, http.MethodPost, "/api/transactions/", body); rr.Code != http.StatusCreated {
		t.Fatalf("first create status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPost, "/api/transactions/", body); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second create status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/transactions/", ""); rr.Code != http.StatusOK {
		t.Fatalf("reads are not limited, status=%d", rr.Code)
	}

	var health healthResponse
	if err := json.NewDecoder(do(t, srv, http.MethodGet, "/healthz", "").Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.RateLimited != 1 || health.LimitedClients != 1 {
		t.Fatalf("health = %+v", health)
	}
}

func TestHealthReportsCounters(t *testing.T) {
	srv := NewServer(":0", failingBackend{}, nil)
	do(t, srv, http.MethodGet, "/api/transactions/", "")

	rr := do(t, srv, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rr.Code)
	}
	var health healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// The health request itself is counted before the handler runs.
	if health.Status != "ok" || health.Requests != 2 || health.ServerErrors != 1 || health.RateLimited != 0 {
		t.Fatalf("health = %+v", health)
	}
}

// The board's client and this server agree on the wire format.
func TestRemoteClientRoundTrip(t *testing.T) {
	api := httptest.NewServer(NewServer(":0", memory.New(), nil).Handler)
	defer api.Close()

	c, err := remote.New(api.URL)
	if err != nil {
		t.Fatalf("remote.New: %v", err)
	}
	ctx := context.Background()
	want := core.Transaction{Type: core.Expense, Title: "Rent", Amount: 500.25, Date: core.NewDate(2024, 1, 2), Currency: core.GBP}
	if err := c.CreateTransaction(ctx, want); err != nil {
		t.Fatalf("create: %v", err)
	}
	list, err := c.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0] != want {
		t.Fatalf("list = %+v", list)
	}

	var we *remote.WriteError
	err = c.CreateTransaction(ctx, core.Transaction{Type: core.Expense, Amount: 1, Date: core.NewDate(2024, 1, 2), Currency: core.USD})
	if !errors.As(err, &we) || we.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected WriteError 400, got %v", err)
	}
}
