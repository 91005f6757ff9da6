package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/TamimulAhsan/sentineliam/core/policy"
)

type recordingObserver struct {
	mu  sync.Mutex
	ops []string
}

func (o *recordingObserver) ObserveStoreRequest(op, status string, _ float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, op+"/"+status)
}

func TestListPolicies(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/policies/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 1, "name": "s3-read", "entity_name": "data-pipeline", "platform": "aws", "risk_score": 15},
			{"id": "b-2", "name": "vm-operator", "platform": "azure", "risk_score": 45}
		]`))
	}))
	defer srv.Close()

	c := New(srv.URL, StaticToken("secret-token"))
	records, err := c.ListPolicies(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if len(records) != 2 || records[0].ID != "1" || records[1].ID != "b-2" {
		t.Fatalf("unexpected records %#v", records)
	}
	if records[1].Platform != policy.PlatformAzure {
		t.Fatalf("unexpected platform %s", records[1].Platform)
	}
}

func TestPatchDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/policies/7/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if _, ok := body["document"]; !ok {
			t.Errorf("patch body must wrap the document: %#v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 7, "name": "admin-all", "platform": "aws", "document": {}, "risk_score": 5, "is_vulnerable": false}`))
	}))
	defer srv.Close()

	c := New(srv.URL, StaticToken("t"))
	rec, err := c.PatchDocument(context.Background(), "7", map[string]any{"Version": "2012-10-17"})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if rec.ID != "7" || rec.RiskScore != 5 || rec.IsVulnerable {
		t.Fatalf("unexpected record %#v", rec)
	}
}

func TestPatchValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "Statement must be an array"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, StaticToken("t"))
	_, err := c.PatchDocument(context.Background(), "7", map[string]any{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Message != "Statement must be an array" {
		t.Fatalf("server message must be carried verbatim, got %q", verr.Message)
	}
}

func TestErrorWithoutBodyFallsBackToStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, StaticToken("t"))
	_, err := c.ListPolicies(context.Background())
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if terr.Status != http.StatusBadGateway || terr.Message == "" {
		t.Fatalf("expected status-line fallback, got %#v", terr)
	}
}

func TestBadRequestWithoutMessageIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL, StaticToken("t"))
	_, err := c.PatchDocument(context.Background(), "7", map[string]any{})
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("a 400 without a server message is not a validation error: %v", err)
	}
}

func TestDeletePolicy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/policies/b-2/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, StaticToken("t"))
	if err := c.DeletePolicy(context.Background(), "b-2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	c := New(srv.URL, StaticToken("t"))
	_, err := c.ListPolicies(context.Background())
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestObserverSeesEveryRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	c := New(srv.URL, StaticToken("t"))
	c.Observer = obs

	if _, err := c.ListPolicies(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := c.DeletePolicy(context.Background(), "1"); err == nil {
		t.Fatalf("expected delete error")
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.ops) != 2 || obs.ops[0] != "list/ok" || obs.ops[1] != "delete/error" {
		t.Fatalf("unexpected observations %v", obs.ops)
	}
}

func TestEmptyID(t *testing.T) {
	c := New("http://127.0.0.1:0", StaticToken("t"))
	if _, err := c.PatchDocument(context.Background(), "", nil); err == nil {
		t.Fatalf("expected error for empty id on patch")
	}
	if err := c.DeletePolicy(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty id on delete")
	}
}
