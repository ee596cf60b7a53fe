package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jersy/ariadne/internal/apperr"
)

func TestClient_FetchAll_ParsesAnalyzerResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.TargetPaths) != 0 {
			t.Fatalf("expected no target paths for FetchAll, got %v", req.TargetPaths)
		}
		json.NewEncoder(w).Encode(analyzeResponse{Classes: []ClassRecord{{FQN: "com.acme.Foo"}}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 60*time.Second, 600*time.Second)
	classes, err := c.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(classes) != 1 || classes[0].FQN != "com.acme.Foo" {
		t.Fatalf("unexpected classes: %+v", classes)
	}
}

func TestClient_FetchPaths_SendsTargetPaths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.TargetPaths) != 1 || req.TargetPaths[0] != "src/Foo.java" {
			t.Fatalf("unexpected target paths: %v", req.TargetPaths)
		}
		json.NewEncoder(w).Encode(analyzeResponse{Classes: nil})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 60*time.Second, 600*time.Second)
	_, err := c.FetchPaths(context.Background(), []string{"src/Foo.java"}, 60*time.Second)
	if err != nil {
		t.Fatalf("FetchPaths: %v", err)
	}
}

func TestClient_FetchAll_NonOKStatusIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 60*time.Second, 600*time.Second)
	_, err := c.FetchAll(context.Background())
	if err == nil {
		t.Fatal("expected error on non-200 response")
	}
	if !apperr.Is(err, apperr.Unavailable) {
		t.Fatalf("expected Unavailable, got %q", apperr.KindOf(err))
	}
}
