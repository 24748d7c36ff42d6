package sdk

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestClassify(t *testing.T) {
	var gotContentType string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/classify" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":1}`))
	}))
	defer srv.Close()

	client := New(srv.URL)
	label, err := client.Classify(context.Background(), []byte("MZ...."))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if label != 1 {
		t.Errorf("label = %d, want 1", label)
	}
	if gotContentType != "application/octet-stream" {
		t.Errorf("content type = %q", gotContentType)
	}
	if string(gotBody) != "MZ...." {
		t.Errorf("body = %q", gotBody)
	}
}

func TestClassify_FailOpenResponse(t *testing.T) {
	// The service returns the benign verdict even on errors.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"result":0}`))
	}))
	defer srv.Close()

	label, err := New(srv.URL).Classify(context.Background(), []byte("junk"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if label != 0 {
		t.Errorf("label = %d, want 0", label)
	}
}

func TestClassifyFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":0}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "sample.bin")
	if err := os.WriteFile(path, []byte("MZ"), 0o600); err != nil {
		t.Fatal(err)
	}

	label, err := New(srv.URL).ClassifyFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ClassifyFile: %v", err)
	}
	if label != 0 {
		t.Errorf("label = %d, want 0", label)
	}
}

func TestClassifyFile_Missing(t *testing.T) {
	_, err := New("http://127.0.0.1:0").ClassifyFile(
		context.Background(), filepath.Join(t.TempDir(), "nope"),
	)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":"ok","checks":{"model":"ok"}}`))
	}))
	defer srv.Close()

	status, err := New(srv.URL).Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if status.Status != "ok" {
		t.Errorf("status = %q, want ok", status.Status)
	}
	if status.Checks["model"] != "ok" {
		t.Errorf("model check = %q, want ok", status.Checks["model"])
	}
}
