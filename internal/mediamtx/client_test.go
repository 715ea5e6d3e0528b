package mediamtx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/paths/list", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"itemCount":1,"items":[{"name":"cam","source":{"type":"rpiCameraSource"},"ready":true,"tracks":["H264"]}]}`))
	})
	mux.HandleFunc("/v3/paths/get/cam", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name":"cam","ready":false}`))
	})
	mux.HandleFunc("/v3/paths/get/", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"path not found"}`, http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestListPaths(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL)

	paths, err := client.ListPaths(context.Background())
	if err != nil {
		t.Fatalf("ListPaths failed: %v", err)
	}
	if len(paths) != 1 || paths[0].Name != "cam" || !paths[0].Ready {
		t.Fatalf("unexpected paths: %+v", paths)
	}
	if paths[0].Source == nil || paths[0].Source.Type != "rpiCameraSource" {
		t.Errorf("unexpected source: %+v", paths[0].Source)
	}
}

func TestGetPath(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL)

	info, err := client.GetPath(context.Background(), "cam")
	if err != nil {
		t.Fatalf("GetPath failed: %v", err)
	}
	if info.Name != "cam" || info.Ready {
		t.Errorf("unexpected info: %+v", info)
	}

	_, err = client.GetPath(context.Background(), "garage")
	if !errors.Is(err, ErrPathNotFound) {
		t.Errorf("expected ErrPathNotFound, got %v", err)
	}
}

func TestAvailable(t *testing.T) {
	srv := newTestServer(t)
	if !NewClient(srv.URL).Available(context.Background()) {
		t.Error("expected API to be available")
	}

	srv.Close()
	if NewClient(srv.URL).Available(context.Background()) {
		t.Error("expected API to be unavailable after close")
	}
}
