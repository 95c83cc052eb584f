package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/use-agent/serpscout/config"
	"github.com/use-agent/serpscout/storage"
)

func TestReadKeywords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.txt")
	content := "# products\nwireless mouse\n\n  mechanical keyboard  \n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := readKeywords(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"wireless mouse", "mechanical keyboard"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}

	if _, err := readKeywords(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestOpenStorage(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		backend string
		path    string
		wantErr bool
	}{
		{"json", filepath.Join(dir, "records.json"), false},
		{"sqlite", filepath.Join(dir, "records.db"), false},
		{"none", "", false},
		{"redis", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			store, err := openStorage(config.StorageConfig{Backend: tt.backend, Path: tt.path})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if store != nil {
				store.Close()
			}
		})
	}
}

func TestBuildService_NoProviders(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{Backend: "none"},
	}
	if _, _, err := buildService(cfg); err == nil {
		t.Fatal("expected an error with the browser disabled and no API keys")
	}
}

func TestBuildService_APIOnly(t *testing.T) {
	cfg := &config.Config{
		Providers: config.ProvidersConfig{
			SerpAPI: config.SerpAPIConfig{APIKey: "k", BaseURL: "http://127.0.0.1:1"},
		},
		Storage: config.StorageConfig{Backend: "none"},
	}
	svc, store, err := buildService(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if _, ok := store.(storage.Nop); !ok {
		t.Errorf("expected Nop store, got %T", store)
	}
	if got := svc.Providers(); !reflect.DeepEqual(got, []string{"serpapi"}) {
		t.Errorf("providers = %v", got)
	}
}
