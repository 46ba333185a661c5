package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"

	"github.com/rodacerto/fuel-price-updater/internal/config"
	"github.com/rodacerto/fuel-price-updater/internal/store"
)

func useConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func supabaseConfig(url string) *config.Config {
	c := config.DefaultConfig()
	c.SupabaseURL = url
	c.SupabaseKey = "test-key"
	c.LogLevel = "disabled"
	return c
}

func newCommand() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	return cmd
}

func TestRunUpdateFailsOnRejectedWrite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"internal error"}`))
	}))
	t.Cleanup(srv.Close)
	useConfig(t, supabaseConfig(srv.URL))

	err := runUpdate(newCommand())

	var statusErr *store.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("runUpdate = %v, want *store.StatusError", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", statusErr.StatusCode)
	}
}

func TestRunUpdateSucceeds(t *testing.T) {
	var posts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)
	useConfig(t, supabaseConfig(srv.URL))

	if err := runUpdate(newCommand()); err != nil {
		t.Fatalf("runUpdate: %v", err)
	}
	if got := posts.Load(); got != 1 {
		t.Errorf("got %d requests, want 1", got)
	}
}

func TestRunUpdateRejectsInvalidConfig(t *testing.T) {
	c := config.DefaultConfig()
	c.LogLevel = "disabled"
	useConfig(t, c)

	if err := runUpdate(newCommand()); err == nil {
		t.Fatal("expected configuration error without supabase settings")
	}
}
