// Copyright (c) 2023 BVK Chaitanya

package cmdutil

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bvk/ladderbot/api"
	"github.com/bvk/ladderbot/server"
)

type echoRequest struct {
	Name string
}

type echoResponse struct {
	Hello string
}

func newClientFlags(t *testing.T, srv *httptest.Server) *ClientFlags {
	host, port, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOME", t.TempDir())

	cf := new(ClientFlags)
	fset := flag.NewFlagSet("test", flag.ContinueOnError)
	cf.SetFlags(fset)
	args := []string{
		"-connect-host", host,
		"-connect-port", port,
	}
	if err := fset.Parse(args); err != nil {
		t.Fatal(err)
	}
	return cf
}

func TestPostWithBearerToken(t *testing.T) {
	const key = "0123456789abcdef0123456789abcdef"
	t.Setenv(server.EnvAPISigningKey, key)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := api.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			http.Error(w, "no token", http.StatusUnauthorized)
			return
		}
		if _, err := api.VerifyToken([]byte(key), token, time.Now()); err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		req := new(echoRequest)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(&echoResponse{Hello: req.Name})
	}))
	defer srv.Close()

	cf := newClientFlags(t, srv)
	resp, err := Post[echoResponse](context.Background(), cf, "/echo", &echoRequest{Name: "btc"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Hello != "btc" {
		t.Fatalf("want btc, got %q", resp.Hello)
	}
}

func TestPostErrorStatus(t *testing.T) {
	t.Setenv(server.EnvAPISigningKey, "")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(r.Header.Get("Authorization")) != 0 {
			t.Errorf("want no authorization header without a key")
		}
		http.Error(w, "pair not found", http.StatusNotFound)
	}))
	defer srv.Close()

	cf := newClientFlags(t, srv)
	_, err := Post[echoResponse](context.Background(), cf, "/echo", &echoRequest{})
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("want 404 error, got %v", err)
	}
}

func TestPort(t *testing.T) {
	cf := new(ClientFlags)
	t.Setenv(EnvServerPort, "")
	if p := cf.Port(); p != 10000 {
		t.Fatalf("want 10000, got %d", p)
	}
	t.Setenv(EnvServerPort, strconv.Itoa(12345))
	if p := cf.Port(); p != 12345 {
		t.Fatalf("want 12345, got %d", p)
	}
}

func TestServerAddress(t *testing.T) {
	sf := &ServerFlags{IP: "127.0.0.1", Port: 10000}
	if _, err := sf.Address(); err != nil {
		t.Fatal(err)
	}
	sf.IP = "localhost:1"
	if _, err := sf.Address(); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid, got %v", err)
	}
}

func TestDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	abs, err := DataDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(abs); err != nil || !fi.IsDir() {
		t.Fatalf("want a directory at %q, got %v", abs, err)
	}
}
