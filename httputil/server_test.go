// Copyright (c) 2023 BVK Chaitanya

package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"testing"
)

func TestServer(t *testing.T) {
	s, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
	id, err := s.StartTCP(ctx, addr)
	if err != nil {
		t.Fatal(err)
	}
	if addr.Port == 0 {
		t.Fatalf("want a kernel chosen port, got zero")
	}

	s.AddHandler("/hello", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "world")
	}))

	get := func() (int, string) {
		resp, err := http.Get(fmt.Sprintf("http://%s/hello", addr))
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(data)
	}

	if code, body := get(); code != http.StatusOK || body != "world" {
		t.Fatalf("want 200/world, got %d/%s", code, body)
	}

	if !s.RemoveHandler("/hello") {
		t.Fatalf("want true for a registered handler")
	}
	if s.RemoveHandler("/hello") {
		t.Fatalf("want false for a removed handler")
	}
	if code, _ := get(); code != http.StatusNotFound {
		t.Fatalf("want %d, got %d", http.StatusNotFound, code)
	}

	if err := s.Stop(id); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(id); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist, got %v", err)
	}
}

func TestOptionsCheck(t *testing.T) {
	if _, err := New(&Options{ReadyTimeout: -1}); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid, got %v", err)
	}
	if _, err := New(&Options{ReadyTimeout: 100, ReadyRetryInterval: 200}); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid, got %v", err)
	}
	s, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if s.opts.ReadHeaderTimeout == 0 {
		t.Fatalf("want a default read header timeout")
	}
}
