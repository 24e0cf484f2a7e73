package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/kagerou/wg-monitor/peer"
)

func TestDispatchURLOnlyRetriesThenSucceeds(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 10 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d, err := NewDispatcher(ModeURLOnly, "", []string{srv.URL}, "")
	if err != nil {
		t.Fatal(err)
	}
	d.postOneDelay = 0
	ok := d.Dispatch(context.Background(), []string{"hello"}, 0, peer.Buckets{}, "subject")
	if !ok {
		t.Fatal("Dispatch() = false; want true after eventual success")
	}
	if attempts != 10 {
		t.Fatalf("attempts = %d; want exactly 10", attempts)
	}
}

func TestDispatch404IsTerminal(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d, err := NewDispatcher(ModeURLOnly, "", []string{srv.URL}, "")
	if err != nil {
		t.Fatal(err)
	}
	d.postOneDelay = 0
	ok := d.Dispatch(context.Background(), []string{"hello"}, 0, peer.Buckets{}, "subject")
	if ok {
		t.Fatal("Dispatch() = true; want false for 404")
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d; want exactly 1 (no retry on 404)", attempts)
	}
}

func TestDispatchSubjectPrefixAndContentLength(t *testing.T) {
	var gotBody string
	var gotLength int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLength = r.ContentLength
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d, err := NewDispatcher(ModeURLOnly, "", []string{srv.URL}, "")
	if err != nil {
		t.Fatal(err)
	}
	d.Dispatch(context.Background(), []string{"line one", "line two"}, 0, peer.Buckets{}, "sub")
	want := "Subject: sub\nline one\nline two"
	if gotBody != want {
		t.Fatalf("body = %q; want %q", gotBody, want)
	}
	if gotLength != int64(len(want)) {
		t.Fatalf("Content-Length = %d; want %d", gotLength, len(want))
	}
}

func TestDispatchDryRunAlwaysSucceedsNoSideEffects(t *testing.T) {
	d := &Dispatcher{DryRun: true}
	ok := d.Dispatch(context.Background(), []string{"x"}, 0, peer.Buckets{}, "s")
	if !ok {
		t.Fatal("Dispatch() = false for dry run; want true")
	}
}

func TestDispatchCommandOnlyPassesPositionalArgs(t *testing.T) {
	dir := t.TempDir()
	script := dir + "/record.sh"
	outPath := dir + "/record.out"
	scriptBody := "#!/bin/sh\n" +
		"printf '%s\\037%s\\037%s\\037%s\\037%s\\037%s' \"$1\" \"$2\" \"$3\" \"$4\" \"$5\" \"$6\" > '" + outPath + "'\n" +
		"exit 0\n"
	if err := os.WriteFile(script, []byte(scriptBody), 0o700); err != nil {
		t.Fatal(err)
	}

	b := peer.Buckets{JustLost: []*peer.Peer{{Key: "A==="}}, Present: []*peer.Peer{{Key: "B==="}}}
	d, err := NewDispatcher(ModeCommandOnly, script, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	ok := d.Dispatch(context.Background(), []string{"body text"}, 3, b, "s")
	if !ok {
		t.Fatal("Dispatch() = false; want true")
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	want := "body text\x1f3\x1fA===\x1f\x1f\x1fB==="
	if string(data) != want {
		t.Fatalf("recorded args = %q; want %q", data, want)
	}
}
