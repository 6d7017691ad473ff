package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestDo_UserAgentAndPostDefaults(t *testing.T) {
	t.Setenv("BSE_UA", "test-agent/1.0")
	var gotUA, gotCT string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCT = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cl, err := New(Options{Timeout: 2 * time.Second})
	if err != nil { t.Fatalf("new client: %v", err) }
	resp, err := cl.Do(context.Background(), Request{URL: srv.URL, Method: "post", Body: "a=1"})
	if err != nil { t.Fatalf("do: %v", err) }
	if !resp.Success || resp.Data != "ok" { t.Fatalf("resp = %+v", resp) }
	if gotUA != "test-agent/1.0" { t.Fatalf("user-agent = %q", gotUA) }
	if gotCT != "application/x-www-form-urlencoded" { t.Fatalf("content-type = %q", gotCT) }
}

func TestDo_RetryOnStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cl, err := New(Options{Retry: 1, Timeout: 2 * time.Second})
	if err != nil { t.Fatalf("new client: %v", err) }
	resp, err := cl.Do(context.Background(), Request{URL: srv.URL})
	if err != nil { t.Fatalf("do: %v", err) }
	if !resp.Success || resp.Data != "ok" { t.Fatalf("resp = %+v", resp) }
	if n := atomic.LoadInt32(&calls); n != 2 { t.Fatalf("calls = %d, want 2", n) }
}

func TestDo_ExhaustedRetriesFoldIntoResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cl, err := New(Options{Retry: 1, Timeout: 2 * time.Second})
	if err != nil { t.Fatalf("new client: %v", err) }
	resp, err := cl.Do(context.Background(), Request{URL: srv.URL})
	if err != nil { t.Fatalf("do should not error: %v", err) }
	if resp.Success || !strings.Contains(resp.Error, "http status") { t.Fatalf("resp = %+v", resp) }
}

func TestDo_DecodeGBK(t *testing.T) {
	gbk := []byte{0xC4, 0xE3, 0xBA, 0xC3} // 你好
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=GBK")
		_, _ = w.Write(gbk)
	}))
	defer srv.Close()

	cl, err := New(Options{Timeout: 2 * time.Second})
	if err != nil { t.Fatalf("new client: %v", err) }
	resp, err := cl.Do(context.Background(), Request{URL: srv.URL})
	if err != nil || !resp.Success { t.Fatalf("do: %v %+v", err, resp) }
	if resp.Data != "你好" { t.Fatalf("data = %q", resp.Data) }
}

func TestDo_CharsetHintBeatsMissingHeader(t *testing.T) {
	gbk := []byte{0xC4, 0xE3, 0xBA, 0xC3}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(gbk)
	}))
	defer srv.Close()

	cl, err := New(Options{Timeout: 2 * time.Second})
	if err != nil { t.Fatalf("new client: %v", err) }
	resp, err := cl.Do(context.Background(), Request{URL: srv.URL, Charset: "gbk"})
	if err != nil || !resp.Success { t.Fatalf("do: %v %+v", err, resp) }
	if resp.Data != "你好" { t.Fatalf("data = %q", resp.Data) }
}
