package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shein_sen/internal/config"
	"shein_sen/internal/utils"
)

func TestCheckReachableProduct(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	c := New(config.ProbeConfig{TimeoutMs: 2000}, utils.DefaultDesktopUserAgent())
	if err := c.Check(context.Background(), srv.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gotUA, "Chrome") {
		t.Fatalf("probe sent UA %q, want the browser user agent", gotUA)
	}
}

func TestCheckHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(config.ProbeConfig{TimeoutMs: 2000}, utils.DefaultDesktopUserAgent())
	err := c.Check(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("404 must fail the probe")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Fatalf("error %q does not carry the status", err)
	}
}

func TestCheckRejectsRelativeURL(t *testing.T) {
	c := New(config.ProbeConfig{}, utils.DefaultDesktopUserAgent())
	if err := c.Check(context.Background(), "/fr/item/123.html"); err == nil {
		t.Fatal("relative URL must be rejected without a request")
	}
}

func TestCheckUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // connection refused from here on

	c := New(config.ProbeConfig{TimeoutMs: 500}, utils.DefaultDesktopUserAgent())
	if err := c.Check(context.Background(), url); err == nil {
		t.Fatal("refused connection must fail the probe")
	}
}
