package caldav

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const multistatusTwoCalendars = `<?xml version="1.0" encoding="utf-8"?>
<d:multistatus xmlns:d="DAV:" xmlns:cal="urn:ietf:params:xml:ns:caldav">
  <d:response>
    <d:href>/dav/calendars/user/</d:href>
    <d:propstat>
      <d:prop>
        <d:resourcetype><d:collection/></d:resourcetype>
      </d:prop>
      <d:status>HTTP/1.1 200 OK</d:status>
    </d:propstat>
  </d:response>
  <d:response>
    <d:href>/dav/calendars/user/personal/</d:href>
    <d:propstat>
      <d:prop>
        <d:resourcetype><d:collection/><cal:calendar/></d:resourcetype>
        <d:displayname>Personal</d:displayname>
      </d:prop>
      <d:status>HTTP/1.1 200 OK</d:status>
    </d:propstat>
  </d:response>
  <d:response>
    <d:href>/dav/calendars/user/work/</d:href>
    <d:propstat>
      <d:prop>
        <d:resourcetype><d:collection/><cal:calendar/></d:resourcetype>
        <d:displayname>Work</d:displayname>
      </d:prop>
      <d:status>HTTP/1.1 200 OK</d:status>
    </d:propstat>
  </d:response>
</d:multistatus>`

func TestFindCalendars(t *testing.T) {
	t.Run("returns calendar hrefs in document order", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != "PROPFIND" {
				t.Errorf("expected PROPFIND, got %s", r.Method)
			}
			if got := r.Header.Get("Depth"); got != "1" {
				t.Errorf("expected Depth 1, got %q", got)
			}
			body, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(body), "supported-calendar-component-set") {
				t.Errorf("request body missing expected property: %s", body)
			}
			w.WriteHeader(http.StatusMultiStatus)
			w.Write([]byte(multistatusTwoCalendars))
		}))
		defer srv.Close()

		client := NewClientWithHTTP(srv.Client(), "user", "pass")
		hrefs, err := client.FindCalendars(context.Background(), srv.URL+"/dav/")
		if err != nil {
			t.Fatalf("FindCalendars failed: %v", err)
		}

		want := []string{"/dav/calendars/user/personal/", "/dav/calendars/user/work/"}
		if len(hrefs) != len(want) {
			t.Fatalf("expected %d hrefs, got %d: %v", len(want), len(hrefs), hrefs)
		}
		for i := range want {
			if hrefs[i] != want[i] {
				t.Errorf("href %d: got %q, want %q", i, hrefs[i], want[i])
			}
		}
	})

	t.Run("retries once with toggled trailing slash", func(t *testing.T) {
		var paths []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path)
			if !strings.HasSuffix(r.URL.Path, "/") {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusMultiStatus)
			w.Write([]byte(multistatusTwoCalendars))
		}))
		defer srv.Close()

		client := NewClientWithHTTP(srv.Client(), "user", "pass")
		hrefs, err := client.FindCalendars(context.Background(), srv.URL+"/dav")
		if err != nil {
			t.Fatalf("FindCalendars failed after retry: %v", err)
		}
		if len(hrefs) != 2 {
			t.Errorf("expected 2 hrefs, got %d", len(hrefs))
		}
		if len(paths) != 2 || paths[0] != "/dav" || paths[1] != "/dav/" {
			t.Errorf("unexpected request paths: %v", paths)
		}
	})

	t.Run("fails when both attempts fail", func(t *testing.T) {
		count := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			count++
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		client := NewClientWithHTTP(srv.Client(), "user", "wrong")
		_, err := client.FindCalendars(context.Background(), srv.URL+"/dav/")
		if !errors.Is(err, ErrInvalidResponse) {
			t.Fatalf("expected ErrInvalidResponse, got %v", err)
		}
		if count != 2 {
			t.Errorf("expected exactly 2 attempts, got %d", count)
		}
	})

	t.Run("rejects malformed XML", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusMultiStatus)
			w.Write([]byte("<d:multistatus><unclosed"))
		}))
		defer srv.Close()

		client := NewClientWithHTTP(srv.Client(), "user", "pass")
		_, err := client.FindCalendars(context.Background(), srv.URL+"/dav/")
		if !errors.Is(err, ErrMalformedContent) {
			t.Fatalf("expected ErrMalformedContent, got %v", err)
		}
	})

	t.Run("sends basic auth credentials", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != "alice" || pass != "secret" {
				t.Errorf("missing or wrong credentials: %q %q", user, pass)
			}
			w.WriteHeader(http.StatusMultiStatus)
			w.Write([]byte(multistatusTwoCalendars))
		}))
		defer srv.Close()

		client := NewClientWithHTTP(srv.Client(), "alice", "secret")
		if _, err := client.FindCalendars(context.Background(), srv.URL+"/dav/"); err != nil {
			t.Fatalf("FindCalendars failed: %v", err)
		}
	})
}
