package httpclient

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iceymoss/board-crawler/pkg/xerr"
)

func TestClientSendsBrowserHeaders(t *testing.T) {
	var ua, lang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		lang = r.Header.Get("Accept-Language")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c, err := New(Config{})
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, DefaultUserAgent, ua)
	assert.Contains(t, lang, "zh-TW")
}

func TestClientNon2xxIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := New(Config{})
	require.NoError(t, err)

	_, err = c.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, xerr.ErrTransientFetch))
	assert.Contains(t, err.Error(), "http 503")
}

func TestClientTimeoutIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, err := New(Config{Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.Get(context.Background(), srv.URL, nil)
	assert.ErrorIs(t, err, xerr.ErrTransientFetch)
}

func TestClientKeepsCookies(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/set", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "over18", Value: "1", Path: "/"})
	})
	var got string
	mux.HandleFunc("/check", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("over18"); err == nil {
			got = c.Value
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(Config{})
	require.NoError(t, err)

	_, err = c.PostForm(context.Background(), srv.URL+"/set", url.Values{"yes": {"yes"}})
	require.NoError(t, err)
	_, err = c.Get(context.Background(), srv.URL+"/check", nil)
	require.NoError(t, err)
	assert.Equal(t, "1", got)
}
