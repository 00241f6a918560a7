package capture

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var article = "<html><head><title>t</title><script>var x = 1;</script></head><body><ul>" +
	strings.Repeat("<li class=\"comment\">Plenty of readable words in this comment body.</li>", 12) +
	"</ul></body></html>"

const shell = `<html><head><script src="/app.js"></script></head><body><div id="root"></div>` +
	`<noscript>You need to enable JavaScript to run this app.</noscript></body></html>`

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ua-test", r.UserAgent())
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(article))
	})
	mux.HandleFunc("/shell", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(shell))
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type fakeRenderer struct {
	calls int
	err   error
}

func (f *fakeRenderer) Render(_ context.Context, pageURL string) (*Snapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return NewSnapshot(pageURL, []byte("<html><body><p>rendered</p></body></html>"), MethodBrowser), nil
}

func (f *fakeRenderer) Close() error { return nil }

func TestFetcher_Fetch(t *testing.T) {
	srv := testServer(t)
	f := NewFetcher(WithUserAgent("ua-test"))

	res, err := f.Fetch(context.Background(), srv.URL+"/article")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, res.Sufficient)
	assert.Equal(t, "text/html; charset=utf-8", res.ContentType)
	assert.Equal(t, article, string(res.Snapshot.HTML))
	assert.Equal(t, HashHTML([]byte(article)), res.Snapshot.Hash)
	assert.Equal(t, MethodHTTP, res.Snapshot.Method)
	assert.True(t, strings.HasPrefix(res.Snapshot.ID, "snap_"))
}

func TestFetcher_ErrorStatus(t *testing.T) {
	srv := testServer(t)
	_, err := NewFetcher().Fetch(context.Background(), srv.URL+"/gone")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusGone, se.Code)
}

func TestIsSufficient(t *testing.T) {
	assert.True(t, IsSufficient([]byte(article)))
	assert.False(t, IsSufficient([]byte(shell)), "spa shell")
	assert.False(t, IsSufficient([]byte("<p>short</p>")), "short")

	scripty := "<html><body><script>" + strings.Repeat("var a = 'some text';", 200) + "</script><p>hi</p></body></html>"
	assert.False(t, IsSufficient([]byte(scripty)), "script text is not visible")
}

func TestCapturer_Modes(t *testing.T) {
	srv := testServer(t)
	ctx := context.Background()

	t.Run("auto keeps sufficient http body", func(t *testing.T) {
		r := &fakeRenderer{}
		c, err := New(Config{UserAgent: "ua-test"}, WithRenderer(r))
		require.NoError(t, err)
		snap, err := c.Capture(ctx, srv.URL+"/article")
		require.NoError(t, err)
		assert.Equal(t, MethodHTTP, snap.Method)
		assert.Zero(t, r.calls)
	})

	t.Run("auto renders spa shells", func(t *testing.T) {
		r := &fakeRenderer{}
		c, err := New(Config{}, WithRenderer(r))
		require.NoError(t, err)
		snap, err := c.Capture(ctx, srv.URL+"/shell")
		require.NoError(t, err)
		assert.Equal(t, MethodBrowser, snap.Method)
		assert.Equal(t, 1, r.calls)
	})

	t.Run("auto falls back when rendering fails", func(t *testing.T) {
		r := &fakeRenderer{err: errors.New("no chrome")}
		c, err := New(Config{}, WithRenderer(r))
		require.NoError(t, err)
		snap, err := c.Capture(ctx, srv.URL+"/shell")
		require.NoError(t, err)
		assert.Equal(t, MethodHTTP, snap.Method)
	})

	t.Run("http never renders", func(t *testing.T) {
		r := &fakeRenderer{}
		c, err := New(Config{Mode: ModeHTTP}, WithRenderer(r))
		require.NoError(t, err)
		_, err = c.Capture(ctx, srv.URL+"/shell")
		require.NoError(t, err)
		assert.Zero(t, r.calls)

		_, err = c.Capture(ctx, srv.URL+"/gone")
		assert.Error(t, err)
	})

	t.Run("browser always renders", func(t *testing.T) {
		r := &fakeRenderer{}
		c, err := New(Config{Mode: ModeBrowser}, WithRenderer(r))
		require.NoError(t, err)
		_, err = c.Capture(ctx, srv.URL+"/article")
		require.NoError(t, err)
		assert.Equal(t, 1, r.calls)
	})
}

func TestCapturer_Sanitize(t *testing.T) {
	srv := testServer(t)
	c, err := New(Config{Mode: ModeHTTP, UserAgent: "ua-test", Sanitize: true})
	require.NoError(t, err)
	snap, err := c.Capture(context.Background(), srv.URL+"/article")
	require.NoError(t, err)
	assert.NotContains(t, string(snap.HTML), "<script")
	assert.Contains(t, string(snap.HTML), `class="comment"`)
	assert.Equal(t, HashHTML(snap.HTML), snap.Hash)
}

func TestSanitize(t *testing.T) {
	out := string(Sanitize([]byte(`<div class="c" onclick="x()"><time datetime="2024-01-01">now</time><script>bad()</script></div>`)))
	assert.Contains(t, out, `<div class="c">`)
	assert.Contains(t, out, `<time datetime="2024-01-01">now</time>`)
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "bad()")
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeAuto, m)
	m, err = ParseMode("browser")
	require.NoError(t, err)
	assert.Equal(t, ModeBrowser, m)
	_, err = ParseMode("carrier-pigeon")
	assert.Error(t, err)

	_, err = New(Config{Mode: "x"})
	assert.Error(t, err)
}

func TestShouldBlock(t *testing.T) {
	block := map[string]bool{"images": true, "fonts": true, "xhr": true}
	assert.True(t, shouldBlock(block, "Image"))
	assert.True(t, shouldBlock(block, "Font"))
	assert.True(t, shouldBlock(block, "XHR"))
	assert.False(t, shouldBlock(block, "Stylesheet"))
	assert.False(t, shouldBlock(block, "Document"))
}

func TestBrowser_ClosedBeforeUse(t *testing.T) {
	b := NewBrowser(BrowserConfig{})
	require.NoError(t, b.Close())
	_, err := b.Render(context.Background(), "http://example.invalid")
	assert.ErrorIs(t, err, ErrBrowserClosed)
}

type staticResolver map[string][]string

func (r staticResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	if addrs, ok := r[host]; ok {
		return addrs, nil
	}
	return nil, errors.New("no such host")
}

func TestCheckURL(t *testing.T) {
	ctx := context.Background()
	r := staticResolver{
		"public.example":   {"93.184.216.34"},
		"internal.example": {"93.184.216.34", "10.1.2.3"},
	}

	assert.ErrorIs(t, CheckURL(ctx, "ftp://public.example/", true, r), ErrUnsafeScheme)
	assert.Error(t, CheckURL(ctx, "http:///nohost", false, r))
	assert.NoError(t, CheckURL(ctx, "http://127.0.0.1/", false, r))

	assert.NoError(t, CheckURL(ctx, "https://public.example/t/1", true, r))
	assert.ErrorIs(t, CheckURL(ctx, "https://internal.example/", true, r), ErrPrivateTarget)
	assert.ErrorIs(t, CheckURL(ctx, "http://127.0.0.1:8080/", true, r), ErrPrivateTarget)
	assert.ErrorIs(t, CheckURL(ctx, "http://[::ffff:192.168.1.1]/", true, r), ErrPrivateTarget)
	assert.ErrorIs(t, CheckURL(ctx, "http://169.254.169.254/latest", true, r), ErrPrivateTarget)
	// unresolvable hosts fail later, at fetch time
	assert.NoError(t, CheckURL(ctx, "http://unknown.example/", true, r))
}

func TestCapturer_BlockPrivate(t *testing.T) {
	srv := testServer(t)
	c, err := New(Config{Mode: ModeHTTP, BlockPrivate: true, UserAgent: "ua-test"})
	require.NoError(t, err)

	_, err = c.Capture(context.Background(), srv.URL+"/article")
	assert.ErrorIs(t, err, ErrPrivateTarget)
}
