package icon

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fakeJPEG = []byte{0xff, 0xd8, 0xff, 0xe0, 'J', 'F', 'I', 'F', 0x00}

// metadataServer serves /app/<id>/ pages pointing at /img/<id>.jpg and counts page hits.
type metadataServer struct {
	*httptest.Server
	pageHits atomic.Int32
	page     func(id string) (int, string)
}

func iconPage(id string) (int, string) {
	return http.StatusOK, fmt.Sprintf(`<html><body>
<div class="header"><img class="app-logo" src="/img/logo.png">
<img class="app-icon avatar" src="/img/%s.jpg" alt="icon"></div></body></html>`, id)
}

func newMetadataServer(t *testing.T, page func(id string) (int, string)) *metadataServer {
	t.Helper()
	if page == nil {
		page = iconPage
	}
	ms := &metadataServer{page: page}
	mux := http.NewServeMux()
	mux.HandleFunc("/app/{id}/", func(w http.ResponseWriter, r *http.Request) {
		ms.pageHits.Add(1)
		if r.Header.Get("User-Agent") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		code, body := ms.page(r.PathValue("id"))
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("/img/{name}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(fakeJPEG)
	})
	ms.Server = httptest.NewServer(mux)
	t.Cleanup(ms.Close)
	return ms
}

func newTestResolver(t *testing.T, ms *metadataServer) *Resolver {
	t.Helper()
	r := New(filepath.Join(t.TempDir(), "icon"))
	r.BaseURL = ms.URL
	r.Client = ms.Client()
	require.NoError(t, r.EnsureAssets())
	return r
}

func TestResolve_FetchesOnceAndCaches(t *testing.T) {
	ms := newMetadataServer(t, nil)
	r := newTestResolver(t, ms)
	ctx := context.Background()

	first := r.Resolve(ctx, "220")
	assert.Equal(t, r.LocalPath("220"), first)
	b, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, fakeJPEG, b)

	second := r.Resolve(ctx, "220")
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, ms.pageHits.Load())
}

func TestResolve_ConcurrentCallsShareOneFetch(t *testing.T) {
	ms := newMetadataServer(t, nil)
	r := newTestResolver(t, ms)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, r.LocalPath("400"), r.Resolve(context.Background(), "400"))
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, ms.pageHits.Load())
}

func TestResolve_FallbackOnFailures(t *testing.T) {
	cases := []struct {
		name string
		page func(id string) (int, string)
	}{
		{"http error", func(string) (int, string) { return http.StatusInternalServerError, "boom" }},
		{"selector miss", func(string) (int, string) { return http.StatusOK, `<img class="app-icon" src="/img/x.jpg">` }},
		{"not html", func(string) (int, string) { return http.StatusOK, "{\"json\": true}" }},
		{"bad image url", func(string) (int, string) { return http.StatusOK, `<img class="avatar app-icon" src="/nowhere.jpg">` }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ms := newMetadataServer(t, c.page)
			r := newTestResolver(t, ms)

			got := r.Resolve(context.Background(), "10")
			assert.Equal(t, r.FallbackPath(), got)
			_, err := os.Stat(got)
			assert.NoError(t, err, "fallback icon must exist")

			// A failed id is not retried until misses are reset.
			r.Resolve(context.Background(), "10")
			assert.EqualValues(t, 1, ms.pageHits.Load())

			r.ResetMisses()
			r.Resolve(context.Background(), "10")
			assert.EqualValues(t, 2, ms.pageHits.Load())
		})
	}
}

func TestResolve_UnreachableHost(t *testing.T) {
	ms := newMetadataServer(t, nil)
	r := newTestResolver(t, ms)
	ms.Close()

	assert.Equal(t, r.FallbackPath(), r.Resolve(context.Background(), "20"))
}

func TestResolve_CancelledCallerDoesNotMarkMiss(t *testing.T) {
	ms := newMetadataServer(t, nil)
	r := newTestResolver(t, ms)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, r.FallbackPath(), r.Resolve(ctx, "40"))

	// The next caller with a live context still fetches the icon.
	assert.Equal(t, r.LocalPath("40"), r.Resolve(context.Background(), "40"))
	assert.FileExists(t, r.LocalPath("40"))
}

func TestVerify(t *testing.T) {
	ms := newMetadataServer(t, nil)
	r := newTestResolver(t, ms)
	require.NoError(t, os.WriteFile(r.LocalPath("50"), fakeJPEG, 0o644))

	assert.Equal(t, r.LocalPath("50"), r.Verify("50", r.LocalPath("50")))
	assert.Equal(t, r.LocalPath("50"), r.Verify("50", "/moved/icon/50.jpg"))
	assert.Equal(t, r.FallbackPath(), r.Verify("60", "/moved/icon/60.jpg"))
	assert.Equal(t, r.FallbackPath(), r.Verify("60", r.Dir), "a directory is not an icon")
	assert.EqualValues(t, 0, ms.pageHits.Load())
}

func TestResolve_LocalIconSkipsNetwork(t *testing.T) {
	ms := newMetadataServer(t, nil)
	r := newTestResolver(t, ms)
	require.NoError(t, os.WriteFile(r.LocalPath("30"), fakeJPEG, 0o644))

	assert.Equal(t, r.LocalPath("30"), r.Resolve(context.Background(), "30"))
	assert.EqualValues(t, 0, ms.pageHits.Load())
}

func TestEnsureAssets_DoesNotOverwrite(t *testing.T) {
	r := New(t.TempDir())
	require.NoError(t, os.WriteFile(r.FallbackPath(), []byte("custom"), 0o644))
	require.NoError(t, r.EnsureAssets())

	b, err := os.ReadFile(r.FallbackPath())
	require.NoError(t, err)
	assert.Equal(t, "custom", string(b))
	_, err = os.Stat(r.LauncherIconPath())
	assert.NoError(t, err)
}
