// Package icon resolves a local icon image for a Steam app id, scraping and
// caching the store icon on first use and falling back to a bundled image.
package icon

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultBaseURL is the metadata site whose /app/<id>/ pages carry the icon.
	DefaultBaseURL = "https://steamdb.info"
	// DefaultUserAgent is sent with every request; the site rejects bare Go clients.
	DefaultUserAgent = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:47.0) Gecko/20100101 Firefox/47.0"

	// MissingIcon is the fallback file name inside the icon directory.
	MissingIcon = "missing.png"
	// LauncherIcon is the icon used for reload and configuration results.
	LauncherIcon = "launcher.png"

	maxPageBytes  = 2 << 20
	maxImageBytes = 4 << 20
)

var (
	//go:embed assets/missing.png
	missingPNG []byte
	//go:embed assets/launcher.png
	launcherPNG []byte
)

// ErrIconNotFound means the page carried no element matching the icon selector.
var ErrIconNotFound = errors.New("icon element not found")

// Resolver maps app ids to icon files under Dir.
type Resolver struct {
	Dir       string
	BaseURL   string
	UserAgent string
	Client    *http.Client
	Logger    *zap.Logger

	group  singleflight.Group
	mu     sync.Mutex
	misses map[string]struct{}
}

// New returns a Resolver storing icons in dir with default remote settings.
func New(dir string) *Resolver {
	return &Resolver{
		Dir:       dir,
		BaseURL:   DefaultBaseURL,
		UserAgent: DefaultUserAgent,
		Client:    &http.Client{Timeout: 15 * time.Second},
		Logger:    zap.NewNop(),
	}
}

// FallbackPath is returned whenever no real icon is available.
func (r *Resolver) FallbackPath() string {
	return filepath.Join(r.Dir, MissingIcon)
}

// LauncherIconPath is the icon for non-game results.
func (r *Resolver) LauncherIconPath() string {
	return filepath.Join(r.Dir, LauncherIcon)
}

// EnsureAssets creates Dir and writes the bundled images that are missing.
func (r *Resolver) EnsureAssets() error {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return fmt.Errorf("cannot create icon dir %s: %w", r.Dir, err)
	}
	for name, data := range map[string][]byte{MissingIcon: missingPNG, LauncherIcon: launcherPNG} {
		p := filepath.Join(r.Dir, name)
		if _, err := os.Stat(p); err == nil {
			continue
		}
		if err := os.WriteFile(p, data, 0o644); err != nil {
			return fmt.Errorf("cannot write %s: %w", p, err)
		}
	}
	return nil
}

// LocalPath is where the icon for id lives once fetched.
func (r *Resolver) LocalPath(id string) string {
	return filepath.Join(r.Dir, id+".jpg")
}

// Resolve returns a path to an existing icon for id. It never fails: any
// fetch problem yields FallbackPath. Each id reaches the network at most once
// per Resolver until ResetMisses is called.
func (r *Resolver) Resolve(ctx context.Context, id string) string {
	local := r.LocalPath(id)
	if isFile(local) {
		return local
	}
	if r.missed(id) {
		return r.FallbackPath()
	}

	v, err, _ := r.group.Do(id, func() (interface{}, error) {
		if isFile(local) {
			return local, nil
		}
		if err := r.fetch(ctx, id, local); err != nil {
			// A cancelled caller says nothing about the icon; leave it retryable.
			if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				r.markMiss(id)
			}
			return "", err
		}
		return local, nil
	})
	if err != nil {
		r.logger().Debug("icon fetch failed, using fallback", zap.String("app_id", id), zap.Error(err))
		return r.FallbackPath()
	}
	return v.(string)
}

// Verify returns path when it is still a regular file. Otherwise it returns the
// fetched icon for id if present, else FallbackPath. It never touches the network.
func (r *Resolver) Verify(id, path string) string {
	if isFile(path) {
		return path
	}
	if local := r.LocalPath(id); isFile(local) {
		return local
	}
	return r.FallbackPath()
}

// ResetMisses forgets ids whose fetch failed so the next Resolve retries them.
func (r *Resolver) ResetMisses() {
	r.mu.Lock()
	r.misses = nil
	r.mu.Unlock()
}

func (r *Resolver) missed(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.misses[id]
	return ok
}

func (r *Resolver) markMiss(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.misses == nil {
		r.misses = make(map[string]struct{})
	}
	r.misses[id] = struct{}{}
}

func (r *Resolver) fetch(ctx context.Context, id, dest string) error {
	pageURL := strings.TrimRight(r.BaseURL, "/") + "/app/" + url.PathEscape(id) + "/"
	body, err := r.get(ctx, pageURL, maxPageBytes)
	if err != nil {
		return fmt.Errorf("fetch page: %w", err)
	}
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("parse page: %w", err)
	}
	src, ok := findIconSrc(doc)
	if !ok {
		return ErrIconNotFound
	}
	imgURL, err := resolveRef(pageURL, src)
	if err != nil {
		return err
	}
	img, err := r.get(ctx, imgURL, maxImageBytes)
	if err != nil {
		return fmt.Errorf("fetch image: %w", err)
	}
	if len(img) == 0 {
		return fmt.Errorf("fetch image: empty body")
	}
	return writeAtomic(dest, img)
}

func (r *Resolver) get(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	ua := r.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

func (r *Resolver) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// findIconSrc returns the src of the first <img class="app-icon avatar">.
func findIconSrc(doc *html.Node) (string, bool) {
	var src string
	var found bool
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.ElementNode && n.Data == "img" && hasClasses(n, "app-icon", "avatar") {
			if s := attr(n, "src"); s != "" {
				src, found = s, true
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return src, found
}

func hasClasses(n *html.Node, want ...string) bool {
	have := strings.Fields(attr(n, "class"))
	for _, w := range want {
		ok := false
		for _, h := range have {
			if h == w {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func resolveRef(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("bad icon src %q: %w", ref, err)
	}
	return b.ResolveReference(u).String(), nil
}

func writeAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(dest)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
