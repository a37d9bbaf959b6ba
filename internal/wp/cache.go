package wp

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	cacheEnvVar     = "STORYLENS_CACHE_DIR"
	cacheSubdir     = "storylens/responses"
	defaultCacheTTL = 15 * time.Minute
	partialSuffix   = ".part"
	metaSuffix      = ".meta"
)

// Cache stores REST response bodies on disk, keyed by URL. Fresh entries
// are served without a request; stale entries are revalidated with
// ETag/If-Modified-Since before re-download.
type Cache struct {
	dir    string
	ttl    time.Duration
	client *http.Client
}

type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"lastModified"`
	CachedAt     time.Time `json:"cachedAt"`
	Size         int64     `json:"size"`
}

// NewCache returns a cache rooted at dir, or at the STORYLENS_CACHE_DIR /
// user-cache default when dir is empty. A non-positive ttl selects the
// default freshness window.
func NewCache(dir string, ttl time.Duration, client *http.Client) (*Cache, error) {
	if dir == "" {
		dir = os.Getenv(cacheEnvVar)
	}
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = filepath.Join(os.TempDir(), "storylens-cache")
		}
		dir = filepath.Join(base, cacheSubdir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Cache{dir: dir, ttl: ttl, client: client}, nil
}

// Fetch returns the response body for rawURL, from disk when fresh. The
// given header is applied to revalidation and download requests.
func (c *Cache) Fetch(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	key := cacheKey(rawURL)
	bodyPath, metaPath, partialPath := c.pathsFor(key)

	if info, err := os.Stat(bodyPath); err == nil && time.Since(info.ModTime()) < c.ttl && info.Size() > 0 {
		return os.ReadFile(bodyPath)
	}

	meta, _ := readMeta(metaPath)
	info, _ := os.Stat(bodyPath)
	body, err := c.download(ctx, rawURL, bodyPath, metaPath, partialPath, header, meta, info)
	if err == nil {
		return body, nil
	}
	// Serve the stale copy when revalidation fails and one exists.
	if info != nil && info.Size() > 0 {
		return os.ReadFile(bodyPath)
	}
	return nil, err
}

func (c *Cache) download(ctx context.Context, rawURL, bodyPath, metaPath, partialPath string, header http.Header, meta cacheMeta, current os.FileInfo) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for name, values := range header {
		req.Header[name] = values
	}
	if current != nil && current.Size() > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		if current != nil && current.Size() > 0 {
			meta.CachedAt = time.Now().UTC()
			writeMeta(metaPath, meta)
			now := time.Now()
			os.Chtimes(bodyPath, now, now)
			return os.ReadFile(bodyPath)
		}
		// 304 without a cached body; refetch unconditionally.
		return c.download(ctx, rawURL, bodyPath, metaPath, partialPath, header, cacheMeta{}, nil)
	case resp.StatusCode >= 400:
		return nil, decodeError(resp)
	}
	return c.saveBody(resp, bodyPath, metaPath, partialPath)
}

func (c *Cache) saveBody(resp *http.Response, bodyPath, metaPath, partialPath string) ([]byte, error) {
	file, err := os.OpenFile(partialPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return nil, err
	}
	if err := file.Close(); err != nil {
		return nil, err
	}
	if err := os.Rename(partialPath, bodyPath); err != nil {
		return nil, err
	}

	meta := cacheMeta{
		URL:          resp.Request.URL.String(),
		ETag:         resp.Header.Get("Etag"),
		LastModified: resp.Header.Get("Last-Modified"),
		CachedAt:     time.Now().UTC(),
	}
	if info, err := os.Stat(bodyPath); err == nil {
		meta.Size = info.Size()
	}
	if err := writeMeta(metaPath, meta); err != nil {
		return nil, err
	}
	return os.ReadFile(bodyPath)
}

func (c *Cache) pathsFor(key string) (string, string, string) {
	return filepath.Join(c.dir, key+".json"), filepath.Join(c.dir, key+metaSuffix), filepath.Join(c.dir, key+partialSuffix)
}

func cacheKey(rawURL string) string {
	sum := sha1.Sum([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

func readMeta(path string) (cacheMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cacheMeta{}, err
	}
	var meta cacheMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheMeta{}, err
	}
	return meta, nil
}

func writeMeta(path string, meta cacheMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Purge removes every cached entry.
func (c *Cache) Purge() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			return fmt.Errorf("purge cache entry %s: %w", entry.Name(), err)
		}
	}
	return nil
}
