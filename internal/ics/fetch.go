package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
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

	appLog "weekview/internal/log"
)

const (
	fetchTimeout = 15 * time.Second
	// maxFeedBytes caps one feed body.
	maxFeedBytes = 16 << 20
	userAgent    = "weekview/ics"
)

// Source is one ICS feed: a remote subscription or a local file.
type Source struct {
	// ID names the source in logs and on expanded events.
	ID string
	// URL is the feed endpoint; webcal:// is fetched over https. Ignored
	// when Path is set.
	URL string
	// Path is a local .ics file.
	Path string
	// Color is copied onto every event from this source.
	Color string
}

func (s Source) redacted() string {
	if s.Path != "" {
		return "file://" + s.Path
	}
	return redactURL(s.URL)
}

// FetchResult is the body obtained for one source.
type FetchResult struct {
	Source Source
	Body   []byte
	// FromCache is set when the body came from disk: a 304, or a failed
	// request with a previous copy available.
	FromCache bool
}

// Fetcher reads ICS sources. Remote feeds are revalidated with ETag and
// Last-Modified against a copy kept on disk.
type Fetcher struct {
	client *http.Client
	cache  diskCache
}

// NewFetcher returns a Fetcher that keeps per-URL copies under cacheDir.
func NewFetcher(cacheDir string) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/ics-cache"
	}
	return &Fetcher{
		client: &http.Client{Timeout: fetchTimeout},
		cache:  diskCache{dir: cacheDir},
	}
}

// FetchAll fetches sources concurrently. Results keep the order of sources
// and include only sources that produced a body; failures are logged and
// returned in errs.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) (results []FetchResult, errs []error) {
	type outcome struct {
		res FetchResult
		err error
	}
	out := make([]outcome, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.FetchOne(ctx, src)
			out[i] = outcome{res: res, err: err}
		}()
	}
	wg.Wait()

	for i, o := range out {
		if o.err != nil {
			appLog.Error("ics fetch failed", o.err, "id", sources[i].ID, "origin", sources[i].redacted())
			errs = append(errs, fmt.Errorf("%s: %w", sources[i].ID, o.err))
			continue
		}
		results = append(results, o.res)
	}
	return results, errs
}

// FetchOne reads a single source.
func (f *Fetcher) FetchOne(ctx context.Context, src Source) (FetchResult, error) {
	switch {
	case src.Path != "":
		body, err := os.ReadFile(src.Path)
		if err != nil {
			return FetchResult{}, err
		}
		return FetchResult{Source: src, Body: body}, nil
	case src.URL == "":
		return FetchResult{}, errors.New("source has neither url nor path")
	}

	target := src.URL
	if rest, ok := strings.CutPrefix(target, "webcal://"); ok {
		target = "https://" + rest
	}

	entry, cached := f.cache.load(src.URL)
	cachedResult := func(reason error) (FetchResult, error) {
		if cached == nil {
			return FetchResult{}, reason
		}
		appLog.Error("ics fetch degraded, serving cached copy", reason, "id", src.ID, "url", redactURL(src.URL))
		return FetchResult{Source: src, Body: cached, FromCache: true}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return FetchResult{}, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/calendar, */*;q=0.5")
	if cached != nil {
		if entry.ETag != "" {
			req.Header.Set("If-None-Match", entry.ETag)
		}
		if entry.LastModified != "" {
			req.Header.Set("If-Modified-Since", entry.LastModified)
		}
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return cachedResult(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		if cached == nil {
			return FetchResult{}, errors.New("304 Not Modified without a cached copy")
		}
		appLog.Debug("ics not modified", "id", src.ID, "url", redactURL(src.URL))
		return FetchResult{Source: src, Body: cached, FromCache: true}, nil

	case resp.StatusCode != http.StatusOK:
		return cachedResult(fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes+1))
	if err != nil {
		return cachedResult(err)
	}
	if len(body) > maxFeedBytes {
		return cachedResult(fmt.Errorf("feed larger than %d bytes", maxFeedBytes))
	}

	err = f.cache.store(src.URL, cacheEntry{
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}, body)
	if err != nil {
		appLog.Error("ics cache write failed", err, "id", src.ID)
	}

	appLog.Info("ics fetched", "id", src.ID, "url", redactURL(src.URL),
		"bytes", len(body), "took_ms", time.Since(start).Milliseconds())
	return FetchResult{Source: src, Body: body}, nil
}

// cacheEntry is the revalidation metadata stored beside a cached body.
type cacheEntry struct {
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	StoredAt     time.Time `json:"stored_at"`
}

// diskCache keeps one directory per URL, named by a hash of the URL so the
// secret parts never reach the filesystem.
type diskCache struct {
	dir string
}

func (c diskCache) path(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:8]))
}

// load returns the stored entry and body; body is nil on any miss.
func (c diskCache) load(rawURL string) (cacheEntry, []byte) {
	dir := c.path(rawURL)
	body, err := os.ReadFile(filepath.Join(dir, "body.ics"))
	if err != nil || len(body) == 0 {
		return cacheEntry{}, nil
	}
	var entry cacheEntry
	if data, err := os.ReadFile(filepath.Join(dir, "meta.json")); err == nil {
		// A broken meta file only costs the conditional headers.
		_ = json.Unmarshal(data, &entry)
	}
	return entry, body
}

// store writes the body before the metadata so metadata never describes a
// body that is not there.
func (c diskCache) store(rawURL string, entry cacheEntry, body []byte) error {
	dir := c.path(rawURL)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "body.ics"), body, 0o600); err != nil {
		return err
	}
	entry.StoredAt = time.Now().UTC()
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "meta.json"), data, 0o600)
}

// redactURL keeps only the scheme and host of a feed URL; private calendar
// links carry their secret in the path or query.
func redactURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "ics://...(redacted)"
	}
	return parsed.Scheme + "://" + parsed.Host + "/...(redacted)"
}
