package stocks

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"time"

	"github.com/etnz/stocks/date"
)

// contains http utils shared by the price sources.

// DiskCache is an http.RoundTripper that keeps successful responses on disk.
// Entries are keyed by day, so the local copy expires every day.
type DiskCache struct {
	Base  http.RoundTripper // defaults to http.DefaultTransport
	Dir   string            // defaults to os.TempDir()
	Today func() date.Date  // defaults to date.Today

	// Cacheable filters the successful responses worth keeping. Nil keeps
	// them all.
	Cacheable func(*http.Response) bool
}

// NewCachingClient returns an http.Client whose responses are cached in dir
// for the rest of the day. An empty dir uses the system temp dir. A nil
// cacheable keeps every successful response.
func NewCachingClient(dir string, cacheable func(*http.Response) bool) *http.Client {
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: &DiskCache{Dir: dir, Cacheable: cacheable},
	}
}

func (c *DiskCache) base() http.RoundTripper {
	if c.Base == nil {
		return http.DefaultTransport
	}
	return c.Base
}

func (c *DiskCache) file(key string) string {
	dir := c.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, key)
}

func (c *DiskCache) key(req *http.Request) string {
	today := date.Today
	if c.Today != nil {
		today = c.Today
	}
	key := fmt.Sprintf("%s %s %s", today(), req.Method, req.URL.String())
	return fmt.Sprintf("stx-%x", sha1.Sum([]byte(key)))
}

// RoundTrip implements the http.RoundTripper interface. It checks for a cached
// response on disk first. If none is found, it proceeds with the actual HTTP
// request and caches the new response if it's successful.
func (c *DiskCache) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	key := c.key(req)
	if cached, err := c.get(key, req); err == nil { // Cache hit
		return cached, nil
	}

	resp, err = c.base().RoundTrip(req)
	if err != nil {
		return nil, err
	}
	log.Printf("%v %v%v %v", req.Method, req.URL.Host, req.URL.Path, resp.Status)
	if resp.StatusCode >= 300 || (c.Cacheable != nil && !c.Cacheable(resp)) {
		return resp, nil
	}
	// otherwise attempt to store it in cache
	if err := c.put(key, resp); err != nil {
		log.Printf("cache write err (ignored): %v", err)
	}
	return resp, nil
}

// get retrieves a cached response from disk
func (c *DiskCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(c.file(key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
}

// put stores a response to disk cache. The response body is consumed and
// replaced by an in-memory copy.
func (c *DiskCache) put(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	return os.WriteFile(c.file(key), content, 0o644)
}
