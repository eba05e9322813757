package filtering

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"
)

const (
	defaultHTTPTimeout = 20 * time.Second
)

// LoadOptions configures LoadSource.
type LoadOptions struct {
	CacheDir    string
	Logger      *slog.Logger
	Diagnostics *Diagnostics
	DebugDomain string
}

// EnsureCacheDir creates the cache directory if missing. Returns an empty string on failure.
func EnsureCacheDir(cacheDir string, log *slog.Logger) string {
	if cacheDir == "" {
		return ""
	}
	if err := os.MkdirAll(cacheDir, 0o750); err != nil {
		if log != nil {
			log.Error("failed to create cache dir, caching disabled", "dir", cacheDir, "error", err)
		}
		return ""
	}
	return cacheDir
}

// LoadSource fetches source and parses it with parser. A freshly downloaded
// body is cached only after it parsed.
func LoadSource(ctx context.Context, source Source, parser *ListParser, opts LoadOptions) (*RuleSets, ParseStats, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	data, fromCache, err := readSource(ctx, source, opts.CacheDir, log)
	if err != nil {
		return nil, ParseStats{}, err
	}

	sets, stats, err := parser.Parse(bytes.NewReader(data), source.Kind, ParseOptions{
		ListID:            source.ID,
		Logger:            log,
		Diagnostics:       opts.Diagnostics,
		IncludeSubdomains: source.IncludeSubdomains,
		DebugDomain:       opts.DebugDomain,
	})
	if err != nil {
		return nil, stats, err
	}

	if !fromCache && opts.CacheDir != "" && isURL(source.Location) {
		if err := writeCache(opts.CacheDir, source, data); err != nil {
			log.Warn("failed to write cache", "list", source.ID, "error", err)
		}
	}

	return sets, stats, nil
}

func readSource(ctx context.Context, source Source, cacheDir string, log *slog.Logger) ([]byte, bool, error) {
	if isURL(source.Location) {
		data, err := fetchRemote(ctx, source)
		if err == nil {
			return data, false, nil
		}
		if cacheDir == "" {
			return nil, false, err
		}
		cached, cacheErr := readCache(cacheDir, source)
		if cacheErr != nil {
			return nil, false, fmt.Errorf("download failed: %w; cache error: %s", err, cacheErr.Error())
		}
		log.Warn("download failed, using cached list", "list", source.ID, "error", err)
		return cached, true, nil
	}

	data, err := os.ReadFile(source.Location)
	if err != nil {
		return nil, false, fmt.Errorf("read file: %w", err)
	}
	return data, false, nil
}

// fetchRemote downloads the source, racing its mirrors when it has any.
func fetchRemote(ctx context.Context, source Source) ([]byte, error) {
	urls := append([]string{source.Location}, source.Mirrors...)
	if len(urls) == 1 {
		return download(ctx, source.Location, source.Auth)
	}
	return race(ctx, urls, source.Auth)
}

// race downloads every url concurrently and returns the first successful
// body. The remaining downloads are cancelled.
func race(ctx context.Context, urls []string, auth AuthConfig) ([]byte, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		url  string
		data []byte
		err  error
	}
	results := make(chan result, len(urls))
	for _, url := range urls {
		go func() {
			data, err := download(ctx, url, auth)
			results <- result{url: url, data: data, err: err}
		}()
	}

	var errs error
	for range urls {
		r := <-results
		if r.err == nil {
			return r.data, nil
		}
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", r.url, r.err))
	}
	return nil, errs
}

func download(ctx context.Context, url string, auth AuthConfig) ([]byte, error) {
	client := &http.Client{Timeout: defaultHTTPTimeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	applyAuth(req, auth)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Default().Warn("failed to close list response body", "error", err)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func applyAuth(req *http.Request, auth AuthConfig) {
	if auth.Username != "" || auth.Password != "" {
		req.SetBasicAuth(auth.Username, auth.Password)
	}
	if auth.Token != "" {
		header := auth.Header
		if header == "" {
			header = "Authorization"
		}
		scheme := auth.Scheme
		if scheme == "" {
			scheme = "Bearer"
		}
		req.Header.Set(header, strings.TrimSpace(scheme+" "+auth.Token))
	}
}

func writeCache(cacheDir string, source Source, data []byte) error {
	path := filepath.Join(cacheDir, cacheFileName(source))
	return os.WriteFile(path, data, 0o600)
}

func readCache(cacheDir string, source Source) ([]byte, error) {
	path := filepath.Join(cacheDir, cacheFileName(source))
	// #nosec G304 -- cache path is derived from configured cache directory.
	return os.ReadFile(path)
}

func cacheFileName(source Source) string {
	id := sanitizeID(source.ID)
	if id == "" {
		hash := sha256.Sum256([]byte(source.Location))
		id = "custom-" + hex.EncodeToString(hash[:8])
	}
	return id + ".txt"
}

func sanitizeID(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	builder := strings.Builder{}
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z':
			builder.WriteRune(r)
		case r >= '0' && r <= '9':
			builder.WriteRune(r)
		default:
			builder.WriteRune('_')
		}
	}
	return builder.String()
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
