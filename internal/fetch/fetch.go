// ABOUTME: Downloader for remote source audio files
// ABOUTME: Fetches URLs over HTTP into a hash-keyed cache directory
package fetch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ion-space/spaceconvert/internal/version"
	"github.com/ion-space/spaceconvert/pkg/audio/decode"
)

// DefaultMaxBytes caps a single download
const DefaultMaxBytes = 200 << 20

// Fetcher manages source downloads
type Fetcher struct {
	cacheDir string
	maxBytes int64
	client   *http.Client
}

// Source is a downloaded file ready for decoding
type Source struct {
	Path   string
	Codec  string
	Cached bool
}

// New creates a fetcher caching into cacheDir
func New(cacheDir string) (*Fetcher, error) {
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "spaceconvert")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &Fetcher{
		cacheDir: cacheDir,
		maxBytes: DefaultMaxBytes,
		client:   &http.Client{},
	}, nil
}

// SetMaxBytes changes the download size limit
func (f *Fetcher) SetMaxBytes(n int64) {
	f.maxBytes = n
}

// Fetch downloads url unless it is already cached. The codec comes from the
// URL extension, or from the Content-Type when the URL has none.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Source, error) {
	if url == "" {
		return nil, fmt.Errorf("empty source URL")
	}

	hash := sha256.Sum256([]byte(url))
	key := fmt.Sprintf("%x", hash[:8])

	if codec, err := decode.CodecFromPath(url); err == nil {
		cachePath := filepath.Join(f.cacheDir, key+"."+codec)
		if _, err := os.Stat(cachePath); err == nil {
			log.Printf("Source cache hit: %s", cachePath)
			return &Source{Path: cachePath, Codec: codec, Cached: true}, nil
		}
	}

	log.Printf("Downloading source: %s", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", version.Product+"/"+version.Version)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source download failed: HTTP %d", resp.StatusCode)
	}

	codec, err := decode.CodecFromPath(url)
	if err != nil {
		codec, err = codecFromContentType(resp.Header.Get("Content-Type"))
		if err != nil {
			return nil, err
		}
	}
	cachePath := filepath.Join(f.cacheDir, key+"."+codec)

	tmp, err := os.CreateTemp(f.cacheDir, key+"-*.part")
	if err != nil {
		return nil, fmt.Errorf("failed to create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, f.maxBytes+1))
	closeErr := tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to save source: %w", err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("failed to save source: %w", closeErr)
	}
	if n > f.maxBytes {
		return nil, fmt.Errorf("source exceeds %d bytes", f.maxBytes)
	}

	if err := os.Rename(tmp.Name(), cachePath); err != nil {
		return nil, fmt.Errorf("failed to store source: %w", err)
	}

	log.Printf("Source saved: %s (%d bytes)", cachePath, n)
	return &Source{Path: cachePath, Codec: codec}, nil
}

func codecFromContentType(contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("unsupported content type: %q", contentType)
	}

	switch mediaType {
	case "audio/mpeg", "audio/mp3":
		return "mp3", nil
	case "audio/flac", "audio/x-flac":
		return "flac", nil
	case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
		return "wav", nil
	default:
		return "", fmt.Errorf("unsupported content type: %q", contentType)
	}
}

// Cleanup removes the cache directory
func (f *Fetcher) Cleanup() error {
	return os.RemoveAll(f.cacheDir)
}
