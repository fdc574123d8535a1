package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"medscribe-go/internal/apperr"
	"medscribe-go/internal/logger"
	"medscribe-go/internal/types"
)

const (
	// MaxRedirects is the number of redirect hops followed before giving up.
	MaxRedirects = 5

	defaultMaxBytes = 25 << 20
)

// SupportedExtensions are the audio file extensions accepted on direct URLs.
var SupportedExtensions = []string{".mp3", ".wav", ".m4a", ".ogg", ".webm"}

// KnownHosts serve audio behind paths without a file extension. A host
// matches when it equals an entry or is a subdomain of one.
var KnownHosts = []string{
	"drive.google.com",
	"docs.google.com",
	"github.com",
	"raw.githubusercontent.com",
	"firebasestorage.googleapis.com",
	"netlify.app",
	"vercel.app",
	"storage.googleapis.com",
}

type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

type Option func(*Fetcher)

// WithHTTPClient replaces the download client. Its redirect policy is
// overridden: the fetcher follows redirects itself.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		cp := *c
		f.client = &cp
	}
}

func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.client.Timeout = d }
}

func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{Timeout: 60 * time.Second},
		maxBytes: defaultMaxBytes,
	}
	for _, o := range opts {
		o(f)
	}
	f.client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return f
}

// Validate checks scheme and format without touching the network.
func Validate(rawURL string) (*url.URL, error) {
	const op = "audio.validate"
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidReference, op, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, apperr.Newf(apperr.InvalidScheme, op, "url must use http or https, got %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, apperr.New(apperr.InvalidReference, op, "url has no host")
	}
	if IsKnownHost(u.Hostname()) {
		return u, nil
	}
	if !HasSupportedExtension(u.Path) {
		return nil, apperr.Newf(apperr.UnsupportedFormat, op,
			"unsupported format, accepted: %s", strings.Join(SupportedExtensions, ", "))
	}
	return u, nil
}

func IsKnownHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, k := range KnownHosts {
		if host == k || strings.HasSuffix(host, "."+k) {
			return true
		}
	}
	return false
}

func HasSupportedExtension(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Fetch validates rawURL and downloads it, following up to MaxRedirects
// redirects. Each hop is attempted once.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (types.AudioBytes, error) {
	const op = "audio.fetch"
	log := logger.New().WithField("component", "audio-fetcher")

	u, err := Validate(rawURL)
	if err != nil {
		return types.AudioBytes{}, err
	}

	current := u
	for hop := 0; ; hop++ {
		resp, err := f.get(ctx, current)
		if err != nil {
			return types.AudioBytes{}, apperr.Wrap(apperr.DownloadFailed, op, err)
		}

		if isRedirect(resp.StatusCode) {
			loc := resp.Header.Get("Location")
			drain(resp)
			if loc == "" {
				return types.AudioBytes{}, apperr.Newf(apperr.DownloadFailed, op, "redirect %d without location", resp.StatusCode)
			}
			if hop >= MaxRedirects {
				return types.AudioBytes{}, apperr.New(apperr.DownloadFailed, op, "too many redirects")
			}
			next, err := current.Parse(loc)
			if err != nil {
				return types.AudioBytes{}, apperr.Wrap(apperr.DownloadFailed, op, err)
			}
			if s := strings.ToLower(next.Scheme); s != "http" && s != "https" {
				return types.AudioBytes{}, apperr.Newf(apperr.DownloadFailed, op, "redirect to unsupported scheme %q", next.Scheme)
			}
			log.WithField("status", resp.StatusCode).WithField("location", next.String()).Debug("following redirect")
			current = next
			continue
		}

		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return types.AudioBytes{}, apperr.Newf(apperr.DownloadFailed, op, "http status %d", resp.StatusCode)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
		if err != nil {
			return types.AudioBytes{}, apperr.Wrap(apperr.DownloadFailed, op, err)
		}
		if int64(len(data)) > f.maxBytes {
			return types.AudioBytes{}, apperr.Newf(apperr.DownloadFailed, op, "audio exceeds %d bytes", f.maxBytes)
		}

		out := types.AudioBytes{
			Data:        data,
			ContentType: resolveContentType(resp.Header.Get("Content-Type"), data),
			Filename:    path.Base(current.Path),
			Source:      rawURL,
		}
		log.WithField("bytes", out.Size()).WithField("content_type", out.ContentType).WithField("redirects", hop).Info("download complete")
		return out, nil
	}
}

func (f *Fetcher) get(ctx context.Context, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return f.client.Do(req)
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}

// resolveContentType keeps a meaningful declared type and sniffs otherwise.
func resolveContentType(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && !strings.HasPrefix(declared, "application/octet-stream") {
		return declared
	}
	if len(data) == 0 {
		return "application/octet-stream"
	}
	return mimetype.Detect(data).String()
}
