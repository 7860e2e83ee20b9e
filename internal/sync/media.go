package sync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/hyperengineering/pressync/internal/wp"
)

// maxAssetBytes bounds how much of a remote asset is read into memory.
const maxAssetBytes = 64 << 20

// MediaIngestor obtains asset bytes from a local path or URL and uploads them
// to the site's media library.
type MediaIngestor struct {
	api   wp.API
	pacer *Pacer
	fetch *http.Client
}

// NewMediaIngestor creates a MediaIngestor backed by the given site API.
// The fetch client is separate from the site client: asset downloads carry no
// site credentials.
func NewMediaIngestor(api wp.API, pacer *Pacer) *MediaIngestor {
	return &MediaIngestor{
		api:   api,
		pacer: pacer,
		fetch: &http.Client{Timeout: 30 * time.Second},
	}
}

// Ingest acquires the asset named by source (filesystem path or http(s) URL)
// and uploads it, returning the new media id. Failures are logged and
// reported as ok=false; media problems never fail a row on their own.
func (m *MediaIngestor) Ingest(ctx context.Context, source string) (id int, ok bool) {
	var (
		data     []byte
		filename string
		mimeType string
		err      error
	)

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, filename, mimeType, err = m.download(ctx, source)
	} else {
		data, filename, mimeType, err = readLocal(source)
	}
	if err != nil {
		slog.Warn("media ingestion failed, skipping", "source", source, "error", err)
		return 0, false
	}

	media, err := m.api.UploadMedia(ctx, filename, mimeType, data)
	if err != nil {
		slog.Warn("media upload failed, skipping", "source", source, "error", err)
		return 0, false
	}
	if err := m.pacer.Wait(ctx); err != nil {
		return 0, false
	}

	slog.Info("media uploaded", "source", source, "filename", filename, "id", media.ID)
	return media.ID, true
}

// download fetches asset bytes from a URL, rewriting recognizable share links
// into direct-download form first.
func (m *MediaIngestor) download(ctx context.Context, rawURL string) ([]byte, string, string, error) {
	directURL := RewriteShareURL(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, directURL, nil)
	if err != nil {
		return nil, "", "", err
	}
	resp, err := m.fetch.Do(req)
	if err != nil {
		return nil, "", "", fmt.Errorf("fetch asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", "", fmt.Errorf("fetch asset: HTTP %d", resp.StatusCode)
	}

	declared := resp.Header.Get("Content-Type")
	// An HTML body means we got a login or error page, not the asset.
	if strings.Contains(declared, "text/html") {
		return nil, "", "", fmt.Errorf("server returned an HTML page instead of media (access denied?)")
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes))
	if err != nil {
		return nil, "", "", fmt.Errorf("read asset: %w", err)
	}

	sniffed := mimetype.Detect(data)
	if sniffed.Is("text/html") {
		return nil, "", "", fmt.Errorf("asset body is an HTML document, not media")
	}

	filename := filenameFromResponse(resp, directURL)
	filename = reconcileExtension(filename, sniffed)

	mimeType := declared
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = sniffed.String()
	}

	return data, filename, mimeType, nil
}

// readLocal reads asset bytes from the filesystem.
func readLocal(p string) ([]byte, string, string, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, "", "", fmt.Errorf("read media file: %w", err)
	}
	return data, filepath.Base(p), mimetype.Detect(data).String(), nil
}

// RewriteShareURL converts a Google-Drive style share link into its
// direct-download form. Unrecognized URLs are returned unchanged.
func RewriteShareURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	host := u.Hostname()
	if !strings.HasSuffix(host, "drive.google.com") && !strings.HasSuffix(host, "docs.google.com") {
		return rawURL
	}

	// Path form: .../d/<fileID>/...
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if seg == "d" && i+1 < len(segments) && segments[i+1] != "" {
			return driveDirectURL(segments[i+1])
		}
	}

	// Query form: ...?id=<fileID>
	if id := u.Query().Get("id"); id != "" {
		return driveDirectURL(id)
	}

	return rawURL
}

func driveDirectURL(fileID string) string {
	return "https://drive.google.com/uc?export=download&id=" + url.QueryEscape(fileID)
}

// filenameFromResponse derives a filename from the Content-Disposition header
// when present, else from the final URL path.
func filenameFromResponse(resp *http.Response, rawURL string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := params["filename"]; name != "" {
				return path.Base(name)
			}
		}
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	if u, err := url.Parse(finalURL); err == nil {
		if name := path.Base(u.Path); name != "" && name != "/" && name != "." {
			return name
		}
	}
	return "upload"
}

// reconcileExtension makes the filename extension agree with the sniffed MIME
// type. Drive export links often end in a bare "uc" with no real extension.
func reconcileExtension(name string, sniffed *mimetype.MIME) string {
	ext := strings.ToLower(path.Ext(name))
	if ext != "" && ext != ".uc" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			if base, _, err := mime.ParseMediaType(byExt); err == nil && sniffed.Is(base) {
				return name
			}
		}
	}
	if name == "uc" {
		name = "upload"
	}
	return strings.TrimSuffix(name, path.Ext(name)) + sniffed.Extension()
}
