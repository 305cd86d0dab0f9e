package mediastore

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store downloads provider media and persists it under a durable,
// tenant-scoped path. The disk backend mirrors an object store layout:
// {tenantId}/{conversationId}/{timestamp}.{ext}, addressable through a
// public base URL.
type Store interface {
	Download(ctx context.Context, mediaURL string) ([]byte, string, error)
	Save(ctx context.Context, tenantID, conversationID, mimeType string, data []byte) (string, error)
}

type StoreConfig struct {
	RootDir       string
	PublicBaseURL string
	MaxSizeMB     int
	Timeout       time.Duration
}

type store struct {
	rootDir       string
	publicBaseURL string
	maxBytes      int64
	httpClient    *http.Client
	now           func() time.Time
}

func New(cfg StoreConfig) (Store, error) {
	if cfg.RootDir == "" {
		return nil, fmt.Errorf("media store root directory is required")
	}
	if err := os.MkdirAll(cfg.RootDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create media store directory: %w", err)
	}

	maxMB := cfg.MaxSizeMB
	if maxMB <= 0 {
		maxMB = 32
	}

	return &store{
		rootDir:       cfg.RootDir,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		maxBytes:      int64(maxMB) * 1024 * 1024,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		now:           time.Now,
	}, nil
}

// Download fetches the binary behind a provider media URL and returns the
// bytes plus the content type reported by the server.
func (s *store) Download(ctx context.Context, mediaURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("media download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read media body: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, "", fmt.Errorf("media exceeds size limit of %d bytes", s.maxBytes)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// Save writes data under the tenant/conversation path and returns the public
// URL of the stored artifact.
func (s *store) Save(ctx context.Context, tenantID, conversationID, mimeType string, data []byte) (string, error) {
	if err := validatePathSegment(tenantID); err != nil {
		return "", fmt.Errorf("invalid tenant ID: %w", err)
	}
	if err := validatePathSegment(conversationID); err != nil {
		return "", fmt.Errorf("invalid conversation ID: %w", err)
	}

	dir := filepath.Join(s.rootDir, tenantID, conversationID)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	name := fmt.Sprintf("%d%s", s.now().UnixMilli(), extensionFor(mimeType))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0640); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}

	key := tenantID + "/" + conversationID + "/" + name
	if s.publicBaseURL == "" {
		return key, nil
	}
	return s.publicBaseURL + "/" + key, nil
}

// validatePathSegment rejects path components that could traverse outside
// the store root.
func validatePathSegment(segment string) error {
	if segment == "" {
		return fmt.Errorf("segment cannot be empty")
	}
	if strings.ContainsAny(segment, "/\\") || strings.Contains(segment, "..") {
		return fmt.Errorf("segment contains path separators: %s", segment)
	}
	return nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "audio/ogg", "audio/ogg; codecs=opus":
		return ".ogg"
	case "image/jpeg":
		return ".jpg"
	case "application/pdf":
		return ".pdf"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
