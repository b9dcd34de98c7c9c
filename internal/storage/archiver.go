// Package storage archives media attached to incident reports.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Rrens/fairway/internal/domain"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBucket       = "incident-photos"
	DefaultFetchTimeout = 15 * time.Second
	DefaultMaxBytes     = 5 << 20

	maxNameAttempts = 5
)

var allowedTypes = []string{"image/jpeg", "image/png", "image/webp"}

// Config configures a PhotoArchiver
type Config struct {
	// Dir is the root directory; photos go to Dir/Bucket
	Dir           string
	Bucket        string
	PublicBaseURL string
	FetchTimeout  time.Duration
	MaxBytes      int64
	// Credentials sent as basic auth when fetching transport-hosted media
	AccountSID string
	AuthToken  string
}

// PhotoArchiver downloads transport-hosted photos and stores them under a
// public bucket directory
type PhotoArchiver struct {
	cfg    Config
	client *http.Client
	now    func() time.Time
}

// NewPhotoArchiver creates a new photo archiver
func NewPhotoArchiver(cfg Config) *PhotoArchiver {
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBucket
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	return &PhotoArchiver{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.FetchTimeout},
		now:    time.Now,
	}
}

func (a *PhotoArchiver) bucketDir() string {
	return filepath.Join(a.cfg.Dir, a.cfg.Bucket)
}

// EnsureBucket creates the bucket directory if missing
func (a *PhotoArchiver) EnsureBucket() error {
	if err := os.MkdirAll(a.bucketDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", a.cfg.Bucket, err)
	}
	return nil
}

// Archive fetches sourceURL and stores it as <incidentID>-<unixnano>.<ext>,
// returning the public URL of the stored copy
func (a *PhotoArchiver) Archive(ctx context.Context, sourceURL string, incidentID uuid.UUID) (string, error) {
	data, err := a.fetch(ctx, sourceURL)
	if err != nil {
		return "", err
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedTypes...) {
		return "", fmt.Errorf("unsupported media type %s", mtype.String())
	}

	name, err := a.write(incidentID, mtype.Extension(), data)
	if err != nil {
		return "", err
	}

	log.Debug().
		Str("incident_id", incidentID.String()).
		Str("file", name).
		Str("mime", mtype.String()).
		Int("bytes", len(data)).
		Msg("Photo archived")

	return a.publicURL(name), nil
}

func (a *PhotoArchiver) fetch(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if a.cfg.AccountSID != "" && a.cfg.AuthToken != "" {
		req.SetBasicAuth(a.cfg.AccountSID, a.cfg.AuthToken)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch media: %w: %w", domain.ErrTransientMedia, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media host returned status %d: %w", resp.StatusCode, domain.ErrTransientMedia)
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(resp.Body, a.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read media: %w: %w", domain.ErrTransientMedia, err)
	}
	if n > a.cfg.MaxBytes {
		return nil, fmt.Errorf("media exceeds %d bytes", a.cfg.MaxBytes)
	}
	if n == 0 {
		return nil, errors.New("empty media body")
	}
	return buf.Bytes(), nil
}

// write stores data under a fresh name. Names are claimed with O_EXCL so an
// existing object is never overwritten.
func (a *PhotoArchiver) write(incidentID uuid.UUID, ext string, data []byte) (string, error) {
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := fmt.Sprintf("%s-%d%s", incidentID, a.now().UnixNano()+int64(attempt), ext)
		path := filepath.Join(a.bucketDir(), name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", domain.NewStorageError("open photo", err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path) // cleanup on error
			return "", domain.NewStorageError("write photo", err)
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", domain.NewStorageError("close photo", err)
		}
		return name, nil
	}
	return "", domain.NewStorageError("name photo", fmt.Errorf("no free name after %d attempts", maxNameAttempts))
}

func (a *PhotoArchiver) publicURL(name string) string {
	base := strings.TrimRight(a.cfg.PublicBaseURL, "/")
	return base + "/" + a.cfg.Bucket + "/" + name
}
