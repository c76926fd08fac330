package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

const defaultRosterExt = ".xlsx"

// ErrMissingCredentials is returned by New when any credential is blank.
var ErrMissingCredentials = errors.New("cloudinary: cloud name, api key and api secret are required")

// Config holds the account credentials and the root folder for roster copies.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Archive keeps a copy of every uploaded roster workbook as a raw asset.
type Archive struct {
	upload *uploader.API
	root   string
	logger zerolog.Logger
	now    func() time.Time
}

func New(cfg Config, logger zerolog.Logger) (*Archive, error) {
	if strings.TrimSpace(cfg.CloudName) == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, ErrMissingCredentials
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: configure client: %w", err)
	}

	return &Archive{
		upload: &cld.Upload,
		root:   strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "roster_archive").Logger(),
		now:    time.Now,
	}, nil
}

// Store uploads a workbook under <folder>/<entity> and returns its secure URL.
func (a *Archive) Store(ctx context.Context, entity, name string, reader io.Reader) (string, error) {
	result, err := a.upload.Upload(ctx, reader, uploader.UploadParams{
		Folder:         path.Join(a.root, entity),
		PublicID:       PublicID(name, a.now()),
		ResourceType:   "raw",
		Overwrite:      api.Bool(false),
		UniqueFilename: api.Bool(false),
		Tags:           api.CldAPIArray{"roster", entity},
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary: archive %s roster: %w", entity, err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary: archive %s roster: %s", entity, result.Error.Message)
	}

	a.logger.Info().Str("entity", entity).Str("public_id", result.PublicID).Int("bytes", result.Bytes).Msg("roster archived")
	return result.SecureURL, nil
}

// PublicID turns an uploaded file name into "<slug>-<unix>.<ext>". Raw assets keep their
// extension, defaulting to .xlsx.
func PublicID(name string, at time.Time) string {
	base := filepath.Base(name)
	ext := strings.ToLower(filepath.Ext(base))
	if ext == "" {
		ext = defaultRosterExt
	}

	var slug strings.Builder
	for _, r := range strings.TrimSuffix(base, filepath.Ext(base)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			slug.WriteRune(r)
		} else {
			slug.WriteByte('-')
		}
	}
	stem := strings.Trim(slug.String(), "-")
	if stem == "" {
		stem = "roster"
	}

	return fmt.Sprintf("%s-%d%s", stem, at.Unix(), ext)
}
