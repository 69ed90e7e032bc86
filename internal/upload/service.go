// Package upload stores business logo and manager signature images on local disk.
package upload

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

	"github.com/gosimple/slug"
	"github.com/oklog/ulid/v2"
	businessdomain "github.com/smallbiznis/invoicepos/internal/business/domain"
	"github.com/smallbiznis/invoicepos/internal/config"
	"github.com/smallbiznis/invoicepos/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Kind string

const (
	KindLogo      Kind = "logo"
	KindSignature Kind = "signature"
)

func (k Kind) Valid() bool {
	return k == KindLogo || k == KindSignature
}

// sniffLen is how many leading bytes http.DetectContentType considers.
const sniffLen = 512

var (
	ErrInvalidKind     = errors.New("invalid_kind")
	ErrEmptyFile       = errors.New("empty_file")
	ErrUnsupportedType = errors.New("unsupported_file_type")
	ErrTooLarge        = errors.New("file_too_large")
)

type Params struct {
	fx.In

	Cfg        config.Config
	Policy     *config.UploadPolicyHolder
	Businesses businessdomain.Service
	Log        *zap.Logger
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	root       string
	policy     *config.UploadPolicyHolder
	businesses businessdomain.Service
	log        *zap.Logger
	metrics    *metrics.Metrics
}

func New(p Params) *Service {
	return &Service{
		root:       p.Cfg.UploadDir,
		policy:     p.Policy,
		businesses: p.Businesses,
		log:        p.Log.Named("upload.service"),
		metrics:    p.Metrics,
	}
}

// Store writes the image under UPLOAD_DIR/business_<id>/ and records its path on the business.
// The client file name only contributes a slugged label and its extension.
func (s *Service) Store(ctx context.Context, businessID string, kind Kind, filename string, r io.Reader) (businessdomain.Business, error) {
	if !kind.Valid() {
		return businessdomain.Business{}, ErrInvalidKind
	}

	business, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		return businessdomain.Business{}, err
	}

	policy := s.policy.Get()
	ext := strings.ToLower(filepath.Ext(filename))
	if !policy.Allows(ext) {
		return businessdomain.Business{}, ErrUnsupportedType
	}

	head, err := sniff(ext, r)
	if err != nil {
		return businessdomain.Business{}, err
	}

	dir := filepath.Join(s.root, "business_"+business.ID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return businessdomain.Business{}, fmt.Errorf("create upload dir: %w", err)
	}

	target := filepath.Join(dir, storedName(kind, filename, ext))
	if err := writeFile(dir, target, io.MultiReader(bytes.NewReader(head), r), policy.MaxBytes); err != nil {
		return businessdomain.Business{}, err
	}

	var updated businessdomain.Business
	switch kind {
	case KindLogo:
		updated, err = s.businesses.SetLogoPath(ctx, business.ID, filepath.ToSlash(target))
	case KindSignature:
		updated, err = s.businesses.SetSignaturePath(ctx, business.ID, filepath.ToSlash(target))
	}
	if err != nil {
		_ = os.Remove(target)
		return businessdomain.Business{}, err
	}

	s.metrics.RecordUpload(ctx, string(kind))
	s.log.Info("upload stored",
		zap.String("business_id", business.ID.String()),
		zap.String("kind", string(kind)),
		zap.String("path", target),
	)
	return updated, nil
}

// contentTypes lists the image formats the invoice renderer can embed.
var contentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// sniff reads the leading bytes and checks they match the extension's image format.
// The returned bytes must be written ahead of the rest of r.
func sniff(ext string, r io.Reader) ([]byte, error) {
	want, ok := contentTypes[ext]
	if !ok {
		return nil, ErrUnsupportedType
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if n == 0 {
		return nil, ErrEmptyFile
	}
	head = head[:n]

	if http.DetectContentType(head) != want {
		return nil, ErrUnsupportedType
	}
	return head, nil
}

func storedName(kind Kind, filename, ext string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	label := slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
	if label == "" {
		label = "file"
	}
	return fmt.Sprintf("%s-%s-%s%s", kind, strings.ToLower(ulid.Make().String()), label, ext)
}

// writeFile copies at most maxBytes into a temp file and renames it into place.
func writeFile(dir, target string, r io.Reader, maxBytes int64) error {
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, err := io.Copy(tmp, io.LimitReader(r, maxBytes+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write upload: %w", err)
	}
	if n == 0 {
		return ErrEmptyFile
	}
	if n > maxBytes {
		return ErrTooLarge
	}

	return os.Rename(tmpName, target)
}
