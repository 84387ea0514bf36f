package resolver

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/opencontainers/go-digest"

	"verax/internal/evidence/cratesio"
	"verax/internal/veracity/models"
)

// ErrChecksumMismatch is returned when a downloaded archive does not match
// the checksum the registry lists for it.
var ErrChecksumMismatch = errors.New("archive checksum mismatch")

// Decompression cap per extracted file.
const maxExtractedFileSize = 1 << 30

// ArchiveSource is the slice of the registry client that archive fetching
// needs.
type ArchiveSource interface {
	VersionDetails(ctx context.Context, pkg models.Package) (cratesio.VersionDetails, error)
	DownloadArchive(ctx context.Context, pkg models.Package) ([]byte, error)
}

// Archives downloads crate archives, verifies them against the registry
// checksum and unpacks them for single-crate analysis.
type Archives struct {
	source ArchiveSource
	root   string
	logger *slog.Logger
}

// ArchivesOption configures Archives.
type ArchivesOption func(*Archives)

// WithArchivesLogger sets the logger.
func WithArchivesLogger(logger *slog.Logger) ArchivesOption {
	return func(a *Archives) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewArchives creates an archive fetcher that unpacks under root.
func NewArchives(source ArchiveSource, root string, opts ...ArchivesOption) (*Archives, error) {
	if source == nil {
		return nil, errors.New("archive source is required")
	}
	if root == "" {
		return nil, errors.New("extraction root is required")
	}

	a := &Archives{
		source: source,
		root:   root,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Fetch downloads pkg's archive and unpacks it, returning the extracted
// crate directory. An already extracted crate is reused without touching
// the network.
func (a *Archives) Fetch(ctx context.Context, pkg models.Package) (string, error) {
	crateDir := filepath.Join(a.root, pkg.Name, fmt.Sprintf("%s-%s", pkg.Name, pkg.Version))
	if _, err := os.Stat(crateDir); err == nil {
		a.logger.DebugContext(ctx, "crate already extracted", "dir", crateDir)
		return crateDir, nil
	}

	details, err := a.source.VersionDetails(ctx, pkg)
	if err != nil {
		return "", fmt.Errorf("fetch version details for %s: %w", pkg, err)
	}

	data, err := a.source.DownloadArchive(ctx, pkg)
	if err != nil {
		return "", fmt.Errorf("download archive for %s: %w", pkg, err)
	}
	a.logger.DebugContext(ctx, "downloaded crate archive",
		"package", pkg.String(),
		"bytes", len(data),
	)

	if err := verifyChecksum(pkg, data, details.Checksum); err != nil {
		return "", err
	}

	if err := extractTarGz(data, filepath.Join(a.root, pkg.Name)); err != nil {
		return "", fmt.Errorf("extract archive for %s: %w", pkg, err)
	}
	if _, err := os.Stat(crateDir); err != nil {
		return "", fmt.Errorf("archive for %s did not unpack to %s-%s: %w", pkg, pkg.Name, pkg.Version, err)
	}

	a.logger.InfoContext(ctx, "extracted crate", "package", pkg.String(), "dir", crateDir)
	return crateDir, nil
}

func verifyChecksum(pkg models.Package, data []byte, checksum string) error {
	if checksum == "" {
		return fmt.Errorf("registry lists no checksum for %s", pkg)
	}
	expected := digest.NewDigestFromEncoded(digest.SHA256, checksum)
	if actual := digest.SHA256.FromBytes(data); actual != expected {
		return fmt.Errorf("%w for %s: registry lists %s, archive is %s", ErrChecksumMismatch, pkg, expected, actual)
	}
	return nil
}

// extractTarGz unpacks a gzipped tarball under dest, rejecting entries that
// would escape it.
func extractTarGz(data []byte, dest string) error {
	gzr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer gzr.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create extraction directory: %w", err)
	}

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}

		target, err := safeJoin(dest, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", header.Name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create parent of %s: %w", header.Name, err)
			}
			if err := writeFile(tr, target, header.FileInfo().Mode()); err != nil {
				return fmt.Errorf("write %s: %w", header.Name, err)
			}
		default:
			// Crate archives carry only regular files and directories.
			continue
		}
	}
	return nil
}

func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, name)
	if target != dest && !strings.HasPrefix(target, dest+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes extraction directory: %s", name)
	}
	return target, nil
}

func writeFile(r io.Reader, target string, mode os.FileMode) error {
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, io.LimitReader(r, maxExtractedFileSize)); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
