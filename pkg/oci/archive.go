package oci

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"
)

// maxFileSize caps a single extracted file (100MB), guarding against
// decompression bombs from untrusted registries.
const maxFileSize = 100 * 1024 * 1024

// gzipOSUnknown is the "unknown" OS value in gzip headers (RFC 1952),
// used for cross-platform reproducibility.
const gzipOSUnknown = 255

// FileEntry is one file inside a skill layer archive.
type FileEntry struct {
	Path    string // relative path within the archive
	Content []byte
	Mode    int64 // defaults to 0644
}

// CreateTarGz builds a reproducible tar.gz layer from the given files:
// sorted entries, epoch timestamps, normalized headers. Identical input
// always yields an identical layer digest.
func CreateTarGz(files []FileEntry) ([]byte, error) {
	sorted := make([]FileEntry, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	epoch := time.Unix(0, 0).UTC()

	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	for _, f := range sorted {
		mode := f.Mode
		if mode == 0 {
			mode = 0o644
		}
		hdr := &tar.Header{
			Name:     f.Path,
			Size:     int64(len(f.Content)),
			Mode:     mode,
			ModTime:  epoch,
			Typeflag: tar.TypeReg,
			Format:   tar.FormatPAX,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, fmt.Errorf("writing tar header for %s: %w", f.Path, err)
		}
		if _, err := tw.Write(f.Content); err != nil {
			return nil, fmt.Errorf("writing tar content for %s: %w", f.Path, err)
		}
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("closing tar writer: %w", err)
	}

	var gzBuf bytes.Buffer
	gw, err := gzip.NewWriterLevel(&gzBuf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("creating gzip writer: %w", err)
	}
	gw.ModTime = epoch
	gw.OS = gzipOSUnknown
	if _, err := gw.Write(tarBuf.Bytes()); err != nil {
		return nil, fmt.Errorf("compressing layer: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("closing gzip writer: %w", err)
	}

	return gzBuf.Bytes(), nil
}

// ExtractTarGz unpacks a skill layer. It rejects symlinks, hardlinks,
// device entries, absolute paths, and path traversal, and enforces a
// per-file size limit.
func ExtractTarGz(data []byte) ([]FileEntry, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer func() { _ = gr.Close() }()

	tr := tar.NewReader(gr)
	var files []FileEntry
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar header: %w", err)
		}

		if err := validateArchivePath(hdr.Name); err != nil {
			return nil, err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			continue
		case tar.TypeReg:
		default:
			return nil, fmt.Errorf("archive contains disallowed entry type %d: %s", hdr.Typeflag, hdr.Name)
		}

		if hdr.Size > maxFileSize {
			return nil, fmt.Errorf("file %s exceeds maximum size of %d bytes", hdr.Name, int64(maxFileSize))
		}

		content, err := io.ReadAll(io.LimitReader(tr, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("reading tar content for %s: %w", hdr.Name, err)
		}
		if len(content) > maxFileSize {
			return nil, fmt.Errorf("file %s exceeds maximum size of %d bytes", hdr.Name, int64(maxFileSize))
		}

		files = append(files, FileEntry{Path: hdr.Name, Content: content, Mode: hdr.Mode})
	}

	return files, nil
}

func validateArchivePath(p string) error {
	cleaned := path.Clean(p)
	if strings.HasPrefix(cleaned, "..") {
		return fmt.Errorf("path traversal detected in archive: %s", p)
	}
	if path.IsAbs(cleaned) {
		return fmt.Errorf("absolute path not allowed in archive: %s", p)
	}
	return nil
}
