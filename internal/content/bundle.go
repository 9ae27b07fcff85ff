package content

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"path"
	"strings"
	"testing/fstest"

	"github.com/keithlinneman/celestialexplorer-web/internal/xerrors"
)

const (
	// maxBundleSize is the largest compressed bundle accepted from S3.
	maxBundleSize int64 = 20 * 1024 * 1024

	// maxSingleFile is the largest file accepted inside a bundle.
	maxSingleFile int64 = 2 * 1024 * 1024

	// maxTotalExtract caps the sum of all extracted files.
	maxTotalExtract int64 = 50 * 1024 * 1024

	// maxSignatureSize caps a detached signature object.
	maxSignatureSize int64 = 16 * 1024
)

// readWithHash reads r up to maxSize bytes and returns the data with its
// hex SHA-256. Reading maxSize+1 bytes is an error.
func readWithHash(r io.Reader, maxSize int64) ([]byte, string, error) {
	h := sha256.New()
	data, err := io.ReadAll(io.TeeReader(io.LimitReader(r, maxSize+1), h))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > maxSize {
		return nil, "", xerrors.Newf("content exceeds max size (limit %d bytes)", maxSize)
	}
	return data, hex.EncodeToString(h.Sum(nil)), nil
}

// extractTarGzToMem unpacks a tar.gz into an in-memory filesystem. Only
// regular files and directories are accepted.
func extractTarGzToMem(data []byte) (fs.FS, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, xerrors.Wrap(err, "open gzip")
	}
	defer gr.Close()

	mfs := make(fstest.MapFS)
	tr := tar.NewReader(gr)
	var total int64

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, xerrors.Wrap(err, "read tar header")
		}

		name, err := cleanEntryName(hdr.Name)
		if err != nil {
			return nil, err
		}
		if name == "" {
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			continue
		case tar.TypeReg:
			if hdr.Size > maxSingleFile {
				return nil, xerrors.Newf("file %s exceeds max size (%d > %d)", name, hdr.Size, maxSingleFile)
			}
			body, err := io.ReadAll(io.LimitReader(tr, maxSingleFile+1))
			if err != nil {
				return nil, xerrors.Wrapf(err, "read %s", name)
			}
			if int64(len(body)) > maxSingleFile {
				return nil, xerrors.Newf("file %s exceeds max size after read", name)
			}
			total += int64(len(body))
			if total > maxTotalExtract {
				return nil, xerrors.Newf("total extracted size exceeds limit (max %d bytes)", maxTotalExtract)
			}
			mfs[name] = &fstest.MapFile{Data: body, Mode: hdr.FileInfo().Mode().Perm()}
		default:
			return nil, xerrors.Newf("unsupported entry type in archive: %s (type=%d)", name, hdr.Typeflag)
		}
	}
	return mfs, nil
}

// cleanEntryName returns the fs.FS name for a tar entry, "" for the root.
// Leading "./" is accepted, ".." anywhere is not.
func cleanEntryName(raw string) (string, error) {
	if path.IsAbs(raw) {
		return "", xerrors.Newf("absolute path in archive: %s", raw)
	}
	for _, seg := range strings.Split(raw, "/") {
		if seg == ".." {
			return "", xerrors.Newf("path traversal in archive: %s", raw)
		}
	}
	name := path.Clean(raw)
	if name == "." {
		return "", nil
	}
	if !fs.ValidPath(name) {
		return "", xerrors.Newf("invalid path in archive: %s", raw)
	}
	return name, nil
}
