// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bench

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/abdoukaba/Autogen-BIRD/internal/errors"
)

// DefaultDatasetURL points at the published BIRD mini-dev archive.
const DefaultDatasetURL = "https://bird-bench.oss-cn-beijing.aliyuncs.com/minidev.zip"

// Fetch downloads the dataset zip and unpacks it under destDir, returning
// the extraction root. A previously extracted copy is reused unless force is
// set. When checksum (hex SHA-256 of the zip) is non-empty the download is
// verified before anything is unpacked.
func Fetch(ctx context.Context, url, destDir, checksum string, force bool) (string, error) {
	root := filepath.Join(destDir, datasetDirName(url))
	if !force {
		if _, err := os.Stat(root); err == nil {
			return root, nil
		}
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", apperrors.Wrap(apperrors.Dataset, "create dataset dir", err)
	}

	zipPath, err := download(ctx, url, destDir, checksum)
	if err != nil {
		return "", err
	}
	defer os.Remove(zipPath)

	if err := os.RemoveAll(root); err != nil {
		return "", apperrors.Wrap(apperrors.Dataset, "clear previous extraction", err)
	}
	if err := unzip(zipPath, root); err != nil {
		return "", err
	}
	return root, nil
}

func datasetDirName(url string) string {
	base := filepath.Base(url)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// download streams the archive to a temp file, hashing as it copies so the
// checksum never requires a second pass over a multi-gigabyte file.
func download(ctx context.Context, url, destDir, checksum string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", apperrors.Wrap(apperrors.Dataset, "create request", err)
	}
	req.Header.Set("User-Agent", "birdsql/1.0")

	client := &http.Client{Timeout: 30 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.Dataset, fmt.Sprintf("fetch %s", url), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", apperrors.New(apperrors.Dataset, fmt.Sprintf("fetch %s: server returned status %d", url, resp.StatusCode))
	}

	tmp, err := os.CreateTemp(destDir, "dataset-*.zip")
	if err != nil {
		return "", apperrors.Wrap(apperrors.Dataset, "create temp file", err)
	}
	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hasher), resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", apperrors.Wrap(apperrors.Dataset, "download dataset", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", apperrors.Wrap(apperrors.Dataset, "flush download", err)
	}

	if checksum != "" {
		got := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(got, checksum) {
			os.Remove(tmp.Name())
			return "", apperrors.New(apperrors.Dataset,
				fmt.Sprintf("checksum mismatch: got %s, want %s", got, checksum))
		}
	}
	return tmp.Name(), nil
}

func unzip(zipPath, root string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return apperrors.Wrap(apperrors.Dataset, "open archive", err)
	}
	defer r.Close()

	for _, f := range r.File {
		target := filepath.Join(root, f.Name)
		// Reject entries that escape the extraction root.
		if !strings.HasPrefix(target, filepath.Clean(root)+string(os.PathSeparator)) {
			return apperrors.New(apperrors.Dataset, fmt.Sprintf("archive entry %q escapes extraction root", f.Name))
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return apperrors.Wrap(apperrors.Dataset, fmt.Sprintf("create %s", target), err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return apperrors.Wrap(apperrors.Dataset, fmt.Sprintf("create %s", filepath.Dir(target)), err)
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	src, err := f.Open()
	if err != nil {
		return apperrors.Wrap(apperrors.Dataset, fmt.Sprintf("open archive entry %s", f.Name), err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return apperrors.Wrap(apperrors.Dataset, fmt.Sprintf("create %s", target), err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return apperrors.Wrap(apperrors.Dataset, fmt.Sprintf("extract %s", f.Name), err)
	}
	return nil
}
