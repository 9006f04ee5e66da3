package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DiskCache stores fetched registration documents on disk so a panel
// restart does not refetch every page. Entries expire by age alone;
// there is no size-based eviction.
//
// The on-disk layout follows NuGet.Client's HTTP cache: one directory
// per source URL, named by a truncated SHA-256 of the URL with a
// readable tail, holding one .dat file per cache key. Sharing the
// layout means a machine's existing NuGet cache tooling can inspect
// ours.
type DiskCache struct {
	rootDir string
}

// NewDiskCache opens (creating if needed) a cache rooted at rootDir.
func NewDiskCache(rootDir string) (*DiskCache, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &DiskCache{rootDir: rootDir}, nil
}

// hashLength truncates the SHA-256 to SHA-1 length, the width
// NuGet.Client kept for compatibility with its older caches.
const hashLength = 20

// hashURL names the per-source directory: a truncated hex hash plus
// the URL's last characters so a human browsing the cache can tell
// sources apart.
func hashURL(value string) string {
	trailing := value
	if len(value) > 32 {
		trailing = value[len(value)-32:]
	}

	h := sha256.Sum256([]byte(value))
	return hex.EncodeToString(h[:hashLength]) + "$" + trailing
}

// sanitizeFileName replaces characters the filesystem rejects with
// underscores and collapses runs of them.
func sanitizeFileName(value string) string {
	invalid := invalidFileNameChars()

	var sb strings.Builder
	sb.Grow(len(value))
	for _, ch := range value {
		if strings.ContainsRune(invalid, ch) {
			sb.WriteRune('_')
		} else {
			sb.WriteRune(ch)
		}
	}

	result := sb.String()
	for strings.Contains(result, "__") {
		result = strings.ReplaceAll(result, "__", "_")
	}
	return result
}

func invalidFileNameChars() string {
	if filepath.Separator == '\\' {
		return "<>:\"/\\|?*\x00"
	}
	return "/\x00"
}

// entryPath locates the cache file for a source URL and key.
func (dc *DiskCache) entryPath(sourceURL, cacheKey string) string {
	dir := sanitizeFileName(hashURL(sourceURL))
	file := sanitizeFileName(cacheKey) + ".dat"
	return filepath.Join(dc.rootDir, dir, file)
}

// Get returns a reader over the cached entry when one exists and is
// younger than maxAge. The caller owns closing the reader.
func (dc *DiskCache) Get(sourceURL, cacheKey string, maxAge time.Duration) (io.ReadCloser, bool, error) {
	cacheFile := dc.entryPath(sourceURL, cacheKey)

	info, err := os.Stat(cacheFile)
	if err != nil {
		return nil, false, nil
	}
	if time.Since(info.ModTime()) >= maxAge {
		return nil, false, nil
	}

	file, err := os.OpenFile(cacheFile, os.O_RDONLY, 0644)
	if err != nil {
		return nil, false, nil
	}
	return file, true, nil
}

// Set writes data as the entry for sourceURL and cacheKey. The write
// is two-phase: the bytes land in a unique temp file first and are
// renamed into place, so a concurrent Get never observes a partial
// entry.
func (dc *DiskCache) Set(sourceURL, cacheKey string, data io.Reader) error {
	cacheFile := dc.entryPath(sourceURL, cacheKey)
	newFile := cacheFile + fmt.Sprintf("-new.%d", time.Now().UnixNano())

	if err := os.MkdirAll(filepath.Dir(newFile), 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tempFile, err := os.OpenFile(newFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = tempFile.Close() }()

	if _, err := io.Copy(tempFile, data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(newFile, cacheFile); err == nil {
		return nil
	}

	// On Windows the rename fails when the destination exists. Follow
	// NuGet.Client: remove and retry unless another writer holds the
	// file, in which case their entry is as good as ours.
	if fileExists(cacheFile) {
		if fileInUse(cacheFile) {
			_ = os.Remove(newFile)
			return nil
		}
		_ = os.Remove(cacheFile)
		if err := os.Rename(newFile, cacheFile); err != nil {
			if fileExists(cacheFile) {
				// A concurrent writer won the race.
				_ = os.Remove(newFile)
				return nil
			}
			return fmt.Errorf("move cache file: %w", err)
		}
		return nil
	}

	_ = os.Remove(newFile)
	return fmt.Errorf("rename cache file: destination missing")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// fileInUse reports whether another process holds the file open, as
// far as an exclusive open attempt can tell.
func fileInUse(path string) bool {
	file, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return !os.IsNotExist(err)
	}
	_ = file.Close()
	return false
}
