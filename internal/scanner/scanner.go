// Package scanner walks a library directory and yields candidate
// tracks for analysis, filtered by extension, size, and duration, per
// the library-scanner collaborator contract (§6). ContentHash is
// ported verbatim from the teacher's fileHash.
package scanner

import (
	"crypto/md5"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const hashChunkSize = 1024 * 1024

var allowedExtensions = map[string]bool{
	".mp3": true, ".flac": true, ".wav": true, ".ogg": true,
	".m4a": true, ".aac": true, ".webm": true, ".aiff": true, ".aif": true,
}

const (
	minSizeBytes   = 1 << 20 // 1 MiB
	minDurationSec = 30
	maxDurationSec = 2 * 60 * 60
)

// Entry is a candidate file found while walking a library directory.
type Entry struct {
	Path    string
	Size    int64
	MtimeMs int64
}

// Walk scans root recursively, yielding every file whose extension and
// size clear the filter. Duration filtering happens downstream (a
// scan does not decode), so callers must additionally discard entries
// whose probed duration falls outside [30s, 2h].
func Walk(root string) ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !allowedExtensions[ext] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() < minSizeBytes {
			return nil
		}
		entries = append(entries, Entry{
			Path:    path,
			Size:    info.Size(),
			MtimeMs: info.ModTime().UnixMilli(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// DurationInRange reports whether duration seconds falls within the
// scanner's [30s, 2h] acceptance window.
func DurationInRange(duration float64) bool {
	return duration >= minDurationSec && duration <= maxDurationSec
}

// ContentHash hashes the file's size plus its first and last 1 MiB,
// the same scheme as the teacher's fileHash (matching the Python
// library's get_file_hash so cached analyses survive a rewrite).
func ContentHash(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	size := info.Size()

	h := md5.New()
	fmt.Fprintf(h, "%d", size)

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, hashChunkSize)
	n, _ := f.Read(head)
	h.Write(head[:n])

	if size > hashChunkSize {
		if _, err := f.Seek(-hashChunkSize, io.SeekEnd); err == nil {
			tail := make([]byte, hashChunkSize)
			n, _ := f.Read(tail)
			h.Write(tail[:n])
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
