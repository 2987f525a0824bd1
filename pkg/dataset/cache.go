package dataset

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// cacheSuffix is appended to the dataset path to name its sidecar file.
const cacheSuffix = ".fcache"

// CachedRecord is the parse result for one physical line: the extracted
// name (empty when the line was blank, malformed, or dropped as a
// duplicate) and the line's starting byte offset.
type CachedRecord struct {
	Name   string `msgpack:"n"`
	Offset int64  `msgpack:"o"`
}

// cacheFile is the msgpack sidecar layout. Size and ModTime pin the cache
// to one state of the source file; a mismatch invalidates it.
type cacheFile struct {
	Size    int64          `msgpack:"size"`
	ModTime int64          `msgpack:"mtime"`
	Records []CachedRecord `msgpack:"records"`
}

// LoadCache reads the sidecar for the given dataset path. It returns the
// cached records and true only when the sidecar exists, decodes, and still
// matches the source file's size and modification time. The in-memory
// index is always rebuilt from these records; only the NDJSON parse is
// skipped.
func LoadCache(path string) ([]CachedRecord, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	data, err := os.ReadFile(path + cacheSuffix)
	if err != nil {
		return nil, false
	}
	var cached cacheFile
	if err := msgpack.Unmarshal(data, &cached); err != nil {
		log.Warnf("record cache %s%s unreadable, ignoring: %v", path, cacheSuffix, err)
		return nil, false
	}
	if cached.Size != info.Size() || cached.ModTime != info.ModTime().UnixNano() {
		log.Debugf("record cache %s%s is stale", path, cacheSuffix)
		return nil, false
	}
	return cached.Records, true
}

// SaveCache writes the sidecar for the given dataset path, stamped with the
// source file's current size and modification time.
func SaveCache(path string, records []CachedRecord) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat dataset %s: %w", path, err)
	}
	data, err := msgpack.Marshal(cacheFile{
		Size:    info.Size(),
		ModTime: info.ModTime().UnixNano(),
		Records: records,
	})
	if err != nil {
		return fmt.Errorf("encode record cache: %w", err)
	}
	if err := os.WriteFile(path+cacheSuffix, data, 0644); err != nil {
		return fmt.Errorf("write record cache: %w", err)
	}
	return nil
}
