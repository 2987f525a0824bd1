/*
Package dataset provides line-addressable access to newline-delimited
record files. A dataset either keeps every line in memory or retains only
byte offsets and re-reads lines from disk on demand.
*/
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Mode selects how lines are retrieved after loading.
type Mode int

const (
	// InMemory retains every line.
	InMemory Mode = iota
	// OnDisk retains byte offsets and seeks into the file per retrieval.
	OnDisk
)

// Handler receives each line during Load, with its dense line id.
type Handler func(id uint32, line string)

// Dataset is a line store over one file. Load it once; afterwards Get is
// safe from concurrent goroutines (disk reads are serialized on the shared
// handle).
type Dataset struct {
	path string
	mode Mode

	elements []string
	offsets  []int64

	mu    sync.Mutex
	file  *os.File
	ready bool
}

// New creates an unloaded dataset for the given file.
func New(path string, mode Mode) *Dataset {
	return &Dataset{path: path, mode: mode}
}

// Load reads the file line by line, invoking handler for every physical
// line, blanks included, so line ids stay dense and aligned with disk
// offsets. The abort flag is checked between lines for cooperative
// cancellation. An error opening the file is returned before any handler
// call; a read error mid-stream is returned after partial ingestion, with
// the dataset left not ready.
func (d *Dataset) Load(abort *atomic.Bool, handler Handler) error {
	f, err := os.Open(d.path)
	if err != nil {
		return fmt.Errorf("open dataset %s: %w", d.path, err)
	}

	reader := bufio.NewReader(f)
	var id uint32
	var offset int64
	for {
		if abort != nil && abort.Load() {
			log.Warnf("dataset %s: load aborted at line %d", d.path, id)
			f.Close()
			return nil
		}
		raw, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			f.Close()
			return fmt.Errorf("read dataset %s at line %d: %w", d.path, id, err)
		}
		eof := err == io.EOF
		line := strings.TrimSuffix(raw, "\n")
		if eof && line == "" {
			break
		}
		handler(id, line)
		if d.mode == InMemory {
			d.elements = append(d.elements, line)
		} else {
			d.offsets = append(d.offsets, offset)
		}
		offset += int64(len(raw))
		id++
		if eof {
			break
		}
	}

	if d.mode == InMemory {
		f.Close()
	} else {
		d.file = f
	}
	d.ready = true
	return nil
}

// Restore readies a disk-mode dataset from previously recorded offsets,
// skipping the file scan. The offsets must describe the current file
// contents.
func (d *Dataset) Restore(offsets []int64) error {
	if d.mode != OnDisk {
		return fmt.Errorf("dataset %s: restore requires disk mode", d.path)
	}
	f, err := os.Open(d.path)
	if err != nil {
		return fmt.Errorf("open dataset %s: %w", d.path, err)
	}
	d.file = f
	d.offsets = offsets
	d.ready = true
	return nil
}

// Get returns the line with the given id: the stored string in memory mode,
// a seek-and-read in disk mode. Valid as long as the underlying file is not
// mutated at runtime.
func (d *Dataset) Get(id uint32) (string, error) {
	if d.mode == InMemory {
		if int(id) >= len(d.elements) {
			return "", fmt.Errorf("dataset %s: no element %d", d.path, id)
		}
		return d.elements[id], nil
	}

	if int(id) >= len(d.offsets) {
		return "", fmt.Errorf("dataset %s: no element %d", d.path, id)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.file.Seek(d.offsets[id], io.SeekStart); err != nil {
		return "", fmt.Errorf("seek dataset %s: %w", d.path, err)
	}
	line, err := bufio.NewReader(d.file).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read dataset %s: %w", d.path, err)
	}
	return strings.TrimSuffix(line, "\n"), nil
}

// Len returns the number of lines loaded.
func (d *Dataset) Len() int {
	if d.mode == InMemory {
		return len(d.elements)
	}
	return len(d.offsets)
}

// Offsets returns the recorded byte offsets (disk mode only).
func (d *Dataset) Offsets() []int64 {
	return d.offsets
}

// Ready reports whether loading reached EOF without error.
func (d *Dataset) Ready() bool {
	return d.ready
}

// Path returns the dataset file path.
func (d *Dataset) Path() string {
	return d.path
}

// Disk reports whether the dataset is disk-backed.
func (d *Dataset) Disk() bool {
	return d.mode == OnDisk
}

// Close releases the disk-mode file handle.
func (d *Dataset) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// Ref points at one line of a dataset. It is the meta payload the server
// stores per database record, resolved back to bytes at response time.
type Ref struct {
	Store *Dataset
	Line  uint32
}

// Text returns the referenced line. A failed disk read logs and yields an
// empty JSON object so a single bad element cannot poison a response body.
func (r Ref) Text() string {
	line, err := r.Store.Get(r.Line)
	if err != nil {
		log.Errorf("resolve element: %v", err)
		return "{}"
	}
	return line
}
