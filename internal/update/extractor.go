package update

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// defaultFilePerm applies to archive entries that carry no permission bits.
const defaultFilePerm os.FileMode = 0o644

// Archive is an opened zip archive with random access to its entries.
type Archive struct {
	reader *zip.Reader
	closer io.Closer
}

// Entries returns the archive's entries in archive order.
func (a *Archive) Entries() []*zip.File {
	return a.reader.File
}

// Close releases the underlying file, if any.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Summary counts what an extraction wrote.
type Summary struct {
	Files int   `json:"files" yaml:"files"`
	Dirs  int   `json:"dirs" yaml:"dirs"`
	Bytes int64 `json:"bytes" yaml:"bytes"`
}

// Extractor installs zip archives under an installation root.
type Extractor struct {
	replacer *FileReplacer
	logger   *log.Logger
}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{
		replacer: NewFileReplacer(),
		logger:   log.New(io.Discard),
	}
}

// WithLogger sets the logger
func (e *Extractor) WithLogger(l *log.Logger) *Extractor {
	e.logger = l
	return e
}

// Open opens the zip archive at path. Entry names are checked by Extract,
// so archives with non-local names still open.
func (e *Extractor) Open(path string) (*Archive, error) {
	rc, err := zip.OpenReader(path)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("%w: %v", ErrArchive, err)
	}
	return &Archive{reader: &rc.Reader, closer: rc}, nil
}

// OpenBytes opens an in-memory zip archive.
func (e *Extractor) OpenBytes(b []byte) (*Archive, error) {
	r := bytes.NewReader(b)
	z, err := zip.NewReader(r, r.Size())
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("%w: %v", ErrArchive, err)
	}
	return &Archive{reader: z}, nil
}

// ExtractBytes opens b as a zip archive and extracts it under root.
func (e *Extractor) ExtractBytes(b []byte, root string) (Summary, error) {
	archive, err := e.OpenBytes(b)
	if err != nil {
		return Summary{}, err
	}
	return e.Extract(archive, root)
}

// plannedEntry is an archive entry with its validated destination.
type plannedEntry struct {
	file   *zip.File
	target string
	isDir  bool
}

// Extract writes every entry of archive under root, in archive order,
// overwriting existing files. Every destination is validated before the
// first write: an entry that would land outside root fails the whole
// extraction with PathTraversalError and nothing is written. A failure
// while writing leaves earlier entries in place.
func (e *Extractor) Extract(archive *Archive, root string) (Summary, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %v", ErrIO, err)
	}

	plan, err := planEntries(archive.Entries(), root)
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	for _, p := range plan {
		if p.isDir {
			if err := os.MkdirAll(p.target, 0o755); err != nil {
				return sum, fmt.Errorf("%w: creating %s: %v", ErrIO, p.file.Name, err)
			}
			sum.Dirs++
			continue
		}

		n, err := e.writeEntry(p)
		if err != nil {
			return sum, err
		}
		sum.Files++
		sum.Bytes += n
		e.logger.Debug("extracted", "entry", p.file.Name)
	}

	return sum, nil
}

func (e *Extractor) writeEntry(p plannedEntry) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(p.target), 0o755); err != nil {
		return 0, fmt.Errorf("%w: creating parent of %s: %v", ErrIO, p.file.Name, err)
	}

	rc, err := p.file.Open()
	if err != nil {
		return 0, fmt.Errorf("%w: opening %s: %v", ErrIO, p.file.Name, err)
	}
	defer rc.Close()

	perm := p.file.Mode().Perm()
	if perm == 0 {
		perm = defaultFilePerm
	}

	counter := &countingReader{r: rc}
	if err := e.replacer.Replace(p.target, counter, perm); err != nil {
		return counter.n, err
	}
	return counter.n, nil
}

// planEntries resolves and validates every entry's destination.
func planEntries(files []*zip.File, root string) ([]plannedEntry, error) {
	plan := make([]plannedEntry, 0, len(files))
	for _, f := range files {
		target, err := resolveUnder(root, f.Name)
		if err != nil {
			return nil, &PathTraversalError{Entry: f.Name, Root: root}
		}

		isDir := f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/")
		if !isDir && target == root {
			return nil, fmt.Errorf("%w: entry %q resolves to the installation root", ErrIO, f.Name)
		}

		plan = append(plan, plannedEntry{file: f, target: target, isDir: isDir})
	}
	return plan, nil
}

// resolveUnder joins rel onto root and returns the cleaned absolute path.
// It fails unless the result is root or a descendant of root. Backslashes
// count as separators on every platform.
func resolveUnder(root, rel string) (string, error) {
	rel = strings.ReplaceAll(rel, `\`, "/")
	target := filepath.Join(root, filepath.FromSlash(rel))

	r, err := filepath.Rel(root, target)
	if err != nil {
		return "", err
	}
	if r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s escapes %s", rel, root)
	}
	return target, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
