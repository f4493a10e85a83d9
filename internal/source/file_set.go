package source

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fortio.org/safecast"
)

// ErrUnresolvedSpan reports a dangling span: an unknown file id or an
// offset past the end of the file. It is always a programming error in
// the producer, fatal to rendering that one diagnostic but not to the run.
var ErrUnresolvedSpan = errors.New("unresolved span")

// FileSet manages a collection of source files and resolves spans into
// line/column positions. It is immutable once all files are added and is
// safe to share read-only across concurrent consumers.
type FileSet struct {
	files   []File
	index   map[string]FileID // path -> id
	baseDir string
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0),
		index: make(map[string]FileID),
	}
}

// NewFileSetWithBase creates a FileSet with a base directory for
// relative path display.
func NewFileSetWithBase(baseDir string) *FileSet {
	return &FileSet{
		files:   make([]File, 0),
		index:   make(map[string]FileID),
		baseDir: baseDir,
	}
}

// SetBaseDir sets the base directory used for relative paths.
func (fileSet *FileSet) SetBaseDir(dir string) {
	fileSet.baseDir = dir
}

// BaseDir returns the base directory, falling back to the working directory.
func (fileSet *FileSet) BaseDir() string {
	if fileSet.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return fileSet.baseDir
}

// Add stores a file from normalized bytes, computes LineIdx and Hash, and
// returns a new FileID. A later file with the same path shadows the earlier
// one in the path index.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	content, renormed := normalizeNFC(content)
	if renormed {
		flags |= FileNormalizedNFC
	}
	hash := sha256.Sum256(content)
	lineIdx := buildLineIndex(content)
	normalizedPath := normalizePath(path)

	lenFiles, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(lenFiles)
	fileSet.files = append(fileSet.files, File{
		ID:      id,
		Path:    normalizedPath,
		Content: content,
		LineIdx: lineIdx,
		Hash:    hash,
		Flags:   flags,
	})
	fileSet.index[normalizedPath] = id
	return id
}

// Load reads a file from disk, normalizes CRLF/BOM, and calls Add.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	flags := FileFlags(0)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fileSet.Add(path, content, flags), nil
}

// AddVirtual adds an in-memory file (manifest source, test, stdin) with the
// FileVirtual flag. CRLF is normalized the same way Load does it.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	content, hadCRLF := normalizeCRLF(content)
	flags := FileVirtual
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fileSet.Add(name, content, flags)
}

// Len returns the number of files in the set.
func (fileSet *FileSet) Len() int {
	return len(fileSet.files)
}

// HasFile reports whether id refers to a file in this set.
func (fileSet *FileSet) HasFile(id FileID) bool {
	return int(id) < len(fileSet.files)
}

// Get returns the file metadata for the given ID, or nil when unknown.
func (fileSet *FileSet) Get(id FileID) *File {
	if !fileSet.HasFile(id) {
		return nil
	}
	return &fileSet.files[id]
}

// GetByPath returns the latest *File registered under path.
func (fileSet *FileSet) GetByPath(path string) (*File, bool) {
	if id, ok := fileSet.index[normalizePath(path)]; ok {
		return &fileSet.files[id], true
	}
	return nil, false
}

// Resolve converts a span into 1-based line and rune-column positions.
// Dangling spans yield ErrUnresolvedSpan.
func (fileSet *FileSet) Resolve(span Span) (start, end LineCol, err error) {
	f := fileSet.Get(span.File)
	if f == nil {
		return LineCol{}, LineCol{}, fmt.Errorf("%w: unknown file id %d", ErrUnresolvedSpan, span.File)
	}
	lenContent, convErr := safecast.Conv[uint32](len(f.Content))
	if convErr != nil {
		return LineCol{}, LineCol{}, fmt.Errorf("content length overflow: %w", convErr)
	}
	if span.Start > span.End || span.End > lenContent {
		return LineCol{}, LineCol{}, fmt.Errorf("%w: span %s exceeds %q (%d bytes)",
			ErrUnresolvedSpan, span, f.Path, lenContent)
	}
	return f.position(span.Start), f.position(span.End), nil
}

// LineText returns the text of the 1-based line number, without the
// trailing newline. Unknown files or line numbers yield ErrUnresolvedSpan.
func (fileSet *FileSet) LineText(id FileID, line uint32) (string, error) {
	f := fileSet.Get(id)
	if f == nil {
		return "", fmt.Errorf("%w: unknown file id %d", ErrUnresolvedSpan, id)
	}
	// a file ending in \n still has an addressable empty line after it,
	// which is where zero-width end-of-file spans land
	if line == 0 || line > uint32(len(f.LineIdx))+1 {
		return "", fmt.Errorf("%w: %q has no line %d", ErrUnresolvedSpan, f.Path, line)
	}
	return f.GetLine(line), nil
}

func (f *File) position(off uint32) LineCol {
	line := lineForOffset(f.LineIdx, off)
	var lineStart uint32
	if line > 0 {
		lineStart = f.LineIdx[line-1] + 1
	}
	return LineCol{
		Line: uint32(line) + 1,
		Col:  runeCol(f.Content, lineStart, off),
	}
}

// NumLines returns the number of lines in the file. A file without a
// trailing newline still counts its last partial line.
func (f *File) NumLines() uint32 {
	n := uint32(len(f.LineIdx))
	if len(f.Content) == 0 {
		return 1
	}
	if f.Content[len(f.Content)-1] != '\n' {
		n++
	}
	return n
}

// LineStartOffset returns the byte offset of the first byte of the
// 1-based line number.
func (f *File) LineStartOffset(line uint32) uint32 {
	if line <= 1 {
		return 0
	}
	idx := line - 2
	if int(idx) < len(f.LineIdx) {
		return f.LineIdx[idx] + 1
	}
	lenContent, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	return lenContent
}

// LineEndOffset returns the byte offset one past the last content byte of
// the 1-based line number, excluding the newline.
func (f *File) LineEndOffset(line uint32) uint32 {
	lenContent, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	if line == 0 {
		return 0
	}
	if (line - 1) < uint32(len(f.LineIdx)) {
		return f.LineIdx[line-1]
	}
	return lenContent
}

// GetLine returns the 1-based line without its newline, or "" when the
// line does not exist.
func (f *File) GetLine(lineNum uint32) string {
	if lineNum == 0 || lineNum > f.NumLines() {
		return ""
	}
	start := f.LineStartOffset(lineNum)
	end := f.LineEndOffset(lineNum)
	if start >= end {
		return ""
	}
	return string(f.Content[start:end])
}

// FormatPath formats the file path for display.
// mode: "absolute", "relative", "basename", "auto".
func (f *File) FormatPath(mode, baseDir string) string {
	switch mode {
	case "absolute":
		if abs, err := AbsolutePath(f.Path); err == nil {
			return abs
		}
		return f.Path

	case "relative":
		if baseDir == "" {
			if wd, err := os.Getwd(); err == nil {
				baseDir = wd
			}
		}
		if rel, err := RelativePath(f.Path, baseDir); err == nil {
			return rel
		}
		return f.Path

	case "basename":
		return BaseName(f.Path)

	case "auto":
		// short or relative paths stay as-is, long absolute ones shrink
		if len(f.Path) < 40 || !filepath.IsAbs(f.Path) {
			return f.Path
		}
		return BaseName(f.Path)

	default:
		return f.Path
	}
}
