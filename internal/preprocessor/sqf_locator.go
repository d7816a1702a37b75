package preprocessor

import "github.com/hemtt-go/hemtt/internal/sqf"

// SQFLocator adapts Processed to sqf.SourceLocator, letting the script
// compiler attribute instructions back to their original file and line
// through the preprocessor's macro-expansion mappings (spec §4.E
// "Compiled script" source pointers, spec §4.C mapping table).
type SQFLocator struct {
	processed *Processed
	files     []string
	fileIndex map[string]uint16
}

// NewSQFLocator builds a locator over p. fileOrder fixes the file index
// assignment the compiler will also use for Compiled.FileNames; files
// first seen in p's mappings that aren't in fileOrder are appended.
func NewSQFLocator(p *Processed, fileOrder []string) *SQFLocator {
	idx := make(map[string]uint16, len(fileOrder))
	files := make([]string, len(fileOrder))
	copy(files, fileOrder)
	for i, f := range files {
		idx[f] = uint16(i)
	}
	return &SQFLocator{processed: p, files: files, fileIndex: idx}
}

// Files returns the file table accumulated so far, suitable for
// sqf.Compile's fileNames argument.
func (l *SQFLocator) Files() []string { return l.files }

func (l *SQFLocator) indexFor(file string) uint16 {
	if i, ok := l.fileIndex[file]; ok {
		return i
	}
	i := uint16(len(l.files))
	l.files = append(l.files, file)
	l.fileIndex[file] = i
	return i
}

// Locate implements sqf.SourceLocator.
func (l *SQFLocator) Locate(offset int) sqf.SourceInfo {
	m, ok := l.processed.RawMapping(offset)
	if !ok {
		return sqf.SourceInfo{}
	}
	return sqf.SourceInfo{
		Offset:    uint32(m.Original.Start.Offset),
		FileIndex: l.indexFor(m.Original.File),
		Line:      uint16(m.Original.Start.Line),
	}
}

// CleanText implements sqf.SourceLocator: the compiler stores the
// preprocessor's flattened output as the entrypoint's source text, not
// any one original file's contents.
func (l *SQFLocator) CleanText() string { return l.processed.Text }

// CleanSpan implements sqf.SourceLocator. Script AST spans already index
// into the processed text, so nested code blocks need no translation.
func (l *SQFLocator) CleanSpan(span sqf.Span) sqf.Span { return span }
