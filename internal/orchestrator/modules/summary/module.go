// Package summary is the build-orchestrator module that reports a
// build's output sizes and tracks them against the previous build via
// an on-disk `last_build.hsb` file (spec.md §4.I "post_build"), grounded
// on original_source/bin/src/modules/summary.rs.
package summary

import (
	"encoding/binary"
	"fmt"
	"io/fs"
	"sort"

	"github.com/hemtt-go/hemtt/internal/herrors"
	"github.com/hemtt-go/hemtt/internal/orchestrator"
	"github.com/hemtt-go/hemtt/internal/workspace"
)

const fileName = "last_build.hsb"
const formatVersion = uint32(1)

// entry is one named, sized artifact from a build (a PBO or a loose
// copied file).
type entry struct {
	Name string
	Size uint64
}

// Info is the decoded form of last_build.hsb.
type Info struct {
	Size  uint64
	PBOs  []entry
	Files []entry
}

// Module records each build's total output size, printing the delta
// against the previous run.
type Module struct {
	orchestrator.Base

	// Printf defaults to fmt.Printf; tests substitute it to capture
	// output without touching stdout.
	Printf func(format string, args ...any)
}

// New builds the summary module.
func New() *Module {
	return &Module{Printf: fmt.Printf}
}

func (m *Module) Name() string  { return "summary" }
func (m *Module) Priority() int { return 1000 }

// PostBuild walks ctx.OutFolder, sums PBO and loose-file sizes, compares
// against the previous last_build.hsb (if any), prints a summary, and
// rewrites last_build.hsb.
func (m *Module) PostBuild(ctx *orchestrator.Context) (orchestrator.Report, error) {
	path := ctx.OutFolder.Join(fileName)

	var last Info
	if ctx.Workspace.Exists(path) {
		raw, err := ctx.Workspace.ReadToString(path)
		if err != nil {
			return orchestrator.Report{}, herrors.NewWorkspaceError("read", path.String(), err)
		}
		decoded, err := decode([]byte(raw))
		if err != nil {
			return orchestrator.Report{}, herrors.NewWorkspaceError("decode", path.String(), err)
		}
		last = decoded
	}

	var pbos, files []entry
	err := ctx.Workspace.WalkDir(ctx.OutFolder, func(p workspace.Path, d fs.DirEntry) error {
		if d.IsDir() || p.Base() == fileName {
			return nil
		}
		info, statErr := ctx.Workspace.Metadata(p)
		if statErr != nil {
			return statErr
		}
		e := entry{Name: p.Base(), Size: uint64(info.Size())}
		if p.Ext() == ".pbo" {
			pbos = append(pbos, e)
		} else {
			files = append(files, e)
		}
		return nil
	})
	if err != nil {
		return orchestrator.Report{}, herrors.NewWorkspaceError("walk", ctx.OutFolder.String(), err)
	}
	sort.Slice(pbos, func(i, j int) bool { return pbos[i].Name < pbos[j].Name })
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	var pboSize, fileSize uint64
	for _, e := range pbos {
		pboSize += e.Size
	}
	for _, e := range files {
		fileSize += e.Size
	}
	total := pboSize + fileSize

	m.Printf("Build Summary:\n")
	m.Printf("  PBOs  : %s\n", humanSize(pboSize))
	m.Printf("  Files : %s\n", humanSize(fileSize))
	if last.Size == 0 || total == last.Size {
		m.Printf("  Total : %s\n", humanSize(total))
	} else {
		arrow, diff := "↑", total-last.Size
		if total < last.Size {
			arrow, diff = "↓", last.Size-total
		}
		m.Printf("  Total : %s (%s%s from last build)\n", humanSize(total), arrow, humanSize(diff))
	}

	current := Info{Size: total, PBOs: pbos, Files: files}
	if err := ctx.Workspace.CreateFile(path, encode(current)); err != nil {
		return orchestrator.Report{}, err
	}
	return orchestrator.Report{}, nil
}

func humanSize(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func encode(info Info) []byte {
	buf := make([]byte, 0, 64)
	buf = appendU32(buf, formatVersion)
	buf = appendU64(buf, info.Size)
	buf = appendEntries(buf, info.PBOs)
	buf = appendEntries(buf, info.Files)
	return buf
}

func appendEntries(buf []byte, entries []entry) []byte {
	buf = appendU32(buf, uint32(len(entries)))
	for _, e := range entries {
		buf = appendU32(buf, uint32(len(e.Name)))
		buf = append(buf, e.Name...)
		buf = appendU64(buf, e.Size)
	}
	return buf
}

func appendU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendU64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func decode(data []byte) (Info, error) {
	var info Info
	pos := 0
	readU32 := func() (uint32, error) {
		if pos+4 > len(data) {
			return 0, fmt.Errorf("truncated u32 at %d", pos)
		}
		v := binary.LittleEndian.Uint32(data[pos : pos+4])
		pos += 4
		return v, nil
	}
	readU64 := func() (uint64, error) {
		if pos+8 > len(data) {
			return 0, fmt.Errorf("truncated u64 at %d", pos)
		}
		v := binary.LittleEndian.Uint64(data[pos : pos+8])
		pos += 8
		return v, nil
	}
	readEntries := func() ([]entry, error) {
		count, err := readU32()
		if err != nil {
			return nil, err
		}
		out := make([]entry, 0, count)
		for i := uint32(0); i < count; i++ {
			nameLen, err := readU32()
			if err != nil {
				return nil, err
			}
			if pos+int(nameLen) > len(data) {
				return nil, fmt.Errorf("truncated name at %d", pos)
			}
			name := string(data[pos : pos+int(nameLen)])
			pos += int(nameLen)
			size, err := readU64()
			if err != nil {
				return nil, err
			}
			out = append(out, entry{Name: name, Size: size})
		}
		return out, nil
	}

	version, err := readU32()
	if err != nil {
		return info, err
	}
	if version != formatVersion {
		return info, fmt.Errorf("unsupported last_build.hsb version %d", version)
	}
	if info.Size, err = readU64(); err != nil {
		return info, err
	}
	if info.PBOs, err = readEntries(); err != nil {
		return info, err
	}
	if info.Files, err = readEntries(); err != nil {
		return info, err
	}
	return info, nil
}
