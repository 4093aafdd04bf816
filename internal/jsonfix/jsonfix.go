// Package jsonfix repairs table dumps whose string literals contain raw
// line breaks, which strict JSON decoders reject.
package jsonfix

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsmiamoto/rebalance/internal/record"
)

// LogFileName is the report written by the fixjson command.
const LogFileName = "json_fix_log.txt"

const snippetRunes = 50

// Repair describes one repaired string literal.
type Repair struct {
	// Line is the 1-based line on which the literal starts.
	Line    int
	Snippet string
}

// FileFixes lists the repairs made in one file.
type FileFixes struct {
	Path  string
	Fixes []Repair
}

// FileError records a file that could not be repaired.
type FileError struct {
	Path string
	Err  error
}

// Summary is the outcome of FixTree.
type Summary struct {
	Root   string
	Files  []FileFixes
	Errors []FileError
}

// Fix rewrites every double-quoted literal in content that contains a raw
// CR or LF: CRs are dropped and LFs become the two-character escape \n.
// Text outside literals is copied unchanged.
func Fix(content []byte) ([]byte, []Repair) {
	var (
		out   bytes.Buffer
		fixes []Repair
		line  = 1
	)
	out.Grow(len(content))

	i := 0
	for i < len(content) {
		c := content[i]
		if c != '"' {
			if c == '\n' {
				line++
			}
			out.WriteByte(c)
			i++
			continue
		}

		end, ok := literalEnd(content, i+1)
		if !ok {
			out.Write(content[i:])
			break
		}
		inner := content[i+1 : end]
		startLine := line
		line += bytes.Count(inner, []byte{'\n'})

		if bytes.ContainsAny(inner, "\r\n") {
			fixed := bytes.ReplaceAll(inner, []byte{'\r'}, nil)
			fixed = bytes.ReplaceAll(fixed, []byte{'\n'}, []byte(`\n`))
			out.WriteByte('"')
			out.Write(fixed)
			out.WriteByte('"')
			fixes = append(fixes, Repair{Line: startLine, Snippet: snippet(string(inner))})
		} else {
			out.Write(content[i : end+1])
		}
		i = end + 1
	}

	if len(fixes) == 0 {
		return content, nil
	}
	return out.Bytes(), fixes
}

// literalEnd returns the index of the quote closing a literal whose body
// starts at from.
func literalEnd(content []byte, from int) (int, bool) {
	for j := from; j < len(content); j++ {
		switch content[j] {
		case '\\':
			j++
		case '"':
			return j, true
		}
	}
	return 0, false
}

func snippet(inner string) string {
	s := strings.ReplaceAll(inner, "\n", " ")
	runes := []rune(s)
	if len(runes) > snippetRunes {
		runes = runes[:snippetRunes]
	}
	return string(runes)
}

// FixTree repairs every file under root whose name ends in ext. Files that
// need no repair are not rewritten. A file that cannot be read or written
// is recorded in the summary and the walk continues.
func FixTree(ctx context.Context, root, ext string, logger *slog.Logger) (Summary, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	summary := Summary{Root: root}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			summary.Errors = append(summary.Errors, FileError{Path: path, Err: walkErr})
			logger.Error("walk_failed", "path", path, "error", walkErr)
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ext) {
			return nil
		}

		fixes, err := fixFile(path)
		if err != nil {
			summary.Errors = append(summary.Errors, FileError{Path: path, Err: err})
			logger.Error("json_fix_failed", "path", path, "error", err)
			return nil
		}
		if len(fixes) > 0 {
			summary.Files = append(summary.Files, FileFixes{Path: path, Fixes: fixes})
			logger.Info("json_fixed", "path", path, "literals", len(fixes))
		}
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("scan %s: %w", root, err)
	}
	return summary, nil
}

func fixFile(path string) ([]Repair, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	fixed, fixes := Fix(content)
	if len(fixes) == 0 {
		return nil, nil
	}
	if err := record.WriteAtomic(path, fixed); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	return fixes, nil
}

// WriteLog writes the plain-text repair report.
func WriteLog(w io.Writer, s Summary, now time.Time) error {
	rule := strings.Repeat("=", 60)
	var b strings.Builder
	fmt.Fprintf(&b, "Scan Date: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Root Directory: %s\n", s.Root)
	fmt.Fprintf(&b, "Total Files Fixed: %d\n", len(s.Files))
	b.WriteString(rule + "\n\n")

	if len(s.Errors) > 0 {
		b.WriteString("ERRORS:\n")
		lines := make([]string, len(s.Errors))
		for i, fe := range s.Errors {
			lines[i] = fmt.Sprintf("ERROR: Could not process %s. Reason: %v", fe.Path, fe.Err)
		}
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n\n" + rule + "\n\n")
	}

	if len(s.Files) == 0 {
		b.WriteString("No issues found or fixed.")
	} else {
		b.WriteString("DETAILED CHANGES:\n")
		var lines []string
		for _, f := range s.Files {
			lines = append(lines, "FILE: "+f.Path)
			for _, fix := range f.Fixes {
				lines = append(lines, fmt.Sprintf("  Line %d: Fixed broken break in string starting with: \"%s...\"", fix.Line, fix.Snippet))
			}
			lines = append(lines, strings.Repeat("-", 40))
		}
		b.WriteString(strings.Join(lines, "\n"))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
