package udiff

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	gitHeaderPattern = regexp.MustCompile(`^diff --git a/(.*) b/(.*)$`)
	oldPathPattern   = regexp.MustCompile(`^--- (?:a/)?(.*?)(?:\t.*)?$`)
	newPathPattern   = regexp.MustCompile(`^\+\+\+ (?:b/)?(.*?)(?:\t.*)?$`)
	hunkPattern      = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)
)

// parser holds the scan state for one Parse call.
type parser struct {
	files   []File
	oldPath *string
	file    *File
	hunk    int // index into file.Hunks, -1 when no hunk is open
	oldLine int
	newLine int
}

// Parse converts unified-diff text into files in input order.
// It never fails: lines it cannot place are skipped.
func Parse(text string) []File {
	if text == "" {
		return nil
	}
	p := &parser{hunk: -1}
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	for i, line := range lines {
		next := ""
		if i+1 < len(lines) {
			next = lines[i+1]
		}
		p.scan(line, next)
	}
	p.flush()
	return p.files
}

// scan handles one line; next is the line after it, or "" at the end.
func (p *parser) scan(line, next string) {
	if p.hunkBody(line, next) {
		p.content(line)
		return
	}
	if gitHeaderPattern.MatchString(line) {
		p.flush()
		p.oldPath = nil
		return
	}
	if m := oldPathPattern.FindStringSubmatch(line); m != nil {
		path := m[1]
		p.oldPath = &path
		return
	}
	if m := newPathPattern.FindStringSubmatch(line); m != nil {
		p.flush()
		if p.oldPath == nil {
			// Orphan +++: drop everything until the next complete pair.
			return
		}
		p.file = &File{OldPath: *p.oldPath, NewPath: m[1]}
		p.oldPath = nil
		return
	}
	if m := hunkPattern.FindStringSubmatch(line); m != nil {
		p.openHunk(m)
		return
	}
	p.content(line)
}

// hunkBody reports whether line belongs to the open hunk even though it
// looks like a path header. Inside a hunk, "---" starts a new file only when
// directly followed by "+++", and "+++" only after such a "---". This keeps
// deleted "-- comment" lines (SQL, Lua) and added "++" lines as changes.
func (p *parser) hunkBody(line, next string) bool {
	if p.file == nil || p.hunk < 0 {
		return false
	}
	switch {
	case strings.HasPrefix(line, "--- "):
		return !strings.HasPrefix(next, "+++ ")
	case strings.HasPrefix(line, "+++ "):
		return p.oldPath == nil
	}
	return false
}

func (p *parser) openHunk(m []string) {
	if p.file == nil {
		return
	}
	oldStart, err1 := strconv.Atoi(m[1])
	oldCount, err2 := countOrOne(m[2])
	newStart, err3 := strconv.Atoi(m[3])
	newCount, err4 := countOrOne(m[4])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return
	}
	p.file.Hunks = append(p.file.Hunks, Hunk{
		OldStart: oldStart,
		OldCount: oldCount,
		NewStart: newStart,
		NewCount: newCount,
	})
	p.hunk = len(p.file.Hunks) - 1
	p.oldLine = oldStart
	p.newLine = newStart
}

func countOrOne(s string) (int, error) {
	if s == "" {
		return 1, nil
	}
	return strconv.Atoi(s)
}

func (p *parser) content(line string) {
	if p.file == nil || p.hunk < 0 || line == "" {
		return
	}
	var l Line
	switch line[0] {
	case '+':
		l = Line{Content: line[1:], Kind: Addition, NewLine: intPtr(p.newLine)}
		p.newLine++
	case '-':
		l = Line{Content: line[1:], Kind: Deletion, OldLine: intPtr(p.oldLine)}
		p.oldLine++
	case ' ':
		l = Line{Content: line[1:], Kind: Context, OldLine: intPtr(p.oldLine), NewLine: intPtr(p.newLine)}
		p.oldLine++
		p.newLine++
	default:
		return
	}
	h := &p.file.Hunks[p.hunk]
	h.Lines = append(h.Lines, l)
}

// flush appends the open file, if any, and clears file and hunk state.
func (p *parser) flush() {
	if p.file != nil {
		p.files = append(p.files, *p.file)
	}
	p.file = nil
	p.hunk = -1
}

func intPtr(n int) *int { return &n }
