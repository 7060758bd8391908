// Copyright © 2024 The ELPS authors

// Package parse reads traceback text back into records. It understands the
// interpreter's standard format as well as the aligned format written by
// package render, in either row style and with or without colors.
package parse

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/luthersystems/prettytb/alias"
	"github.com/luthersystems/prettytb/traceback"
)

// ErrNoTraceback is returned when the text holds no traceback header.
var ErrNoTraceback = errors.New("no traceback found")

// Kind classifies a single line of traceback text.
type Kind int

const (
	Text          Kind = iota // anything else, including error lines
	Blank                     // empty or whitespace only
	Indented                  // frame, source or legend line
	AliasesHead               // traceback.AliasesHead
	TracebackHead             // traceback.TracebackHead
	CauseHead                 // traceback.CauseHead
	ContextHead               // traceback.ContextHead
)

// IsHeader reports whether k starts or links a traceback block.
func (k Kind) IsHeader() bool {
	return k >= AliasesHead
}

// Classify returns the kind of line. Color codes are ignored.
func Classify(line string) Kind {
	line = strings.TrimRight(StripANSI(line), " \t\r")
	switch line {
	case "":
		return Blank
	case traceback.AliasesHead:
		return AliasesHead
	case traceback.TracebackHead:
		return TracebackHead
	case traceback.CauseHead:
		return CauseHead
	case traceback.ContextHead:
		return ContextHead
	}
	if line[0] == ' ' || line[0] == '\t' {
		return Indented
	}
	return Text
}

var ansiRegexp = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

// StripANSI removes terminal escape sequences from s.
func StripANSI(s string) string {
	if !strings.Contains(s, "\x1b") {
		return s
	}
	return ansiRegexp.ReplaceAllString(s, "")
}

var (
	fileRegexp     = regexp.MustCompile(`^  File "(?P<module>[^"]+)", line (?P<lineno>\d+)(?:, in (?P<call>.*))?$`)
	caretRegexp    = regexp.MustCompile(`^\s+[\^~]+[\s\^~]*$`)
	repeatRegexp   = regexp.MustCompile(`^\s+\[Previous line repeated \d+ more times?\]$`)
	omittedRegexp  = regexp.MustCompile(`^    \.\.\. \d+ omitted lines$`)
	legendRegexp   = regexp.MustCompile(`^    (?P<alias><[^>\s]*>)\s*: (?P<prefix>.+)$`)
	compactLead    = regexp.MustCompile(`^    <[^>\s]*> `)
	columnsRegexp  = regexp.MustCompile(`^    (?P<module>\S.*?)\s{2,}(?:(?P<call>\S.*?)\s{2,})?(?P<lineno>\d+): ?(?P<ctx>.*?)\s*$`)
	compactRegexp  = regexp.MustCompile(`^    (?P<alias><[^>\s]*>)? (?P<module>\S.*?):(?P<lineno>\d+)(?:\s{2,}(?P<call>\S.*?))?(?:\s{2,}(?P<ctx>\S.*?))?\s*$`)
	columnsIndexes = groupIndexes(columnsRegexp)
	compactIndexes = groupIndexes(compactRegexp)
)

func groupIndexes(re *regexp.Regexp) map[string]int {
	m := make(map[string]int)
	for i, name := range re.SubexpNames() {
		if name != "" {
			m[name] = i
		}
	}
	return m
}

// Parse reads every traceback block of text into a chain, oldest first. A
// block preceded by the cause or context header is flagged accordingly.
// Lines outside of blocks are ignored.
func Parse(text string) (traceback.Chain, error) {
	var p parser
	for _, line := range strings.Split(StripANSI(text), "\n") {
		p.line(strings.TrimRight(line, "\r"))
	}
	p.endRecord()
	if !p.found {
		return nil, ErrNoTraceback
	}
	return p.chain, nil
}

type state int

const (
	outside state = iota
	inLegend
	inFrames
)

type parser struct {
	state   state
	found   bool
	chain   traceback.Chain
	rec     *traceback.Record
	legend  []alias.Alias
	caused  bool
	context bool
	// the last frame came from a "File" line and may take a source line
	awaitSrc bool
}

func (p *parser) line(line string) {
	switch kind := Classify(line); kind {
	case AliasesHead:
		p.endRecord()
		p.legend = nil
		p.state = inLegend
		return
	case TracebackHead:
		p.endRecord()
		p.found = true
		p.rec = &traceback.Record{Caused: p.caused, Context: p.context}
		p.caused, p.context = false, false
		p.state = inFrames
		return
	case CauseHead, ContextHead:
		p.endRecord()
		p.caused = kind == CauseHead
		p.context = kind == ContextHead
		p.state = outside
		return
	case Blank:
		return
	}

	switch p.state {
	case inLegend:
		if m := legendRegexp.FindStringSubmatch(line); m != nil {
			p.legend = append(p.legend, alias.Alias{Name: m[1], Prefix: m[2]})
			return
		}
		p.legend = nil
		p.state = outside
	case inFrames:
		p.frameLine(line)
		return
	}
	if Classify(line) == Text {
		p.caused, p.context = false, false
	}
}

func (p *parser) frameLine(line string) {
	if m := fileRegexp.FindStringSubmatch(line); m != nil {
		p.rec.Frames = append(p.rec.Frames, traceback.Frame{
			Module: m[1],
			Lineno: m[2],
			Call:   m[3],
		})
		p.awaitSrc = true
		return
	}
	if line[0] != ' ' && line[0] != '\t' {
		p.errorLine(line)
		return
	}
	if caretRegexp.MatchString(line) || repeatRegexp.MatchString(line) || omittedRegexp.MatchString(line) {
		return
	}
	if p.awaitSrc {
		p.rec.Frames[len(p.rec.Frames)-1].SrcCtx = strings.TrimSpace(line)
		p.awaitSrc = false
		return
	}
	if f, ok := p.prettyRow(line); ok {
		p.rec.Frames = append(p.rec.Frames, f)
	}
}

// prettyRow parses a row written by package render. Rows starting with an
// alias followed by a space, or with a fifth space, use the compact style.
func (p *parser) prettyRow(line string) (traceback.Frame, bool) {
	if len(line) > 4 && line[4] == ' ' || compactLead.MatchString(line) {
		if m := compactRegexp.FindStringSubmatch(line); m != nil {
			module := m[compactIndexes["module"]]
			if name := m[compactIndexes["alias"]]; name != "" {
				if a, ok := alias.Lookup(p.legend, name); ok {
					module = a.Prefix + module
				} else {
					module = name + module
				}
			}
			call := m[compactIndexes["call"]]
			if call == traceback.UnknownCall {
				call = ""
			}
			return traceback.Frame{
				Module: module,
				Call:   call,
				Lineno: m[compactIndexes["lineno"]],
				SrcCtx: m[compactIndexes["ctx"]],
			}, true
		}
	}
	m := columnsRegexp.FindStringSubmatch(line)
	if m == nil {
		return traceback.Frame{}, false
	}
	return traceback.Frame{
		Module: p.expand(m[columnsIndexes["module"]]),
		Call:   m[columnsIndexes["call"]],
		Lineno: m[columnsIndexes["lineno"]],
		SrcCtx: m[columnsIndexes["ctx"]],
	}, true
}

// expand replaces a leading legend alias of module by its prefix. Longer
// alias names are tried first.
func (p *parser) expand(module string) string {
	if len(p.legend) == 0 || !strings.HasPrefix(module, "<") {
		return module
	}
	legend := make([]alias.Alias, len(p.legend))
	copy(legend, p.legend)
	sort.SliceStable(legend, func(i, j int) bool {
		return len(legend[i].Name) > len(legend[j].Name)
	})
	for _, a := range legend {
		if strings.HasPrefix(module, a.Name) {
			return a.Prefix + module[len(a.Name):]
		}
	}
	return module
}

func (p *parser) errorLine(line string) {
	name, msg, _ := strings.Cut(line, ": ")
	p.rec.Name = name
	p.rec.Message = msg
	p.endRecord()
}

func (p *parser) endRecord() {
	if p.rec != nil {
		p.chain = append(p.chain, *p.rec)
		p.rec = nil
		p.legend = nil
	}
	p.awaitSrc = false
	p.state = outside
}
