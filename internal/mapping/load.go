package mapping

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// maxLineSize caps a single mapping line.
const maxLineSize = 16 * 1024 * 1024

// Option configures Load and Parse.
type Option func(*options)

type options struct {
	lenient bool
	onSkip  func(*ParseError)
}

// WithLenient makes the parser skip malformed tokens instead of failing.
// This reproduces the behaviour older mapping files were written against.
func WithLenient(lenient bool) Option {
	return func(o *options) {
		o.lenient = lenient
	}
}

// WithSkipHandler registers a callback invoked for every token skipped in
// lenient mode.
func WithSkipHandler(fn func(*ParseError)) Option {
	return func(o *options) {
		o.onSkip = fn
	}
}

// Load reads a mapping file and builds its Table.
func Load(path string, opts ...Option) (*Table, error) {
	if path == "" {
		return nil, ErrNoMappingFile
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open mapping file")
	}
	defer f.Close()

	t, err := Parse(f, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "mapping file %q", path)
	}
	return t, nil
}

// Parse reads mapping lines from r and builds a Table.
func Parse(r io.Reader, opts ...Option) (*Table, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var groups [][]int
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for sc.Scan() {
		line++
		members := []int{}
		for _, tok := range splitTokens(sc.Text()) {
			f, perr := parseToken(tok, line)
			if perr != nil {
				if !o.lenient {
					return nil, perr
				}
				if o.onSkip != nil {
					o.onSkip(perr)
				}
				continue
			}
			members = append(members, f)
		}
		groups = append(groups, members)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "read line %d", line+1)
	}
	return FromGroups(groups)
}

func splitTokens(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

func parseToken(tok string, line int) (int, *ParseError) {
	f, err := strconv.Atoi(tok)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
			return 0, &ParseError{Line: line, Token: tok, Err: ErrIndexTooLarge}
		}
		return 0, &ParseError{Line: line, Token: tok, Err: ErrNotAnInteger}
	}
	switch {
	case f < 0:
		return 0, &ParseError{Line: line, Token: tok, Err: ErrNegativeIndex}
	case f > MaxFineIndex:
		return 0, &ParseError{Line: line, Token: tok, Err: ErrIndexTooLarge}
	}
	return f, nil
}
