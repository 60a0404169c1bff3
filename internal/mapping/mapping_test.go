package mapping

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMapping(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapping.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_TwoGroups(t *testing.T) {
	tbl, err := Load(writeMapping(t, "0 1\n2\n"))
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.NumGroups())
	assert.Equal(t, 3, tbl.NumFine())
	assert.Equal(t, []int{0, 0, 1}, tbl.FineToCoarse())
	if diff := cmp.Diff([][]int{{0, 1}, {2}}, tbl.Groups()); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Separators(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  [][]int
	}{
		{"spaces", "0 1 2\n3 4\n", [][]int{{0, 1, 2}, {3, 4}}},
		{"commas", "0,1,2\n3,4\n", [][]int{{0, 1, 2}, {3, 4}}},
		{"mixed", "0, 1\t2\n 3 ,4 \n", [][]int{{0, 1, 2}, {3, 4}}},
		{"crlf", "0 1\r\n2\r\n", [][]int{{0, 1}, {2}}},
		{"no trailing newline", "5\n0 1", [][]int{{5}, {0, 1}}},
		{"empty line is empty group", "0\n\n1\n", [][]int{{0}, {}, {1}}},
		{"repeated commas", "0,,1\n", [][]int{{0, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, tbl.Groups()); diff != "" {
				t.Errorf("groups mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_LastGroupWins(t *testing.T) {
	tbl, err := Parse(strings.NewReader("0 1 2\n1\n3 2\n"))
	require.NoError(t, err)

	// Duplicates stay in every group's member list.
	assert.Equal(t, []int{0, 1, 2}, tbl.Group(0))
	assert.Equal(t, []int{1}, tbl.Group(1))
	assert.Equal(t, []int{3, 2}, tbl.Group(2))

	assert.Equal(t, []int{0, 1, 2, 2}, tbl.FineToCoarse())
}

func TestParse_PartitionTotality(t *testing.T) {
	groups := [][]int{{4, 0}, {2, 7, 1}, {3}, {6, 5}}
	tbl, err := FromGroups(groups)
	require.NoError(t, err)

	for g, members := range groups {
		for _, f := range members {
			c, err := tbl.Coarse(f)
			require.NoError(t, err)
			assert.Equal(t, g, c, "fine %d", f)
		}
	}
}

func TestParse_Empty(t *testing.T) {
	tbl, err := Parse(strings.NewReader(""))
	require.NoError(t, err)

	assert.Equal(t, 0, tbl.NumGroups())
	assert.Equal(t, 1, tbl.NumFine())
	assert.False(t, tbl.Mapped(0))
}

func TestParse_StrictRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
		token string
		cause error
	}{
		{"word", "0 1\n2 cat 3\n", 2, "cat", ErrNotAnInteger},
		{"float", "0.5\n", 1, "0.5", ErrNotAnInteger},
		{"negative", "0\n1\n-3\n", 3, "-3", ErrNegativeIndex},
		{"too large", "99999999\n", 1, "99999999", ErrIndexTooLarge},
		{"overflow", "0 123456789012345678901234567890\n", 1, "123456789012345678901234567890", ErrIndexTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr), "expected ParseError, got %T", err)
			assert.Equal(t, tt.line, perr.Line)
			assert.Equal(t, tt.token, perr.Token)
			assert.True(t, errors.Is(err, tt.cause))
			assert.Contains(t, err.Error(), tt.token)
		})
	}
}

func TestParse_LenientSkipsTokens(t *testing.T) {
	var skipped []*ParseError
	tbl, err := Parse(strings.NewReader("0 x 1\n-2 2\nfoo\n"),
		WithLenient(true),
		WithSkipHandler(func(e *ParseError) { skipped = append(skipped, e) }),
	)
	require.NoError(t, err)

	if diff := cmp.Diff([][]int{{0, 1}, {2}, {}}, tbl.Groups()); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, skipped, 3)
	assert.Equal(t, 1, skipped[0].Line)
	assert.Equal(t, "x", skipped[0].Token)
	assert.ErrorIs(t, skipped[1], ErrNegativeIndex)
	assert.Equal(t, 3, skipped[2].Line)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("")
	assert.True(t, errors.Is(err, ErrNoMappingFile))

	_, err = Load(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = Load(writeMapping(t, "0\nbad\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapping.txt")
	assert.Contains(t, err.Error(), "line 2")
}

func TestTable_CoarseBounds(t *testing.T) {
	tbl, err := FromGroups([][]int{{0, 3}, {1}})
	require.NoError(t, err)

	c, err := tbl.Coarse(3)
	require.NoError(t, err)
	assert.Equal(t, 0, c)

	_, err = tbl.Coarse(2)
	assert.True(t, errors.Is(err, ErrUnmapped))
	assert.False(t, tbl.Mapped(2))

	_, err = tbl.Coarse(4)
	assert.True(t, errors.Is(err, ErrFineOutOfRange))
	_, err = tbl.Coarse(-1)
	assert.True(t, errors.Is(err, ErrFineOutOfRange))
	assert.False(t, tbl.Mapped(-1))
}

func TestFromGroups_CopiesInput(t *testing.T) {
	groups := [][]int{{0, 1}, {2}}
	tbl, err := FromGroups(groups)
	require.NoError(t, err)

	groups[0][0] = 2
	assert.Equal(t, []int{0, 1}, tbl.Group(0))

	out := tbl.Groups()
	out[1][0] = 0
	assert.Equal(t, []int{2}, tbl.Group(1))
}

func TestFromGroups_RejectsNegative(t *testing.T) {
	_, err := FromGroups([][]int{{0}, {-1}})
	assert.True(t, errors.Is(err, ErrNegativeIndex))
}

func TestTable_String(t *testing.T) {
	tbl, err := FromGroups([][]int{{0, 1}, {2}})
	require.NoError(t, err)
	assert.Equal(t, "Table(groups=2, fine=3)", tbl.String())
}
