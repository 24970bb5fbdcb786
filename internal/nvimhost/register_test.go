package nvimhost

import (
	"testing"

	"github.com/neovim/go-client/nvim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLinesEvent(t *testing.T) {
	tests := []struct {
		name string
		args []interface{}
		want linesEvent
		ok   bool
	}{
		{
			name: "typed buffer",
			args: []interface{}{nvim.Buffer(4), int64(7), int64(1), int64(2), []interface{}{"a", "b"}, false},
			want: linesEvent{buffer: 4, tick: 7, first: 1, last: 2, lines: []string{"a", "b"}},
			ok:   true,
		},
		{
			name: "nil changedtick",
			args: []interface{}{int64(4), nil, uint64(0), int64(0), []interface{}{[]byte("x")}, false},
			want: linesEvent{buffer: 4, first: 0, last: 0, lines: []string{"x"}},
			ok:   true,
		},
		{name: "short", args: []interface{}{nvim.Buffer(1), int64(1)}},
		{name: "bad line data", args: []interface{}{nvim.Buffer(1), int64(1), int64(0), int64(1), []interface{}{42}, false}},
		{name: "bad first line", args: []interface{}{nvim.Buffer(1), int64(1), "zero", int64(1), []interface{}{}, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseLinesEvent(tt.args)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseNumbers(t *testing.T) {
	nums, err := parseNumbers([]string{"3", "2"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, nums)

	for _, bad := range [][]string{nil, {"1", "2", "3"}, {"0"}, {"x"}} {
		_, err := parseNumbers(bad, 2)
		assert.Error(t, err, "%v", bad)
	}
}
