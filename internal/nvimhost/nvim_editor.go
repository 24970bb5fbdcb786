package nvimhost

import (
	"fmt"
	"sync"

	"github.com/neovim/go-client/nvim"
)

const (
	namespaceName = "acrolinx"
	scorecardName = "acrolinx://scorecard"
)

// nvimEditor implements Editor over an RPC connection to Neovim.
type nvimEditor struct {
	v  *nvim.Nvim
	ns int

	mu        sync.Mutex
	scorecard nvim.Buffer
}

var _ Editor = (*nvimEditor)(nil)

func newNvimEditor(v *nvim.Nvim) (*nvimEditor, error) {
	ns, err := v.CreateNamespace(namespaceName)
	if err != nil {
		return nil, fmt.Errorf("create namespace: %w", err)
	}
	if err := v.Command("highlight default link " + issueGroup + " SpellBad"); err != nil {
		return nil, fmt.Errorf("define highlight: %w", err)
	}
	return &nvimEditor{v: v, ns: ns}, nil
}

func (e *nvimEditor) Lines(buf int) ([]string, int, error) {
	raw, err := e.v.BufferLines(nvim.Buffer(buf), 0, -1, true)
	if err != nil {
		return nil, 0, err
	}
	tick, err := e.v.BufferChangedTick(nvim.Buffer(buf))
	if err != nil {
		return nil, 0, err
	}
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = string(l)
	}
	return lines, tick, nil
}

func (e *nvimEditor) SetText(buf, startRow, startCol, endRow, endCol int, text []string) error {
	return e.v.SetBufferText(nvim.Buffer(buf), startRow, startCol, endRow, endCol, toBytes(text))
}

func (e *nvimEditor) Attach(buf int) error {
	attached, err := e.v.AttachBuffer(nvim.Buffer(buf), false, map[string]interface{}{})
	if err != nil {
		return err
	}
	if !attached {
		return fmt.Errorf("buffer %d refused attach", buf)
	}
	return nil
}

func (e *nvimEditor) Highlight(buf int, spans []Span) error {
	b := e.v.NewBatch()
	b.ClearBufferNamespace(nvim.Buffer(buf), e.ns, 0, -1)
	ids := make([]int, len(spans))
	for i, s := range spans {
		b.SetBufferExtmark(nvim.Buffer(buf), e.ns, s.Row, s.Col, map[string]interface{}{
			"end_row":  s.EndRow,
			"end_col":  s.EndCol,
			"hl_group": s.Group,
		}, &ids[i])
	}
	return b.Execute()
}

func (e *nvimEditor) SetQuickfix(title string, items []QuickfixItem) error {
	list := make([]map[string]interface{}, len(items))
	for i, it := range items {
		entry := map[string]interface{}{"bufnr": it.Buffer, "text": it.Text}
		if it.Line > 0 {
			entry["lnum"] = it.Line
			entry["col"] = it.Col
		}
		list[i] = entry
	}
	return e.v.Call("setqflist", nil, []interface{}{}, "r", map[string]interface{}{
		"title": title,
		"items": list,
	})
}

func (e *nvimEditor) ShowScorecard(lines []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	valid := false
	if e.scorecard != 0 {
		var err error
		if valid, err = e.v.IsBufferValid(e.scorecard); err != nil {
			return err
		}
	}
	if !valid {
		b, err := e.v.CreateBuffer(false, true)
		if err != nil {
			return fmt.Errorf("create scorecard buffer: %w", err)
		}
		if err := e.v.SetBufferName(b, scorecardName); err != nil {
			return err
		}
		if err := e.v.SetBufferOption(b, "filetype", "acrolinx"); err != nil {
			return err
		}
		e.scorecard = b
	}

	if err := e.v.SetBufferOption(e.scorecard, "modifiable", true); err != nil {
		return err
	}
	if err := e.v.SetBufferLines(e.scorecard, 0, -1, false, toBytes(lines)); err != nil {
		return err
	}
	if err := e.v.SetBufferOption(e.scorecard, "modifiable", false); err != nil {
		return err
	}

	var winnr int
	if err := e.v.Call("bufwinnr", &winnr, int(e.scorecard)); err != nil {
		return err
	}
	if winnr < 0 {
		return e.v.Command(fmt.Sprintf("botright sbuffer %d | wincmd p", int(e.scorecard)))
	}
	return nil
}

func (e *nvimEditor) Choose(prompt string, items []string) (int, error) {
	var choice int
	err := e.v.Call("inputlist", &choice, append([]string{prompt}, items...))
	return choice, err
}

func (e *nvimEditor) Echo(msg string) error {
	return e.v.WriteOut(msg + "\n")
}

func (e *nvimEditor) EchoErr(msg string) error {
	return e.v.WritelnErr(msg)
}

func toBytes(lines []string) [][]byte {
	out := make([][]byte, len(lines))
	for i, l := range lines {
		out[i] = []byte(l)
	}
	return out
}
