package nvimhost

import (
	"context"
	"fmt"
	"strconv"

	"fortio.org/safecast"
	"github.com/neovim/go-client/nvim"
	"github.com/neovim/go-client/nvim/plugin"

	"github.com/harrison/acrocheck/internal/api"
	"github.com/harrison/acrocheck/internal/checking"
	"github.com/harrison/acrocheck/internal/config"
)

// bufferInfo is what a command evaluates about the current buffer.
type bufferInfo struct {
	Buffer   int    `msgpack:"buffer"`
	Path     string `msgpack:"path"`
	Filetype string `msgpack:"filetype"`
}

const bufferInfoEval = `{'buffer': bufnr('%'), 'path': expand('%:p'), 'filetype': &filetype}`

// Register wires the Acrolinx commands into p.
func Register(p *plugin.Plugin, cfg *config.Config, logger checking.Logger) error {
	editor, err := newNvimEditor(p.Nvim)
	if err != nil {
		return err
	}

	client := api.New(api.Options{
		ServerURL:   cfg.ServerURL,
		Signature:   cfg.ClientSignature,
		Token:       cfg.AccessToken,
		Timeout:     cfg.RequestTimeout,
		Credentials: api.KeyringSource{},
		Logger:      logger,
	})
	h := NewHost(Options{
		Client:        client,
		Editor:        editor,
		DefaultTarget: cfg.DefaultTarget,
		Formats:       checking.NewContentFormats(cfg.ContentFormats, cfg.ExtensionModes),
		Poll: checking.PollOptions{
			MaxAttempts:     cfg.Poll.MaxAttempts,
			Interval:        cfg.Poll.Interval,
			HonorRetryAfter: cfg.Poll.HonorRetryAfter,
			CancelOnAbandon: cfg.Poll.CancelOnAbandon,
		},
		Logger: logger,
	})

	check := func(override bool) func([2]int, *bufferInfo) error {
		return func(rng [2]int, info *bufferInfo) error {
			if err := cfg.RequireServer(); err != nil {
				return err
			}
			h.StartCheck(CheckRequest{
				Buffer:    info.Buffer,
				Path:      info.Path,
				Filetype:  info.Filetype,
				FirstLine: rng[0],
				LastLine:  rng[1],
				Override:  override,
			})
			return nil
		}
	}

	p.HandleCommand(&plugin.CommandOptions{Name: "AcrolinxCheck", Range: "%", Eval: bufferInfoEval}, check(false))
	p.HandleCommand(&plugin.CommandOptions{Name: "AcrolinxCheckTarget", Range: "%", Eval: bufferInfoEval}, check(true))

	p.HandleCommand(&plugin.CommandOptions{Name: "AcrolinxTargets"}, func() error {
		if err := cfg.RequireServer(); err != nil {
			return err
		}
		go func() {
			if err := h.Targets(context.Background()); err != nil {
				_ = editor.EchoErr("Acrolinx: " + describeError(err))
			}
		}()
		return nil
	})

	p.HandleCommand(&plugin.CommandOptions{Name: "AcrolinxApply", NArgs: "+"}, func(args []string) error {
		nums, err := parseNumbers(args, 2)
		if err != nil {
			return err
		}
		n := 1
		if len(nums) > 1 {
			n = nums[1]
		}
		return h.Apply(nums[0], n)
	})

	p.HandleCommand(&plugin.CommandOptions{Name: "AcrolinxToggle", NArgs: "1"}, func(args []string) error {
		nums, err := parseNumbers(args, 1)
		if err != nil {
			return err
		}
		return h.Toggle(nums[0])
	})

	p.HandleAutocmd(&plugin.AutocmdOptions{Event: "BufWipeout", Pattern: "*", Eval: "expand('<abuf>')"}, func(abuf string) error {
		if buf, err := strconv.Atoi(abuf); err == nil {
			h.Forget(buf)
		}
		return nil
	})

	return p.Nvim.RegisterHandler("nvim_buf_lines_event", func(args ...interface{}) {
		if ev, ok := parseLinesEvent(args); ok {
			h.LinesChanged(ev.buffer, ev.tick, ev.first, ev.last, ev.lines)
		}
	})
}

// parseNumbers parses up to limit positive integer command arguments.
func parseNumbers(args []string, limit int) ([]int, error) {
	if len(args) == 0 || len(args) > limit {
		return nil, fmt.Errorf("expected 1 to %d numbers, got %d arguments", limit, len(args))
	}
	nums := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		nums[i] = n
	}
	return nums, nil
}

// linesEvent is a decoded nvim_buf_lines_event.
type linesEvent struct {
	buffer int
	tick   int
	first  int
	last   int
	lines  []string
}

// parseLinesEvent decodes [buf, changedtick, firstline, lastline, linedata, more].
// changedtick is nil for some events and decodes to 0.
func parseLinesEvent(args []interface{}) (linesEvent, bool) {
	if len(args) < 5 {
		return linesEvent{}, false
	}
	var ev linesEvent
	switch b := args[0].(type) {
	case nvim.Buffer:
		ev.buffer = int(b)
	default:
		n, ok := toInt(b)
		if !ok {
			return linesEvent{}, false
		}
		ev.buffer = n
	}
	ev.tick, _ = toInt(args[1])

	var ok bool
	if ev.first, ok = toInt(args[2]); !ok {
		return linesEvent{}, false
	}
	if ev.last, ok = toInt(args[3]); !ok {
		return linesEvent{}, false
	}

	data, ok := args[4].([]interface{})
	if !ok {
		return linesEvent{}, false
	}
	ev.lines = make([]string, 0, len(data))
	for _, d := range data {
		switch s := d.(type) {
		case string:
			ev.lines = append(ev.lines, s)
		case []byte:
			ev.lines = append(ev.lines, string(s))
		default:
			return linesEvent{}, false
		}
	}
	return ev, true
}

func toInt(v interface{}) (int, bool) {
	var (
		n   int
		err error
	)
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		n, err = safecast.Conv[int](x)
	case uint64:
		n, err = safecast.Conv[int](x)
	case int32:
		n, err = safecast.Conv[int](x)
	case uint32:
		n, err = safecast.Conv[int](x)
	default:
		return 0, false
	}
	return n, err == nil
}
