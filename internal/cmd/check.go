package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/acrocheck/internal/api"
	"github.com/harrison/acrocheck/internal/checking"
	"github.com/harrison/acrocheck/internal/display"
	"github.com/harrison/acrocheck/internal/filelock"
	"github.com/harrison/acrocheck/internal/fileutil"
	"github.com/harrison/acrocheck/internal/marker"
	"github.com/harrison/acrocheck/internal/models"
	"github.com/harrison/acrocheck/internal/render"
)

// Report formats accepted by --format.
const (
	formatText     = "text"
	formatMarkdown = "markdown"
	formatHTML     = "html"
)

// stdinIdentifier names a document read from standard input.
const stdinIdentifier = "stdin"

// suggestionChoice is one --apply pair: 1-based issue and suggestion numbers.
type suggestionChoice struct {
	issue      int
	suggestion int
}

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file|dir|->...",
		Short: "Check documents against an Acrolinx guidance profile",
		Long: `Check documents with an Acrolinx server and print their scorecards.

Each document is submitted for an interactive check, the result is polled
until it is ready, and the issues are listed in document order with their
suggestions and guidance.

Directories are scanned for files with a known extension (see
extension_modes in the configuration). Use - to read a document from
standard input. --range and --apply need exactly one document.

Examples:
  acrocheck check README.md
  acrocheck check --target en-tech --range 120:480 guide.md
  acrocheck check --format markdown --output report.md notes.txt
  acrocheck check --format html --output site.html docs/
  acrocheck check --apply 1:1 --apply 3:2 --output fixed.md draft.md`,
		Args: cobra.MinimumNArgs(1),
		RunE: checkCommand,
	}

	addConnectionFlags(cmd)
	cmd.Flags().String("target", "", "Guidance profile id or name (overrides default_target)")
	cmd.Flags().Bool("choose-target", false, "Ask for the guidance profile even if one is configured")
	cmd.Flags().String("range", "", "Check only begin:end (1-based character offsets, end exclusive)")
	cmd.Flags().String("mode", "", "Document mode used to pick the content format (default: from extension)")
	cmd.Flags().String("format", formatText, "Report format: text, markdown, html")
	cmd.Flags().StringP("output", "o", "", "Write the report (or corrected text with --apply) to this file")
	cmd.Flags().Int("max-attempts", 0, "Result polls before giving up (overrides poll.max_attempts)")
	cmd.Flags().Duration("interval", 0, "Wait before each result poll (overrides poll.interval)")
	cmd.Flags().Bool("expand", false, "Show guidance for every issue")
	cmd.Flags().StringArray("apply", nil, "Apply suggestion <issue>:<suggestion> to the text (repeatable)")
	cmd.Flags().BoolP("recursive", "r", true, "Scan directories recursively")
	cmd.Flags().StringSlice("exclude", []string{"node_modules", "vendor"}, "Directory names to skip while scanning")

	return cmd
}

// checkCommand implements the check command logic
func checkCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	format = strings.ToLower(format)
	if format != formatText && format != formatMarkdown && format != formatHTML {
		return fmt.Errorf("invalid --format %q, must be one of: text, markdown, html", format)
	}

	rangeFlag, _ := cmd.Flags().GetString("range")
	rng, err := parseRange(rangeFlag)
	if err != nil {
		return err
	}

	applyFlags, _ := cmd.Flags().GetStringArray("apply")
	choices, err := parseApply(applyFlags)
	if err != nil {
		return err
	}

	formats := checking.NewContentFormats(cfg.ContentFormats, cfg.ExtensionModes)
	docs, err := collectDocuments(cmd, args, formats)
	if err != nil {
		return err
	}
	if len(docs) > 1 && (rng != nil || len(choices) > 0) {
		return fmt.Errorf("--range and --apply need exactly one document, got %d", len(docs))
	}

	var single string
	if len(docs) == 1 {
		if single, err = readDocument(cmd.InOrStdin(), docs[0]); err != nil {
			return err
		}
	}

	rt, err := newRuntime(cmd, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var chooser checking.Chooser
	if !slices.Contains(docs, fileutil.StdinPath) && isInteractive(cmd.InOrStdin()) {
		chooser = terminalChooser(NewMenuReader(cmd.InOrStdin()), cmd.ErrOrStderr())
	}

	checker := checking.NewChecker(checking.Options{
		Client:        rt.client,
		Chooser:       chooser,
		DefaultTarget: cfg.DefaultTarget,
		Formats:       formats,
		Poll:          rt.pollOptions(),
		Logger:        rt.logger,
	})
	defer checker.Session().Close()
	defer dumpDebug(ctx, checker, cfg.DebugDir, rt.logger)

	mode, _ := cmd.Flags().GetString("mode")
	override, _ := cmd.Flags().GetBool("choose-target")
	outputPath, _ := cmd.Flags().GetString("output")
	expand, _ := cmd.Flags().GetBool("expand")

	if len(docs) > 1 {
		return checkDocuments(ctx, cmd, checker, docs, documentRun{
			mode: mode, override: override, format: format, output: outputPath, expand: expand,
		})
	}

	buf := marker.NewBuffer(single)
	sc, err := checker.Check(ctx, newDocument(docs[0], mode, buf, rng), checking.CheckOptions{OverrideTarget: override})
	if err != nil {
		return describeError(err)
	}

	if len(choices) > 0 {
		if err := applySuggestions(sc, choices); err != nil {
			return err
		}
		// The report moves to stderr so the corrected text can be piped.
		reportOpts := render.TextOptions{Width: labelWidth(cmd.ErrOrStderr()), Color: colorEnabled(cmd.ErrOrStderr()), ExpandAll: expand}
		if err := render.WriteText(cmd.ErrOrStderr(), sc, reportOpts); err != nil {
			return err
		}
		return writeOutput(ctx, cmd.OutOrStdout(), outputPath, []byte(buf.Text()))
	}

	report := newReportBuilder(format, reportTextOptions(cmd, outputPath, expand))
	if err := report.add(sc); err != nil {
		return err
	}
	data, err := report.bytes()
	if err != nil {
		return err
	}
	return writeOutput(ctx, cmd.OutOrStdout(), outputPath, data)
}

// documentRun carries the flags a multi-document check applies to every document.
type documentRun struct {
	mode     string
	override bool
	format   string
	output   string
	expand   bool
}

// checkDocuments checks docs one after another with a shared session. The
// guidance profile resolved for the first document is used for the rest.
// A failed document is reported and skipped; cancellation or a missing
// guidance profile stops the run.
func checkDocuments(ctx context.Context, cmd *cobra.Command, checker *checking.Checker, docs []string, run documentRun) error {
	stderr := cmd.ErrOrStderr()
	useColor := colorEnabled(stderr)

	progress := display.NewProgressIndicator(stderr, len(docs), useColor)
	progress.Start()

	// Each report is written as soon as its check finishes: the next check
	// releases the previous scorecard's markers.
	report := newReportBuilder(run.format, reportTextOptions(cmd, run.output, run.expand))
	var (
		failures []string
		chosen   models.Target
	)
	session := checker.Session()
	for _, path := range docs {
		progress.Step(path)

		text, err := readDocument(cmd.InOrStdin(), path)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", path, err))
			continue
		}

		doc := newDocument(path, run.mode, marker.NewBuffer(text), nil)
		opts := checking.CheckOptions{OverrideTarget: run.override && chosen.IsZero()}
		if !chosen.IsZero() {
			session.RememberTarget(doc.Key(), chosen)
		}
		sc, err := checker.Check(ctx, doc, opts)
		if chosen.IsZero() {
			chosen, _ = session.RememberedTarget(doc.Key())
		}
		if err != nil {
			if errors.Is(err, api.ErrCanceled) || errors.Is(err, api.ErrSelection) {
				return describeError(err)
			}
			failures = append(failures, fmt.Sprintf("%s: %v", path, describeError(err)))
			continue
		}
		sc.Document = path
		if err := report.add(sc); err != nil {
			return err
		}
	}
	progress.Complete(len(failures))

	if len(failures) > 0 {
		display.Warning{
			Title:      "Some documents were not checked",
			Files:      failures,
			Suggestion: "Run with --log-level debug for details",
		}.Display(stderr, useColor)
	}

	if report.count > 0 {
		data, err := report.bytes()
		if err != nil {
			return err
		}
		if err := writeOutput(ctx, cmd.OutOrStdout(), run.output, data); err != nil {
			return err
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d documents failed", len(failures), len(docs))
	}
	return nil
}

// collectDocuments expands the arguments into document paths. Unreadable
// paths are warned about, and fail the command when nothing else is left.
func collectDocuments(cmd *cobra.Command, args []string, formats checking.ContentFormats) ([]string, error) {
	recursive, _ := cmd.Flags().GetBool("recursive")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")

	found, err := fileutil.CollectDocuments(args, fileutil.ScanOptions{
		Extensions:  formats.Extensions(),
		Recursive:   recursive,
		ExcludeDirs: exclude,
	})
	if err != nil {
		return nil, err
	}
	if len(found.Files) == 0 {
		if len(found.Errors) > 0 {
			return nil, fmt.Errorf("failed to read document: %w", errors.Join(found.Errors...))
		}
		return nil, fmt.Errorf("no documents to check in %s", strings.Join(args, ", "))
	}

	if len(found.Errors) > 0 {
		skipped := make([]string, len(found.Errors))
		for i, e := range found.Errors {
			skipped[i] = e.Error()
		}
		display.Warning{
			Title: "Some paths could not be read",
			Files: skipped,
		}.Display(cmd.ErrOrStderr(), colorEnabled(cmd.ErrOrStderr()))
	}
	return found.Files, nil
}

// newDocument describes path for a check.
func newDocument(path, mode string, buf *marker.Buffer, rng *models.Range) checking.DocumentContext {
	doc := checking.DocumentContext{Mode: mode, Text: buf, Range: rng}
	if path == fileutil.StdinPath {
		doc.Identifier = stdinIdentifier
	} else {
		doc.Path = path
	}
	return doc
}

// dumpDebug writes the session's debug files when a debug directory is set.
func dumpDebug(ctx context.Context, checker *checking.Checker, dir string, logger checking.Logger) {
	if dir == "" {
		return
	}
	files, err := checker.Session().DumpDebug(context.WithoutCancel(ctx), dir)
	if err != nil {
		logger.LogWarn(fmt.Sprintf("debug dump failed: %v", err))
		return
	}
	logger.LogDebug(fmt.Sprintf("wrote %d debug files to %s", len(files), dir))
}

// reportTextOptions sizes and colors the text report for its destination.
func reportTextOptions(cmd *cobra.Command, outputPath string, expand bool) render.TextOptions {
	opts := render.TextOptions{ExpandAll: expand, Width: 40}
	if outputPath == "" {
		opts.Width = labelWidth(cmd.OutOrStdout())
		opts.Color = colorEnabled(cmd.OutOrStdout())
	}
	return opts
}

// readDocument reads path, or standard input for "-".
func readDocument(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == fileutil.StdinPath {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return string(data), nil
}

// parseRange parses "begin:end". An empty value means the whole document.
func parseRange(value string) (*models.Range, error) {
	if value == "" {
		return nil, nil
	}
	begin, end, ok := parsePair(value)
	if !ok {
		return nil, fmt.Errorf("invalid --range %q, want begin:end", value)
	}
	r := &models.Range{Begin: begin, End: end}
	if !r.Valid() {
		return nil, fmt.Errorf("invalid --range %q: begin must be >= 1 and end > begin", value)
	}
	return r, nil
}

// parseApply parses the --apply pairs.
func parseApply(values []string) ([]suggestionChoice, error) {
	choices := make([]suggestionChoice, 0, len(values))
	for _, v := range values {
		issue, suggestion, ok := parsePair(v)
		if !ok || issue < 1 || suggestion < 1 {
			return nil, fmt.Errorf("invalid --apply %q, want <issue>:<suggestion> with 1-based numbers", v)
		}
		choices = append(choices, suggestionChoice{issue: issue, suggestion: suggestion})
	}
	return choices, nil
}

func parsePair(value string) (int, int, bool) {
	left, right, found := strings.Cut(value, ":")
	if !found {
		return 0, 0, false
	}
	a, err := strconv.Atoi(strings.TrimSpace(left))
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.Atoi(strings.TrimSpace(right))
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}

// applySuggestions replaces each chosen issue's live span with its suggestion.
func applySuggestions(sc *render.Scorecard, choices []suggestionChoice) error {
	for _, c := range choices {
		entry, err := sc.Entry(c.issue)
		if err != nil {
			return fmt.Errorf("apply %d:%d: %w", c.issue, c.suggestion, err)
		}
		if err := entry.Apply(c.suggestion); err != nil {
			return fmt.Errorf("apply %d:%d: %w", c.issue, c.suggestion, err)
		}
	}
	return nil
}

// reportBuilder collects the reports of a run in one format. Text and
// Markdown reports are separated by a blank line; HTML reports share a page.
type reportBuilder struct {
	format string
	opts   render.TextOptions
	buf    bytes.Buffer
	count  int
}

func newReportBuilder(format string, opts render.TextOptions) *reportBuilder {
	return &reportBuilder{format: format, opts: opts}
}

func (r *reportBuilder) add(sc *render.Scorecard) error {
	if r.count > 0 {
		if r.format == formatHTML {
			r.buf.WriteString(render.HTMLSeparator)
		} else {
			r.buf.WriteString("\n")
		}
	}
	r.count++
	if r.format == formatText {
		return render.WriteText(&r.buf, sc, r.opts)
	}
	return render.WriteMarkdown(&r.buf, sc)
}

func (r *reportBuilder) bytes() ([]byte, error) {
	if r.format != formatHTML {
		return r.buf.Bytes(), nil
	}
	var page bytes.Buffer
	if err := render.WriteHTMLPage(&page, r.buf.Bytes()); err != nil {
		return nil, err
	}
	return page.Bytes(), nil
}

// writeOutput writes data to path under a file lock, or to stdout.
func writeOutput(ctx context.Context, stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := filelock.LockAndWrite(ctx, path, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
