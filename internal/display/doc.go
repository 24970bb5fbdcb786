// Package display formats the status lines a multi-document check prints
// next to its reports: per-document progress and warnings.
//
// # Progress Indicators
//
//	progress := display.NewProgressIndicator(os.Stderr, len(docs), true)
//	progress.Start()
//	for _, doc := range docs {
//	    progress.Step(doc)
//	    // ... check doc ...
//	}
//	progress.Complete(failed)
//
// # Warning Messages
//
//	warning := display.Warning{
//	    Title:      "Some documents were not checked",
//	    Files:      failed,
//	    Suggestion: "Run with --log-level debug for details",
//	}
//	warning.Display(os.Stderr, true)
//
// Colors come from fatih/color and are only written when the caller asks for
// them, so output stays plain when redirected.
package display
