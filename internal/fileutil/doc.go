// Package fileutil finds the documents a check run covers.
//
// Command line arguments may name files, directories or "-" for standard
// input. Directories are walked and filtered by extension; named files are
// taken as given so that a document with an unknown extension can still be
// checked explicitly.
//
// # Main Components
//
// ScanOptions configures directory traversal:
//   - Extensions: file extensions to include (case-insensitive, dot optional)
//   - Recursive: descend into subdirectories
//   - ExcludeDirs: directory names to skip; hidden directories are always skipped
//   - MaxDepth: limit recursion depth (0 = unlimited, 1 = the directory only)
//
// ScanResult holds the matched files and the non-fatal errors met on the way.
//
// # Usage
//
//	result, err := fileutil.CollectDocuments(args, fileutil.ScanOptions{
//	    Extensions:  formats.Extensions(),
//	    Recursive:   true,
//	    ExcludeDirs: []string{"node_modules", "vendor"},
//	})
//	if err != nil {
//	    return err
//	}
//	for _, err := range result.Errors {
//	    log.Printf("skipped: %v", err)
//	}
//
// Files found in a directory are returned sorted; explicitly named paths keep
// their command line order. A path named twice is returned once.
package fileutil
