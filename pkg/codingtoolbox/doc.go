// Package codingtoolbox provides the built-in tools agents use to interact
// with the local environment. Each sub-package implements one tool category:
//
//   - [github.com/germanamz/actloop/pkg/codingtoolbox/exec]: bash command execution with exit codes and timeouts
//   - [github.com/germanamz/actloop/pkg/codingtoolbox/filesystem]: read_file, write_file (with unified diff) and list_dir
//   - [github.com/germanamz/actloop/pkg/codingtoolbox/search]: search_files by glob pattern
//   - [github.com/germanamz/actloop/pkg/codingtoolbox/calc]: calculator for arithmetic expressions
//   - [github.com/germanamz/actloop/pkg/codingtoolbox/web]: fetch_url returning the readable text of a page
//   - [github.com/germanamz/actloop/pkg/codingtoolbox/defaults]: builder that assembles the built-in tools into one registry
package codingtoolbox
