package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrjoshuak/exrview/exr"
	"github.com/mrjoshuak/exrview/internal/logging"
)

// ValidationIssue represents a single validation problem.
type ValidationIssue struct {
	Severity string // "error" or "warning"
	Message  string
}

// ValidationResult contains all validation results for a file.
type ValidationResult struct {
	Filename string
	Issues   []ValidationIssue
	Checks   []string
}

// IsValid returns true if there are no errors (warnings are ok).
func (r *ValidationResult) IsValid() bool {
	return !r.HasErrors()
}

// HasErrors returns true if there are any error-level issues.
func (r *ValidationResult) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == "error" {
			return true
		}
	}
	return false
}

func (r *ValidationResult) addError(msg string) {
	r.Issues = append(r.Issues, ValidationIssue{Severity: "error", Message: msg})
}

func (r *ValidationResult) addWarning(msg string) {
	r.Issues = append(r.Issues, ValidationIssue{Severity: "warning", Message: msg})
}

func newCheckCommand(cfg *config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file.exr> ...",
		Short: "Validate headers, offset tables and chunk data",
		Long: `Validate headers, offset tables and chunk data.

Exit codes:
  0: All files valid
  1: One or more files invalid
  2: Error (file not found, permission denied, etc.)`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			invalid := 0
			for _, file := range args {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				result, err := validateFile(cmd, file, cfg.decodeOptions())
				if err != nil {
					return &exitError{code: exitUsage, err: err}
				}
				logging.Debug().
					Str("file", file).
					Bool("valid", result.IsValid()).
					Int("issues", len(result.Issues)).
					Msg("checked")
				if !result.IsValid() {
					invalid++
				}
				if !cfg.quiet || !result.IsValid() {
					printResult(w, result)
				}
			}
			if !cfg.quiet && len(args) > 1 {
				fmt.Fprintf(w, "\n%d of %d files valid\n", len(args)-invalid, len(args))
			}
			if invalid > 0 {
				return &exitError{code: exitFailed, err: fmt.Errorf("%d of %d files invalid", invalid, len(args))}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&cfg.quiet, "quiet", "q", cfg.quiet, "only print invalid files")
	return cmd
}

func printResult(w io.Writer, result *ValidationResult) {
	if result.IsValid() {
		fmt.Fprintf(w, "%s: OK\n", result.Filename)
	} else {
		fmt.Fprintf(w, "%s: INVALID\n", result.Filename)
	}
	for _, issue := range result.Issues {
		fmt.Fprintf(w, "  [%s] %s\n", strings.ToUpper(issue.Severity), issue.Message)
	}
	if len(result.Issues) > 0 {
		fmt.Fprintf(w, "  Checks performed: %s\n", strings.Join(result.Checks, ", "))
	}
}

// validateFile parses the header and offset table and then decodes every
// chunk. Only failures to read the file are returned as errors.
func validateFile(cmd *cobra.Command, file string, opts exr.DecodeOptions) (*ValidationResult, error) {
	result := &ValidationResult{Filename: file}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	result.Checks = append(result.Checks, "header", "offset table")
	img, err := exr.Parse(data, opts)
	if err != nil {
		result.addError(fmt.Sprintf("%s: %v", exr.Classify(err), err))
		return result, nil
	}
	for _, warn := range img.Warnings {
		logging.Warn().Str("file", file).Err(warn).Msg("header warning")
		result.addWarning(warn.Error())
	}

	if !img.Compression.Supported() {
		result.addWarning(fmt.Sprintf("%s compression is not supported; chunk data not checked", img.Compression))
		return result, nil
	}

	result.Checks = append(result.Checks, "chunks")
	if err := img.DecodePixels(cmd.Context(), opts); err != nil {
		result.addError(fmt.Sprintf("%s: %v", exr.Classify(err), err))
	}
	return result, nil
}
