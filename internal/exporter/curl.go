package exporter

import (
	"context"
	"fmt"
	"strings"

	"github.com/artpar/reqtree/internal/core"
)

// CurlExporter exports collections and requests to curl commands.
type CurlExporter struct {
	Pretty bool // Use line continuations for readability
}

// NewCurlExporter creates a new curl exporter.
func NewCurlExporter() *CurlExporter {
	return &CurlExporter{
		Pretty: true,
	}
}

func (c *CurlExporter) Name() string {
	return "curl command"
}

func (c *CurlExporter) Format() Format {
	return FormatCurl
}

func (c *CurlExporter) FileExtension() string {
	return ".sh"
}

func (c *CurlExporter) Export(ctx context.Context, collections []core.Collection) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString("#!/bin/bash\n")

	for _, coll := range collections {
		sb.WriteString(fmt.Sprintf("\n# Collection: %s\n", oneLine(coll.Name)))
		if coll.Description != "" {
			for _, line := range strings.Split(strings.ReplaceAll(coll.Description, "\r\n", "\n"), "\n") {
				sb.WriteString(strings.TrimRight("# "+line, " ") + "\n")
			}
		}
		sb.WriteString("\n")

		c.exportRequests(ctx, &sb, coll.Requests)

		for _, folder := range coll.Folders {
			sb.WriteString(fmt.Sprintf("# === %s ===\n\n", oneLine(folder.Name)))
			c.exportRequests(ctx, &sb, folder.Requests)
		}
	}

	return []byte(sb.String()), nil
}

func (c *CurlExporter) exportRequests(ctx context.Context, sb *strings.Builder, requests []core.Request) {
	for _, req := range requests {
		cmd, err := c.ExportRequest(ctx, req)
		if err != nil {
			// Requests without a URL cannot be run
			sb.WriteString(fmt.Sprintf("# %s (skipped: no URL)\n\n", oneLine(req.Name)))
			continue
		}
		sb.WriteString(fmt.Sprintf("# %s\n", oneLine(req.Name)))
		sb.Write(cmd)
		sb.WriteString("\n\n")
	}
}

// ExportRequest exports a single request to a curl command.
func (c *CurlExporter) ExportRequest(ctx context.Context, req core.Request) ([]byte, error) {
	if req.URL == "" {
		return nil, ErrInvalidCollection
	}

	parts := []string{"curl"}

	// Method (only if not GET)
	method := strings.ToUpper(req.Method)
	if method != "" && method != "GET" {
		parts = append(parts, "-X", method)
	}

	// URL (always last)
	parts = append(parts, req.URL)

	if c.Pretty {
		return []byte(formatPrettyCurl(parts)), nil
	}
	return []byte(formatInlineCurl(parts)), nil
}

func formatInlineCurl(parts []string) string {
	quoted := make([]string, 0, len(parts))
	for _, part := range parts {
		quoted = append(quoted, shellQuote(part))
	}
	return strings.Join(quoted, " ")
}

func formatPrettyCurl(parts []string) string {
	var result strings.Builder
	result.WriteString("curl")

	for i := 1; i < len(parts); i++ {
		part := parts[i]

		// Options with a value stay on one line
		if strings.HasPrefix(part, "-") && i+1 < len(parts)-1 {
			result.WriteString(" \\\n  ")
			result.WriteString(shellQuote(part))
			result.WriteString(" ")
			i++
			result.WriteString(shellQuote(parts[i]))
			continue
		}
		result.WriteString(" \\\n  ")
		result.WriteString(shellQuote(part))
	}

	return result.String()
}

// oneLine keeps a name on its comment line.
func oneLine(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '\r' }), " ")
}

func shellQuote(s string) string {
	if !strings.ContainsAny(s, " \t\n\"'$`\\!*?[]{}()<>|&;") {
		return s
	}

	// Use single quotes and escape any single quotes in the string
	escaped := strings.ReplaceAll(s, "'", "'\"'\"'")
	return "'" + escaped + "'"
}

// Verify CurlExporter implements Exporter and RequestExporter interfaces
var _ Exporter = (*CurlExporter)(nil)
var _ RequestExporter = (*CurlExporter)(nil)
