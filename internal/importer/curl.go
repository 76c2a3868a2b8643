package importer

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/artpar/reqtree/internal/core"
	"github.com/artpar/reqtree/internal/ident"
	"github.com/kballard/go-shellquote"
)

const (
	curlCollectionPrefix = "Collection: "
	curlSkippedSuffix    = " (skipped: no URL)"
	curlDefaultName      = "Imported from curl"
)

// CurlImporter imports curl commands and the shell scripts written by the
// curl exporter. Section comments map back to collections and folders, and
// the comment above a command names its request.
type CurlImporter struct {
	gen ident.Generator
}

// NewCurlImporter creates a new curl importer.
func NewCurlImporter(gen ident.Generator) *CurlImporter {
	if gen == nil {
		gen = ident.NewRandom()
	}
	return &CurlImporter{gen: gen}
}

func (c *CurlImporter) Name() string {
	return "curl command"
}

func (c *CurlImporter) Format() Format {
	return FormatCurl
}

func (c *CurlImporter) FileExtensions() []string {
	return []string{".sh", ".curl", ".txt"}
}

// DetectFormat reports whether the first statement in content is a curl
// command.
func (c *CurlImporter) DetectFormat(content []byte) bool {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line == "curl" || strings.HasPrefix(line, "curl ") || strings.HasPrefix(line, "curl\t")
	}
	return false
}

func (c *CurlImporter) Import(ctx context.Context, content []byte) ([]core.Collection, error) {
	statements, err := splitStatements(content)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	b := &curlBuilder{newID: func(scope string) string {
		id := ident.Unique(c.gen, scope, func(id string) bool { return seen[id] })
		seen[id] = true
		return id
	}}

	for _, st := range statements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.add(st); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrParseError, st.line, err)
		}
	}
	if len(b.collections) == 0 {
		return nil, fmt.Errorf("%w: no curl commands found", ErrParseError)
	}
	return b.collections, nil
}

type statementKind int

const (
	kindBlank statementKind = iota
	kindComment
	kindCommand
)

type statement struct {
	kind statementKind
	text string
	line int
}

// splitStatements folds continuation lines into single commands.
func splitStatements(content []byte) ([]statement, error) {
	var (
		out     []statement
		pending strings.Builder
		start   int
	)
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if pending.Len() == 0 {
			trimmed := strings.TrimSpace(line)
			switch {
			case trimmed == "":
				out = append(out, statement{kind: kindBlank, line: n})
				continue
			case strings.HasPrefix(trimmed, "#!"):
				continue
			case strings.HasPrefix(trimmed, "#"):
				out = append(out, statement{kind: kindComment, text: strings.TrimPrefix(strings.TrimPrefix(trimmed, "#"), " "), line: n})
				continue
			}
			start = n
		}

		if strings.HasSuffix(line, "\\") {
			pending.WriteString(strings.TrimSuffix(line, "\\"))
			pending.WriteString(" ")
			continue
		}
		pending.WriteString(line)
		out = append(out, statement{kind: kindCommand, text: strings.TrimSpace(pending.String()), line: start})
		pending.Reset()
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseError, err)
	}
	if pending.Len() > 0 {
		out = append(out, statement{kind: kindCommand, text: strings.TrimSpace(pending.String()), line: start})
	}
	return out, nil
}

// curlBuilder assembles collections from statements in order.
type curlBuilder struct {
	newID       func(scope string) string
	collections []core.Collection
	folder      int // index into the current collection's folders, -1 for root
	comments    []string
	fresh       bool // collection header seen with nothing under it yet
}

func (b *curlBuilder) add(st statement) error {
	switch st.kind {
	case kindBlank:
		if len(b.comments) > 0 && b.fresh {
			b.current().Description = strings.Join(b.comments, "\n")
		}
		b.comments = nil
		b.fresh = false
	case kindComment:
		b.addComment(st.text)
	case kindCommand:
		req, err := parseCurl(st.text)
		if err != nil {
			return err
		}
		req.ID = b.newID(ident.ScopeRequest)
		if name := b.lastComment(); name != "" {
			req.Name = name
		}
		b.comments = nil
		b.fresh = false
		b.append(req)
	}
	return nil
}

func (b *curlBuilder) addComment(text string) {
	switch {
	case strings.HasPrefix(text, curlCollectionPrefix):
		name := strings.TrimSpace(strings.TrimPrefix(text, curlCollectionPrefix))
		b.collections = append(b.collections, core.NewCollection(b.newID(ident.ScopeCollection), name))
		b.folder = -1
		b.comments = nil
		b.fresh = true
	case strings.HasPrefix(text, "===") && strings.HasSuffix(text, "==="):
		name := strings.TrimSpace(strings.Trim(text, "="))
		coll := b.current()
		coll.Folders = append(coll.Folders, core.NewFolder(b.newID(ident.ScopeFolder), name))
		b.folder = len(coll.Folders) - 1
		b.comments = nil
		b.fresh = false
	case strings.HasSuffix(text, curlSkippedSuffix):
		req := core.NewRequest(b.newID(ident.ScopeRequest))
		req.Name = strings.TrimSuffix(text, curlSkippedSuffix)
		b.append(req)
		b.comments = nil
		b.fresh = false
	default:
		b.comments = append(b.comments, text)
	}
}

// lastComment is the nearest non-empty comment line above a command.
func (b *curlBuilder) lastComment() string {
	for i := len(b.comments) - 1; i >= 0; i-- {
		if text := strings.TrimSpace(b.comments[i]); text != "" {
			return text
		}
	}
	return ""
}

// current returns the collection being built, starting a default one when
// commands appear before any header.
func (b *curlBuilder) current() *core.Collection {
	if len(b.collections) == 0 {
		b.collections = append(b.collections, core.NewCollection(b.newID(ident.ScopeCollection), curlDefaultName))
		b.folder = -1
	}
	return &b.collections[len(b.collections)-1]
}

func (b *curlBuilder) append(req core.Request) {
	coll := b.current()
	if b.folder >= 0 {
		coll.Folders[b.folder].Requests = append(coll.Folders[b.folder].Requests, req)
		return
	}
	coll.Requests = append(coll.Requests, req)
}

// parseCurl reads the method and URL of a single curl command. Headers,
// bodies and transport options are accepted and ignored.
func parseCurl(cmd string) (core.Request, error) {
	tokens, err := shellquote.Split(cmd)
	if err != nil {
		return core.Request{}, err
	}
	if len(tokens) == 0 || tokens[0] != "curl" {
		return core.Request{}, fmt.Errorf("not a curl command")
	}

	req := core.NewRequest("")
	method := ""
	hasData := false

	for i := 1; i < len(tokens); i++ {
		token := tokens[i]
		switch token {
		case "-X", "--request":
			if i+1 < len(tokens) {
				i++
				method = tokens[i]
			}
		case "-d", "--data", "--data-raw", "--data-binary", "--data-urlencode", "--json", "-F", "--form":
			hasData = true
			i++
		case "-I", "--head":
			method = "HEAD"
		case "-G", "--get":
			method = "GET"
		case "-H", "--header", "-u", "--user", "-A", "--user-agent", "-e", "--referer",
			"-b", "--cookie", "-o", "--output", "-x", "--proxy", "-m", "--max-time":
			i++
		case "--url":
			if i+1 < len(tokens) {
				i++
				req.URL = tokens[i]
			}
		default:
			if strings.HasPrefix(token, "-") {
				continue
			}
			if req.URL == "" {
				req.URL = token
			}
		}
	}

	if req.URL == "" {
		return core.Request{}, fmt.Errorf("no URL found in curl command")
	}
	if method == "" && hasData {
		method = "POST"
	}
	if method != "" {
		req = req.WithMethod(method)
	}
	req.Name = nameFromURL(req.URL)
	return req, nil
}

// nameFromURL uses the last path segment, or the host when the path is empty.
func nameFromURL(url string) string {
	name := url
	if idx := strings.Index(name, "://"); idx >= 0 {
		name = name[idx+3:]
	}
	if idx := strings.IndexAny(name, "?#"); idx >= 0 {
		name = name[:idx]
	}

	host, path, _ := strings.Cut(name, "/")
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if last := segments[len(segments)-1]; last != "" {
		return last
	}
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	if host == "" {
		return core.DefaultRequestName
	}
	return host
}

var _ Importer = (*CurlImporter)(nil)
