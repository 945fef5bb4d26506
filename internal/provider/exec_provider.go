package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/runger/typeahead/internal/snapshot"
)

// Exec provider limits. External tools are untrusted collaborators: bound
// their runtime and their output.
const (
	execTimeout        = 2 * time.Second
	execMaxOutputBytes = 1 << 20 // 1MB
)

// ErrExecOutputLimit is returned when the command produced more output than
// execMaxOutputBytes.
var ErrExecOutputLimit = errors.New("exec provider: output exceeded limit")

// ExecProvider answers queries by running an external command. The command
// template is shell-like ("rg --files-with-matches {query}"); the {query}
// placeholder is replaced with the search term after word splitting, so the
// term is always passed as a single argv element and never re-parsed by a
// shell. If no placeholder is present the term is appended as the last
// argument. One stdout line becomes one hit.
type ExecProvider struct {
	argv []string
}

// Compile-time check that ExecProvider implements Provider.
var _ Provider = (*ExecProvider)(nil)

// queryPlaceholder marks where the search term goes in the template.
const queryPlaceholder = "{query}"

// NewExecProvider parses the command template. The template must contain at
// least a command name.
func NewExecProvider(template string) (*ExecProvider, error) {
	argv, err := shlex.Split(template)
	if err != nil {
		return nil, fmt.Errorf("exec provider: parse command: %w", err)
	}
	if len(argv) == 0 {
		return nil, errors.New("exec provider: empty command")
	}
	return &ExecProvider{argv: argv}, nil
}

// Search implements Provider.
func (p *ExecProvider) Search(ctx context.Context, req Request) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, execTimeout)
	defer cancel()

	argv := p.expand(req.Query)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	stdout := limitWriter{max: execMaxOutputBytes}
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if stdout.exceeded {
		return Response{}, ErrExecOutputLimit
	}
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		// Some search tools (grep, rg) exit 1 for "no matches". Treat a
		// clean exit 1 with empty stderr as an empty result set.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 && stderr.Len() == 0 {
			return Response{RequestID: req.RequestID}, nil
		}
		return Response{}, fmt.Errorf("exec provider: %s: %w", argv[0], err)
	}

	hits := parseLines(stdout.buf.String(), req.Limit)
	return Response{RequestID: req.RequestID, Hits: hits}, nil
}

// limitWriter caps captured output while the command is still running, so
// a chatty tool fails fast instead of buffering past the cap until the
// timeout. The failed write closes the pipe and stops the command.
type limitWriter struct {
	buf      bytes.Buffer
	max      int
	exceeded bool
}

func (w *limitWriter) Write(p []byte) (int, error) {
	if w.buf.Len()+len(p) > w.max {
		w.exceeded = true
		return 0, ErrExecOutputLimit
	}
	return w.buf.Write(p)
}

// expand substitutes the query into the argv template.
func (p *ExecProvider) expand(query string) []string {
	argv := make([]string, 0, len(p.argv)+1)
	substituted := false
	for _, arg := range p.argv {
		if strings.Contains(arg, queryPlaceholder) {
			arg = strings.ReplaceAll(arg, queryPlaceholder, query)
			substituted = true
		}
		argv = append(argv, arg)
	}
	if !substituted {
		argv = append(argv, query)
	}
	return argv
}

// parseLines converts stdout lines into hits, at most limit of them.
func parseLines(out string, limit int) []snapshot.Hit {
	var hits []snapshot.Hit
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		hits = append(hits, snapshot.Hit{Title: line})
		if limit > 0 && len(hits) >= limit {
			break
		}
	}
	return hits
}
