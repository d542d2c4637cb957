// Package gitlog reads commit history from a git working tree.
package gitlog

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/penwyp/go-worktime/internal/core/constants"
	"github.com/penwyp/go-worktime/internal/core/model"
	"github.com/penwyp/go-worktime/internal/util"
)

const (
	fieldSep  = "\x1f"
	recordSep = '\x1e'
	// hash, author name, author date (strict ISO 8601), subject
	prettyFormat = "--pretty=format:%H%x1f%an%x1f%aI%x1f%s%x1e"
)

// Options selects which commits Read returns.
type Options struct {
	Dir     string
	Since   time.Time
	Author  string
	Timeout time.Duration
}

// Read runs git log in opts.Dir and parses its output.
func Read(ctx context.Context, opts Options) ([]model.CommitRecord, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = constants.GitLogTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"log", "--no-color", prettyFormat}
	if !opts.Since.IsZero() {
		args = append(args, "--since="+opts.Since.Format(time.RFC3339))
	}
	if opts.Author != "" {
		args = append(args, "--author="+opts.Author)
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = opts.Dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	util.LogDebug("Running git log", util.F("dir", opts.Dir), util.F("args", strings.Join(args, " ")))

	out, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("git log timed out after %s", timeout)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("git log: %s: %w", msg, err)
		}
		return nil, fmt.Errorf("git log: %w", err)
	}
	return ParseLog(bytes.NewReader(out))
}

// ParseLog decodes output produced with prettyFormat. A record whose date
// cannot be parsed keeps a zero Timestamp so the aggregator can report it.
func ParseLog(r io.Reader) ([]model.CommitRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	scanner.Split(splitRecords)

	var commits []model.CommitRecord
	for scanner.Scan() {
		raw := strings.Trim(scanner.Text(), "\r\n ")
		if raw == "" {
			continue
		}

		fields := strings.SplitN(raw, fieldSep, 4)
		for len(fields) < 4 {
			fields = append(fields, "")
		}

		c := model.CommitRecord{
			ID:      strings.TrimSpace(fields[0]),
			Author:  strings.TrimSpace(fields[1]),
			Message: fields[3],
		}
		if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(fields[2])); err == nil {
			c.Timestamp = ts
		} else if fields[2] != "" {
			util.LogDebug("Unparsable commit date", util.F("id", c.ID), util.F("date", fields[2]))
		}
		commits = append(commits, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read git log: %w", err)
	}
	return commits, nil
}

func splitRecords(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, recordSep); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
