package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TailOptions selects which lines Tail returns.
type TailOptions struct {
	// Offset is the byte position to resume from. A negative offset returns
	// the last Limit lines instead.
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
	// Match keeps only matching entries when set.
	Match func(line string) bool
}

// TailResult carries the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

const pollInterval = 250 * time.Millisecond

// Tail reads log lines from path. A missing file yields no lines.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	result := TailResult{Offset: opts.Offset}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			result.Offset = 0
			return result, nil
		}
		return result, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return result, fmt.Errorf("log path %q is a directory", path)
	}
	if opts.Wait < 0 {
		opts.Wait = 0
	}

	offset := opts.Offset
	var lines []string
	if offset < 0 {
		all, end, err := readFrom(path, 0)
		if err != nil {
			return result, err
		}
		lines, offset = lastN(filter(all, opts.Match), opts.Limit), end
	} else {
		if offset > info.Size() {
			// Truncated or rotated: start over.
			offset = 0
		}
		read, end, err := readFrom(path, offset)
		if err != nil {
			return result, err
		}
		lines, offset = filter(read, opts.Match), end
	}
	result.Lines, result.Offset = lines, offset

	if len(lines) > 0 || !opts.Follow || opts.Wait == 0 {
		return result, nil
	}
	return waitForLines(ctx, path, offset, opts)
}

// ProcessMatcher matches console and JSON entries logged for one process.
func ProcessMatcher(processID int64) func(string) bool {
	id := strconv.FormatInt(processID, 10)
	console := "Process #" + id + " "
	jsonField := regexp.MustCompile(`"process_id":` + id + `[,}]`)
	return func(line string) bool {
		return strings.Contains(line, console) || jsonField.MatchString(line)
	}
}

func readFrom(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}
	end, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("determine log offset: %w", err)
	}
	return lines, end, nil
}

// filter keeps matching lines plus the indented attribute lines that follow
// a kept console header.
func filter(lines []string, match func(string) bool) []string {
	if match == nil {
		return lines
	}
	var kept []string
	keeping := false
	for _, line := range lines {
		if strings.HasPrefix(line, " ") && keeping {
			kept = append(kept, line)
			continue
		}
		keeping = match(line)
		if keeping {
			kept = append(kept, line)
		}
	}
	return kept
}

func lastN(lines []string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	if len(lines) > limit {
		return lines[len(lines)-limit:]
	}
	return lines
}

func waitForLines(ctx context.Context, path string, offset int64, opts TailOptions) (TailResult, error) {
	deadline := time.Now().Add(opts.Wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	result := TailResult{Offset: offset}
	for {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}
		read, end, err := readFrom(path, result.Offset)
		if err != nil {
			return result, err
		}
		result.Offset = end
		if lines := filter(read, opts.Match); len(lines) > 0 {
			result.Lines = lines
			return result, nil
		}
		if time.Now().After(deadline) {
			return result, nil
		}
	}
}
