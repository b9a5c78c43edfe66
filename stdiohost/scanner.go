package stdiohost

import (
	"bufio"
	"context"
	"io"
)

// maxLineBytes bounds one wire line. Envelopes larger than this are a
// protocol violation, not data.
const maxLineBytes = 1024 * 1024

type scanResult struct {
	line string
	err  error
}

// lineScanner bridges blocking line reads to context cancellation: a
// dedicated goroutine scans the reader and hands lines over a channel,
// so Next can select against ctx instead of sitting in a blocked read.
type lineScanner struct {
	results chan scanResult
}

func newLineScanner(r io.Reader) *lineScanner {
	ls := &lineScanner{results: make(chan scanResult)}
	go func() {
		defer close(ls.results)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for sc.Scan() {
			ls.results <- scanResult{line: sc.Text()}
		}
		if err := sc.Err(); err != nil {
			ls.results <- scanResult{err: err}
		}
	}()
	return ls
}

// Next returns the next line. ok is false at end of stream. A canceled
// context surfaces as its error without waiting for the read.
func (s *lineScanner) Next(ctx context.Context) (string, bool, error) {
	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case res, open := <-s.results:
		if !open {
			return "", false, nil
		}
		if res.err != nil {
			return "", false, res.err
		}
		return res.line, true, nil
	}
}
