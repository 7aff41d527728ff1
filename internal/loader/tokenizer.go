package loader

import (
	"bufio"
	"fmt"
	"strconv"
)

// tokenizer pulls whitespace-separated tokens off the input stream
// regardless of line breaks, so the shard format can wrap long arrays
// (row_start, edges) across as many lines as convenient without the
// parser caring where the breaks fall.
type tokenizer struct {
	sc *bufio.Scanner
}

func newTokenizer(sc *bufio.Scanner) *tokenizer {
	sc.Split(bufio.ScanWords)
	return &tokenizer{sc: sc}
}

func (t *tokenizer) next() (string, error) {
	if !t.sc.Scan() {
		if err := t.sc.Err(); err != nil {
			return "", fmt.Errorf("loader: scan: %w", err)
		}
		return "", fmt.Errorf("loader: unexpected end of input")
	}
	return t.sc.Text(), nil
}

func (t *tokenizer) int() (int, error) {
	tok, err := t.next()
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("loader: %q is not an integer: %w", tok, err)
	}
	return v, nil
}

func (t *tokenizer) uint32() (uint32, error) {
	tok, err := t.next()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(tok, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("loader: %q is not a uint32: %w", tok, err)
	}
	return uint32(v), nil
}
