// Package sample reads the per-pattern before/after code sample
// artifacts produced by the mining tool. Each sample-<n>.html file must
// expose exactly two code blocks: the before code first, the after code
// second.
package sample

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/changemine/patcanon/pkg/codetree"
)

// Domain errors. Both abort the pattern being processed, never the batch.
var (
	// ErrNoSampleFound means a pattern directory holds no usable sample.
	ErrNoSampleFound = errors.New("no sample found")
	// ErrMalformedSample means a sample artifact does not expose exactly
	// two code blocks.
	ErrMalformedSample = errors.New("malformed sample")
)

// codeBlocksPerSample is the required number of code blocks: before, after.
const codeBlocksPerSample = 2

// samplePattern matches the sample artifacts inside a pattern directory.
const samplePattern = "sample-*.html"

// Sample is one concrete before/after code pair.
type Sample struct {
	// Name is the artifact file name, kept for error reporting.
	Name string
	// Before and After hold the raw code block texts.
	Before []byte
	After  []byte
	// Language is the detected source language of the before code.
	Language string
}

// Parse extracts the before/after pair from one sample artifact.
func Parse(name string, r io.Reader) (*Sample, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse sample %s: %w", name, err)
	}

	blocks := codeBlocks(doc)
	if len(blocks) != codeBlocksPerSample {
		return nil, fmt.Errorf("sample %s has %d code blocks, want %d: %w",
			name, len(blocks), codeBlocksPerSample, ErrMalformedSample)
	}

	before := []byte(blocks[0])

	return &Sample{
		Name:     name,
		Before:   before,
		After:    []byte(blocks[1]),
		Language: codetree.DetectLanguage(before),
	}, nil
}

// LoadDir reads every sample artifact of a pattern directory, ordered by
// file name. An empty result is ErrNoSampleFound.
func LoadDir(dir string) ([]*Sample, error) {
	paths, err := filepath.Glob(filepath.Join(dir, samplePattern))
	if err != nil {
		return nil, fmt.Errorf("scan samples in %s: %w", dir, err)
	}

	sort.Strings(paths)

	samples := make([]*Sample, 0, len(paths))

	for _, path := range paths {
		f, openErr := os.Open(path)
		if openErr != nil {
			if errors.Is(openErr, fs.ErrNotExist) {
				continue
			}

			return nil, fmt.Errorf("open sample: %w", openErr)
		}

		s, parseErr := Parse(filepath.Base(path), f)
		_ = f.Close()

		if parseErr != nil {
			return nil, parseErr
		}

		samples = append(samples, s)
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoSampleFound)
	}

	return samples, nil
}

// codeBlocks collects the text content of every <code> element in
// document order.
func codeBlocks(doc *html.Node) []string {
	var blocks []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "code" {
			blocks = append(blocks, text(n))

			return
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return blocks
}

// text concatenates the text nodes under n.
func text(n *html.Node) string {
	var b strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)

	return b.String()
}
