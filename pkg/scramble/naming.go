package scramble

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// OutputName builds the file name of a scrambled image: the source base
// name, each tag prefixed with "-", then the source extension.
//
//	OutputName("dir/cat.png", []string{"fliph", "gray"}) == "cat-fliph-gray.png"
func OutputName(src string, tags []string) string {
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	var sb strings.Builder
	sb.WriteString(strings.TrimSuffix(base, ext))
	for _, t := range tags {
		sb.WriteByte('-')
		sb.WriteString(t)
	}
	sb.WriteString(ext)
	return sb.String()
}

// ParseGrid reads a "cols,rows" puzzle value. Either part may be left
// out and then defaults to DefaultGridSize.
func ParseGrid(s string) (cols, rows int, err error) {
	cols, rows = DefaultGridSize, DefaultGridSize
	s = strings.TrimSpace(s)
	if s == "" {
		return cols, rows, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) > 2 {
		return 0, 0, fmt.Errorf("%w: %q, want cols,rows", ErrInvalidGrid, s)
	}
	vals := []*int{&cols, &rows}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %q: %v", ErrInvalidGrid, s, err)
		}
		if n <= 0 {
			return 0, 0, fmt.Errorf("%w: %q, values must be positive", ErrInvalidGrid, s)
		}
		*vals[i] = n
	}
	return cols, rows, nil
}
