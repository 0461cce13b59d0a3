package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// readEntries loads one entry per non-blank, non-comment line of filename.
// Lines that parse rejects are reported back by number and skipped.
func readEntries[T any](filename string, parse func(line string) (T, bool)) (entries []T, skipped []int, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry, ok := parse(line)
		if !ok {
			skipped = append(skipped, lineNum)
			continue
		}
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("error reading %s: %w", filename, err)
	}

	return entries, skipped, nil
}
