//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Stats prints Go lines of code and migration SQL line counts.
func Stats() error {
	var prodLines, testLines, sqlLines int

	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path == "vendor" || path == ".git" || path == binaryDir || strings.HasPrefix(path, "_") {
				return filepath.SkipDir
			}
			return nil
		}
		// Build tooling is not project code.
		if strings.HasPrefix(path, "magefiles") {
			return nil
		}
		var bucket *int
		switch {
		case strings.HasSuffix(path, "_test.go"):
			bucket = &testLines
		case strings.HasSuffix(path, ".go"):
			bucket = &prodLines
		case strings.HasSuffix(path, ".sql"):
			bucket = &sqlLines
		default:
			return nil
		}
		count, countErr := countLines(path)
		if countErr != nil {
			return nil
		}
		*bucket += count
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Lines of code (Go, total):      %d\n", prodLines+testLines)
	fmt.Printf("Lines of SQL (migrations):      %d\n", sqlLines)
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
