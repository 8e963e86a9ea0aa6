package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// confirm asks prompt on out and reads one answer from in. Only "y" and "yes"
// agree; an empty answer or end of input declines.
func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprintf(out, "%s? [y/N] ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// splitYes strips --yes and -y from args wherever they appear.
func splitYes(args []string) ([]string, bool) {
	isYes := func(a string) bool { return a == "--yes" || a == "-y" }
	if !slices.ContainsFunc(args, isYes) {
		return args, false
	}
	return slices.DeleteFunc(slices.Clone(args), isYes), true
}
