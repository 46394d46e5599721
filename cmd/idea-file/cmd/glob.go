// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package cmd

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/gobwas/glob/syntax"
	"github.com/gobwas/glob/syntax/ast"
)

// parseGlob parses a string that potentially contains glob metacharacters, and
// returns (nonglobprefix, hasglob). If the string does not contain any glob
// metacharacter, this function returns (str, false). Else, it returns the
// prefix of path elements up to the element containing a glob character.
//
// For example, parseGlob("foo/bar/baz*/*.txt" returns ("foo/bar/", true).
func parseGlob(str string) (string, bool) {
	node, err := syntax.Parse(str)
	if err != nil || node.Kind != ast.KindPattern || len(node.Children) == 0 {
		return str, false
	}
	if node.Children[0].Kind != ast.KindText {
		return "", true
	}
	if len(node.Children) == 1 {
		return str, false
	}
	nonGlobPrefix := node.Children[0].Value.(ast.Text).Text
	if i := strings.LastIndexByte(nonGlobPrefix, '/'); i >= 0 {
		nonGlobPrefix = nonGlobPrefix[:i+1]
	} else {
		nonGlobPrefix = ""
	}
	return nonGlobPrefix, true
}

// expandGlob expands the given glob string against the local
// filesystem, matching regular files only. If the string does not
// contain a glob metacharacter, if nothing matches, or on any error, it
// returns {str}, so that the error surfaces when the file is opened.
func expandGlob(str string) []string {
	nonGlobPrefix, hasGlob := parseGlob(str)
	if !hasGlob {
		return []string{str}
	}
	m, err := glob.Compile(str, '/')
	if err != nil {
		return []string{str}
	}
	root := nonGlobPrefix
	if root == "" {
		root = "."
	}
	globSuffix := strings.TrimSuffix(str[len(nonGlobPrefix):], "/")
	recursive := strings.Contains(globSuffix, "/") || strings.Contains(globSuffix, "**")
	var matches []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if !recursive && filepath.Clean(path) != filepath.Clean(root) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if nonGlobPrefix == "" {
			path = strings.TrimPrefix(path, "./")
		}
		if m.Match(filepath.ToSlash(path)) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil || len(matches) == 0 {
		return []string{str}
	}
	sort.Strings(matches)
	return matches
}

// expandGlobs calls expandGlob on each string and unions the results,
// dropping duplicates.
func expandGlobs(patterns []string) []string {
	var (
		matches []string
		seen    = make(map[string]bool)
	)
	for _, pattern := range patterns {
		for _, match := range expandGlob(pattern) {
			if !seen[match] {
				seen[match] = true
				matches = append(matches, match)
			}
		}
	}
	return matches
}
