// Package testmapper implements component L's Test Mapper contract: a
// pure filesystem-plus-regex mapping from a source file to its candidate
// test files, and extraction of test method names from those files. No
// database state is involved.
package testmapper

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// testSuffixes are the conventional suffixes a test class carries for the
// class under test X: XTest, XTests, XIT.
var testSuffixes = []string{"Test", "Tests", "IT"}

// annotationRe matches @Test-annotated methods (with or without
// parentheses/arguments on the annotation itself).
var annotationRe = regexp.MustCompile(`(?m)@Test(?:\([^)]*\))?\s*\n\s*(?:public|private|protected)?\s*(?:static\s+)?\s*(?:void|[\w<>\[\],\s]+)\s+(\w+)\s*\(`)

// namePrefixRe matches methods whose name itself starts with "test".
var namePrefixRe = regexp.MustCompile(`(?m)(?:public|private|protected)\s+(?:static\s+)?(?:void|[\w<>\[\],\s]+)\s+(test\w*)\s*\(`)

// CandidateTestFiles returns every path that could hold tests for the
// given main-tree source file, following the
// .../main/java/.../X.java <-> .../test/java/.../{X}{Test,Tests,IT}.java
// convention. Paths are returned whether or not they exist; callers filter
// with Exists or os.Stat as needed.
func CandidateTestFiles(mainSourcePath string) []string {
	testRoot := strings.Replace(mainSourcePath, string(filepath.Separator)+"main"+string(filepath.Separator), string(filepath.Separator)+"test"+string(filepath.Separator), 1)
	if testRoot == mainSourcePath {
		return nil
	}

	dir := filepath.Dir(testRoot)
	base := filepath.Base(testRoot)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	var out []string
	for _, suffix := range testSuffixes {
		out = append(out, filepath.Join(dir, name+suffix+ext))
	}
	return out
}

// FindRelatedTests returns the subset of CandidateTestFiles(mainSourcePath)
// that actually exist on disk.
func FindRelatedTests(mainSourcePath string) []string {
	var existing []string
	for _, candidate := range CandidateTestFiles(mainSourcePath) {
		if _, err := os.Stat(candidate); err == nil {
			existing = append(existing, candidate)
		}
	}
	return existing
}

// ExtractTestMethods reads testFilePath and returns every method name
// recognized as a test: either @Test-annotated or named with a "test"
// prefix.
func ExtractTestMethods(testFilePath string) ([]string, error) {
	data, err := os.ReadFile(testFilePath)
	if err != nil {
		return nil, err
	}
	return ExtractTestMethodsFromSource(string(data)), nil
}

// ExtractTestMethodsFromSource applies both regex families directly to
// source text, useful for testing without touching the filesystem.
func ExtractTestMethodsFromSource(source string) []string {
	seen := make(map[string]bool)
	var out []string

	for _, m := range annotationRe.FindAllStringSubmatch(source, -1) {
		if name := m[1]; !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, m := range namePrefixRe.FindAllStringSubmatch(source, -1) {
		if name := m[1]; !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
