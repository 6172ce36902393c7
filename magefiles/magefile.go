//go:build mage

// Package main contains Mage build targets for wpconvert developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "wpconvert"
	cmdPkg  = "./cmd/wpconvert"

	imageName  = "wpconvert/soffice:latest"
	fixtureDir = "testdata/letters"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests. The ledger needs cgo for sqlite.
func Test() error {
	return sh.RunWithV(map[string]string{"CGO_ENABLED": "1"}, "go", "test", "./...")
}

// Image builds the conversion image used by --engine container.
func Image() error {
	rt := "docker"
	if _, err := sh.Output("docker", "version"); err != nil {
		rt = "podman"
	}
	return sh.RunV(rt, "build", "-t", imageName, "build")
}

// fixtures are written by Fixture. The content is not real WordPerfect; it
// only gives the pipeline something to rename and hand to the engine.
var fixtures = map[string]string{
	"letter-1998":  "\xffWPC letter to the board\n",
	"minutes":      "\xffWPC meeting minutes\n",
	"memo.doc":     "not a WordPerfect file\n",
	".hidden-note": "never listed\n",
}

// Fixture recreates a sample directory under testdata/letters.
func Fixture() error {
	if err := os.RemoveAll(fixtureDir); err != nil {
		return fmt.Errorf("clearing %s: %w", fixtureDir, err)
	}
	if err := os.MkdirAll(fixtureDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", fixtureDir, err)
	}
	for name, body := range fixtures {
		path := filepath.Join(fixtureDir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Println("  ", path)
	}
	return nil
}

// Demo builds the binary and runs a dry run over a fresh fixture directory.
func Demo() error {
	mg.Deps(Build, Fixture)
	return sh.RunV(filepath.Join(binDir, binName), "-d", fixtureDir, "--dry-run", "-v")
}

// Stats prints project metrics: Go production/test LOC and documentation word count.
func Stats() error {
	prodLines, testLines, err := countGoLines(".")
	if err != nil {
		return err
	}
	docWords, err := countDocWords(".")
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Words (documentation):           %d\n", docWords)
	return nil
}

// skipDir reports whether a directory is outside the project's own sources.
func skipDir(path string) bool {
	base := filepath.Base(path)
	return path != "." && (strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_") || base == "testdata" || base == binDir)
}

// countGoLines counts non-blank lines in production and test Go files.
func countGoLines(root string) (prod, test int, err error) {
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if skipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		n := 0
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) != "" {
				n++
			}
		}
		if strings.HasSuffix(path, "_test.go") {
			test += n
		} else {
			prod += n
		}
		return nil
	})
	return prod, test, err
}

// countDocWords counts words in the project's Markdown files.
func countDocWords(root string) (int, error) {
	total := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if skipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".md" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		total += len(strings.Fields(string(data)))
		return nil
	})
	return total, err
}
