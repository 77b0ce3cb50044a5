//go:build mage

// Package main provides build targets for gridline using Mage.
//
// Usage:
//
//	mage build        Compile gridline to bin/
//	mage test:unit    Run package tests
//	mage test:race    Run package tests with the race detector
//	mage test:cover   Run tests and write coverage.out
//	mage smoke        Build, then drive the binary through init, import and view
//	mage lint         Run golangci-lint
//	mage clean        Remove build artifacts
//	mage install      Install gridline to GOPATH/bin
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
	binGo      = "go"
	binaryName = "gridline"
	binaryDir  = "bin"
	cmdDir     = "./cmd/gridline"
	versionVar = "github.com/mesh-intelligence/gridline/internal/cli.Version"
)

// version returns the git description of HEAD, or "dev" outside a
// repository.
func version() string {
	out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || out == "" {
		return "dev"
	}
	return out
}

// Build compiles the gridline binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	ldflags := fmt.Sprintf("-X %s=%s", versionVar, version())
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags, "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test groups the test targets.
type Test mg.Namespace

// Unit runs every package's tests.
func (Test) Unit() error {
	return sh.RunV(binGo, "test", "./...")
}

// Race runs the tests with the race detector; the data manager's loads and
// saves run concurrently.
func (Test) Race() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Cover runs the tests and writes coverage.out.
func (Test) Cover() error {
	if err := sh.RunV(binGo, "test", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func=coverage.out")
}

// Smoke builds the binary and runs it against a throwaway data directory.
func Smoke() error {
	mg.Deps(Build)
	dir, err := os.MkdirTemp("", "gridline-smoke-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	sample := filepath.Join(dir, "sample.jsonl")
	lines := []string{
		`{"name":"Ragnar","race":"Nord","exp":1200}`,
		`{"name":"J'zargo","race":"Khajiit","exp":800}`,
		`{"name":"Aela","race":"Nord","exp":900}`,
	}
	if err := os.WriteFile(sample, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return err
	}

	bin, err := filepath.Abs(filepath.Join(binaryDir, binaryName))
	if err != nil {
		return err
	}
	global := []string{"--config-dir", filepath.Join(dir, "config"), "--data-dir", filepath.Join(dir, "data")}
	for _, args := range [][]string{
		{"init"},
		{"import", sample},
		{"view", "--group-by", "race", "--agg", "exp=sum"},
		{"query", "--filter", "exp=850..", "--sort", "exp:desc"},
	} {
		if err := sh.RunV(bin, append(global, args...)...); err != nil {
			return fmt.Errorf("gridline %s: %w", args[0], err)
		}
	}
	return nil
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	for _, p := range []string{binaryDir, "coverage.out"} {
		if err := os.RemoveAll(p); err != nil {
			return err
		}
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	return sh.Copy(filepath.Join(gopath, "bin", binaryName), filepath.Join(binaryDir, binaryName))
}
