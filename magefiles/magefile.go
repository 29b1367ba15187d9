//go:build mage

// Package main provides build targets for burgerapi using Mage.
//
// Usage:
//
//	mage build        Compile the burgerapi binary to bin/
//	mage test         Run unit tests
//	mage integration  Run tests tagged integration (needs Docker)
//	mage lint         Run golangci-lint
//	mage swagger      Regenerate docs/ from handler annotations
//	mage clean        Remove build artifacts
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "burgerapi"
	binaryDir  = "bin"
	cmdDir     = "./cmd/api"
)

// Build compiles the burgerapi binary to bin/, stamping the git version.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || strings.TrimSpace(version) == "" {
		version = "dev"
	}
	ldflags := "-X main.version=" + strings.TrimSpace(version)
	return sh.RunV("go", "build", "-ldflags", ldflags, "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Integration runs the postgres tests against a testcontainers database.
func Integration() error {
	return sh.RunV("go", "test", "-tags", "integration", "-count=1", "./pkg/burger/sqlstore/...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Swagger regenerates the OpenAPI docs served under /swagger/.
func Swagger() error {
	return sh.RunV("swag", "init", "-g", "cmd/api/main.go", "-o", "docs", "--parseDependency")
}

// Clean removes build artifacts.
func Clean() error {
	return os.RemoveAll(binaryDir)
}

// All runs lint, tests and build in order.
func All() {
	mg.SerialDeps(Lint, Test, Build)
}
