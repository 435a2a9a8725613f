//go:build mage

// Package main provides Mage build targets for the ontology hub.
//
// Usage:
//
//	mage test         Run every test in the module
//	mage unit         Run package tests, skipping the integration suite
//	mage integration  Run the integration suite under tests/
//	mage cover        Run all tests with a coverage profile and summary
//	mage lint         Run golangci-lint
//	mage tidy         Sync go.mod with the source tree
//	mage clean        Remove generated artifacts
package main

import (
	"os"

	"github.com/magefile/mage/sh"
)

const coverProfile = "coverage.out"

// Test runs every test in the module.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Unit runs the package tests, skipping the integration suite.
func Unit() error {
	return sh.RunV("go", "test", "./internal/...", "./pkg/...")
}

// Integration runs the integration suite under tests/.
func Integration() error {
	return sh.RunV("go", "test", "./tests/...")
}

// Cover runs all tests with a coverage profile and prints the per-function
// summary.
func Cover() error {
	if err := sh.RunV("go", "test", "-coverprofile="+coverProfile, "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func="+coverProfile)
}

// Lint runs golangci-lint over the module.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Tidy syncs go.mod and go.sum with the source tree.
func Tidy() error {
	return sh.RunV("go", "mod", "tidy")
}

// Clean removes generated artifacts.
func Clean() error {
	if err := os.Remove(coverProfile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return sh.RunV("go", "clean")
}
