//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Build targets for atlas.
//
//	mage build       compile bin/atlas
//	mage install     copy bin/atlas to GOPATH/bin
//	mage clean       remove build artifacts
//	mage test:all    run every test
//	mage test:unit   run tests without the race detector, short mode
//	mage test:race   run every test with the race detector
//	mage lint        run golangci-lint
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "atlas"
	binaryDir  = "bin"
	cmdDir     = "./cmd/atlas"
	versionVar = "github.com/mesh-intelligence/atlas/internal/cli.Version"
)

// Build compiles the atlas binary to bin/, stamping the version from
// ATLAS_VERSION or the nearest git tag when one is available.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v", "-o", filepath.Join(binaryDir, binaryName)}
	if v := buildVersion(); v != "" {
		args = append(args, "-ldflags", "-X "+versionVar+"="+v)
	}
	return sh.RunV(binGo, append(args, cmdDir)...)
}

func buildVersion() string {
	if v := os.Getenv("ATLAS_VERSION"); v != "" {
		return v
	}
	tag, err := sh.Output("git", "describe", "--tags", "--abbrev=0")
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.TrimSpace(tag), "v")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
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
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
