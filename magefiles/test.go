//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os/exec"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// integrationTag selects the tests that start a Postgres container.
const integrationTag = "integration"

// Test groups test targets (all, race, integration).
type Test mg.Namespace

// All runs the unit tests against temporary SQLite databases.
func (Test) All() error {
	return sh.RunV(binGo, "test", "./...")
}

// Race runs the unit tests with the race detector.
func (Test) Race() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Integration builds first, then runs every test including the Postgres
// suites. Docker or Podman must be reachable.
func (Test) Integration() error {
	if !containerRuntimeAvailable() {
		fmt.Println("No container runtime found; skipping integration tests.")
		return nil
	}
	mg.Deps(Build)
	return sh.RunV(binGo, "test", "-tags", integrationTag, "-count=1", "./...")
}

// containerRuntimeAvailable reports whether docker or podman answers.
func containerRuntimeAvailable() bool {
	for _, name := range []string{"docker", "podman"} {
		if _, err := exec.LookPath(name); err != nil {
			continue
		}
		if exec.Command(name, "info").Run() == nil {
			return true
		}
	}
	return false
}
