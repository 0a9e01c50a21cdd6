// SPDX-License-Identifier: MIT

// Package build carries metadata injected at link time, for example:
//
//	go build -ldflags "-X fbank/internal/build.buildVersion=0.3.0 -X fbank/internal/build.buildCommit=$(git rev-parse --short HEAD)"
//
// Development builds leave the variables empty and report defaults.
package build

import (
	"fmt"

	"github.com/google/uuid"
)

// Info describes the running binary.
type Info struct {
	Name       string // Application name
	Time       string // Build timestamp (RFC3339)
	Commit     string // Git commit hash
	Version    string // Semantic version
	InstanceID string // Random per-process identifier
}

// String renders the one-line form printed by `fbank version`.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

// Defaults for flags left empty by a development build.
const (
	DefaultName    = "fbank"
	DefaultVersion = "dev"
	unknown        = "unknown"
)

// Package-level variables for build information, set with -ldflags -X.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildInfo    = &Info{
		Name:    DefaultName,
		Time:    unknown,
		Commit:  unknown,
		Version: DefaultVersion,
	}
)

// Initialize copies the ldflags variables into the Info returned by Get
// and assigns a fresh instance ID. Call it once at startup.
func Initialize() error {
	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Errorf("generating instance id: %w", err)
	}

	buildInfo.Name = orDefault(buildName, DefaultName)
	buildInfo.Time = orDefault(buildTime, unknown)
	buildInfo.Commit = orDefault(buildCommit, unknown)
	buildInfo.Version = orDefault(buildVersion, DefaultVersion)
	buildInfo.InstanceID = id.String()

	return nil
}

// Get returns the current build information.
func Get() Info {
	return *buildInfo
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
