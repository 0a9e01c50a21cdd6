// SPDX-License-Identifier: MIT
package build

import (
	"os"
	"testing"

	"github.com/google/uuid"
)

var (
	origName    string
	origTime    string
	origCommit  string
	origVersion string
	origInfo    Info
)

func TestMain(m *testing.M) {
	origName = buildName
	origTime = buildTime
	origCommit = buildCommit
	origVersion = buildVersion
	origInfo = *buildInfo

	exitCode := m.Run()

	buildName = origName
	buildTime = origTime
	buildCommit = origCommit
	buildVersion = origVersion
	*buildInfo = origInfo

	os.Exit(exitCode)
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name        string
		buildName   string
		buildTime   string
		buildCommit string
		buildVer    string
		want        Info
	}{
		{
			"All flags set",
			"fbank-test",
			"2025-04-13T10:00:00Z",
			"abcdef123",
			"v1.0.0",
			Info{Name: "fbank-test", Time: "2025-04-13T10:00:00Z", Commit: "abcdef123", Version: "v1.0.0"},
		},
		{
			"Development build",
			"",
			"",
			"",
			"",
			Info{Name: DefaultName, Time: "unknown", Commit: "unknown", Version: DefaultVersion},
		},
		{
			"Version only",
			"",
			"",
			"",
			"v0.2.0",
			Info{Name: DefaultName, Time: "unknown", Commit: "unknown", Version: "v0.2.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buildName = tt.buildName
			buildTime = tt.buildTime
			buildCommit = tt.buildCommit
			buildVersion = tt.buildVer

			if err := Initialize(); err != nil {
				t.Fatalf("Initialize() error = %v", err)
			}

			got := Get()
			if _, err := uuid.Parse(got.InstanceID); err != nil {
				t.Errorf("InstanceID %q is not a uuid: %v", got.InstanceID, err)
			}
			got.InstanceID = ""
			if got != tt.want {
				t.Errorf("Get() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInitialize_NewInstanceID(t *testing.T) {
	if err := Initialize(); err != nil {
		t.Fatal(err)
	}
	first := Get().InstanceID
	if err := Initialize(); err != nil {
		t.Fatal(err)
	}
	if second := Get().InstanceID; second == first {
		t.Errorf("InstanceID did not change: %s", first)
	}
}

func TestInfoString(t *testing.T) {
	info := Info{Name: "fbank", Version: "v1.2.3", Commit: "abc", Time: "2025-01-01"}
	want := "fbank v1.2.3 (commit abc, built 2025-01-01)"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
