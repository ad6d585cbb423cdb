package alias

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestRunViaGit(t *testing.T) {
	tests := []struct {
		argv0 string
		want  bool
	}{
		{"git-cai", true},
		{"/usr/local/bin/git-cai", true},
		{"./git-cai", true},
		{"git-cai.exe", true},
		{"cai", false},
		{"./cai", false},
		{"gitcai", false},
		{"/opt/git-tools/cai", false},
		{"/home/dev/go/bin/git-cai", true},
	}

	for _, tt := range tests {
		t.Run(tt.argv0, func(t *testing.T) {
			if got := RunViaGit(tt.argv0); got != tt.want {
				t.Errorf("RunViaGit(%q) = %v, want %v", tt.argv0, got, tt.want)
			}
		})
	}
}

func TestDetectShell(t *testing.T) {
	tests := []struct {
		shellEnv string
		want     ShellType
	}{
		{"/bin/bash", ShellBash},
		{"/usr/bin/zsh", ShellZsh},
		{"/usr/local/bin/fish", ShellFish},
		{"/bin/dash", ShellUnknown},
		{"", ShellUnknown},
	}

	originalShell := os.Getenv("SHELL")
	defer os.Setenv("SHELL", originalShell)

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			os.Setenv("SHELL", tt.shellEnv)
			if got := DetectShell(); got != tt.want {
				t.Errorf("DetectShell() with SHELL=%q = %v, want %v", tt.shellEnv, got, tt.want)
			}
		})
	}
}

func TestShellTypeString(t *testing.T) {
	tests := []struct {
		shell ShellType
		want  string
	}{
		{ShellBash, "bash"},
		{ShellZsh, "zsh"},
		{ShellFish, "fish"},
		{ShellUnknown, "unknown"},
		{ShellType(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.shell.String(); got != tt.want {
			t.Errorf("ShellType(%d).String() = %q, want %q", tt.shell, got, tt.want)
		}
	}
}

func TestExportLine(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("export statements differ on Windows")
	}

	tests := []struct {
		shell ShellType
		want  string
	}{
		{ShellBash, `export PATH="$PATH:/opt/gitcai/bin"`},
		{ShellZsh, `export PATH="$PATH:/opt/gitcai/bin"`},
		{ShellUnknown, `export PATH="$PATH:/opt/gitcai/bin"`},
		{ShellFish, "set -gx PATH $PATH /opt/gitcai/bin"},
	}

	for _, tt := range tests {
		if got := ExportLine(tt.shell, "/opt/gitcai/bin"); got != tt.want {
			t.Errorf("ExportLine(%v) = %q, want %q", tt.shell, got, tt.want)
		}
	}
}

func TestDirOnPath(t *testing.T) {
	sep := string(os.PathListSeparator)
	binDir := filepath.Join("/opt", "gitcai", "bin")

	tests := []struct {
		name    string
		dir     string
		pathEnv string
		want    bool
	}{
		{
			name:    "present",
			dir:     binDir,
			pathEnv: "/usr/bin" + sep + binDir + sep + "/bin",
			want:    true,
		},
		{
			name:    "present with trailing slash",
			dir:     binDir,
			pathEnv: binDir + string(os.PathSeparator),
			want:    true,
		},
		{
			name:    "absent",
			dir:     binDir,
			pathEnv: "/usr/bin" + sep + "/bin",
			want:    false,
		},
		{
			name:    "empty PATH",
			dir:     binDir,
			pathEnv: "",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dirOnPath(tt.dir, tt.pathEnv); got != tt.want {
				t.Errorf("dirOnPath(%q, %q) = %v, want %v", tt.dir, tt.pathEnv, got, tt.want)
			}
		})
	}
}

func TestGuidance_BeginsWithMisuseMessage(t *testing.T) {
	got := Guidance()
	if !strings.HasPrefix(got, MisuseMessage) {
		t.Errorf("Guidance() = %q, want prefix %q", got, MisuseMessage)
	}
}
