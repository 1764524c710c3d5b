package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	appName        = "mvpipe"
	configFileName = "config.json"
)

var lookPath = exec.LookPath

func UserConfigPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); strings.TrimSpace(xdg) != "" {
		return filepath.Join(xdg, appName, configFileName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName, configFileName), nil
}

func ProjectConfigPath(cwd string) string {
	return filepath.Join(cwd, configFileName)
}

// DefaultDevice reports cuda when the NVIDIA driver tooling is installed.
func DefaultDevice() string {
	if _, err := lookPath("nvidia-smi"); err == nil {
		return DeviceCUDA
	}
	return DeviceCPU
}

func DefaultComputeType(device string) string {
	if device == DeviceCUDA {
		return "float16"
	}
	return "int8"
}

func ExpandPath(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}

	expanded := os.ExpandEnv(strings.TrimSpace(raw))
	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		expanded = filepath.Join(home, strings.TrimPrefix(expanded, "~/"))
	}

	return filepath.Clean(expanded), nil
}

// ResolvePath expands raw and anchors relative results at cwd.
func ResolvePath(cwd, raw string) (string, error) {
	expanded, err := ExpandPath(raw)
	if err != nil || expanded == "" {
		return expanded, err
	}
	if filepath.IsAbs(expanded) {
		return expanded, nil
	}
	return filepath.Clean(filepath.Join(cwd, expanded)), nil
}
