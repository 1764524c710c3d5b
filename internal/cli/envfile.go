package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// loadDotEnvFiles applies .env then .env.local from cwd. Later files win over
// earlier ones, but nothing already present in environ is overridden.
func loadDotEnvFiles(cwd string, environ []string, setenv func(string, string) error) error {
	if strings.TrimSpace(cwd) == "" {
		return nil
	}
	if setenv == nil {
		return fmt.Errorf("setenv is required")
	}

	protected := map[string]struct{}{}
	for _, pair := range environ {
		key, _, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		protected[key] = struct{}{}
	}

	files := []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(cwd, ".env.local"),
	}
	for _, file := range files {
		if err := applyDotEnvFile(file, protected, setenv); err != nil {
			return err
		}
	}
	return nil
}

func applyDotEnvFile(path string, protected map[string]struct{}, setenv func(string, string) error) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for key, value := range values {
		if _, exists := protected[key]; exists {
			continue
		}
		if err := setenv(key, value); err != nil {
			return fmt.Errorf("set %s from %s: %w", key, path, err)
		}
	}
	return nil
}
