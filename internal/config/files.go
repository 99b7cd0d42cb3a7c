package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// Save writes the persisted part of cfg to dir/neura.toml and returns the
// path written.
func Save(dir string, cfg Config) (string, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	path := filepath.Join(orDot(dir), FileName)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", FileName, err)
	}
	return path, nil
}

// DotenvPath returns the .env path for a project root.
func DotenvPath(root string) string {
	return filepath.Join(orDot(root), DotenvName)
}

// ReadDotenv loads KEY=VALUE pairs from path. Keys are returned upper-cased.
// A missing file yields an empty map.
func ReadDotenv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", DotenvName, err)
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", DotenvName, err)
	}
	out := make(map[string]string, len(v.AllKeys()))
	for _, key := range v.AllKeys() {
		out[strings.ToUpper(key)] = v.GetString(key)
	}
	return out, nil
}

// DotenvHasKey reports whether path defines key.
func DotenvHasKey(path string, key string) (bool, error) {
	values, err := ReadDotenv(path)
	if err != nil {
		return false, err
	}
	_, ok := values[strings.ToUpper(key)]
	return ok, nil
}

// AppendEnv appends KEY=VALUE to path, creating the file if needed. The
// file is kept private to the user since it holds credentials.
func AppendEnv(path string, key string, value string) error {
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("value for %s must be a single line", key)
	}
	needsNewline, err := lacksTrailingNewline(path)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", DotenvName, err)
	}
	w := bufio.NewWriter(f)
	if needsNewline {
		_ = w.WriteByte('\n')
	}
	fmt.Fprintf(w, "%s=%s\n", key, value)
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", DotenvName, err)
	}
	return f.Close()
}

func lacksTrailingNewline(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", DotenvName, err)
	}
	return len(data) > 0 && data[len(data)-1] != '\n', nil
}

func resolveAPIKey(root string) (string, error) {
	if key := strings.TrimSpace(os.Getenv(APIKeyVar)); key != "" {
		return key, nil
	}
	values, err := ReadDotenv(DotenvPath(root))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(values[APIKeyVar]), nil
}
