package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// apiKeyFile is the API key filename inside the application directory.
const apiKeyFile = "api_key"

// APIKey resolves the API key to use. Priority: the explicit flag value,
// then the YOUTUBE_API_KEY environment variable, then the stored key file.
// An empty string means no key is available.
func APIKey(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		return v, nil
	}
	return LoadAPIKey()
}

// LoadAPIKey reads the stored API key. A missing file returns "" with no
// error; key storage is optional.
func LoadAPIKey() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	data, err := os.ReadFile(filepath.Join(home, dirName, apiKeyFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read api key file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SaveAPIKey persists the key to the application directory with mode 0600.
func SaveAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("api key must not be empty")
	}

	dir, err := Dir()
	if err != nil {
		return err
	}

	w, err := newAtomicWriter(filepath.Join(dir, apiKeyFile), 0o600)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(key + "\n")); err != nil {
		w.abort()
		return fmt.Errorf("write api key: %w", err)
	}
	if err := w.commit(); err != nil {
		return fmt.Errorf("save api key: %w", err)
	}
	return nil
}

// RemoveAPIKey deletes the stored key file. It reports whether a key file
// existed.
func RemoveAPIKey() (bool, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return false, fmt.Errorf("resolve home directory: %w", err)
	}
	err = os.Remove(filepath.Join(home, dirName, apiKeyFile))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("remove api key file: %w", err)
	}
	return true, nil
}
