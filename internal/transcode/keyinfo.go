package transcode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"hlspack/internal/fileutil"
)

// WriteKeyInfo writes the two-line ffmpeg key-info file: the URI players
// fetch the key from, then the local key file path.
func WriteKeyInfo(path, keyURI, keyFile string) error {
	keyURI = strings.TrimSpace(keyURI)
	keyFile = strings.TrimSpace(keyFile)
	if keyURI == "" || keyFile == "" {
		return errors.New("key info: uri and key file are required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("key info: create directory: %w", err)
	}
	body := keyURI + "\n" + keyFile
	if err := fileutil.WriteFileAtomic(path, []byte(body), 0o600); err != nil {
		return fmt.Errorf("key info: %w", err)
	}
	return nil
}
