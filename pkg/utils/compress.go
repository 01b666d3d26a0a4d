// pkg/utils/compress.go

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alexmullins/zip"
)

// CompressWithPassword compresses a file into a password-protected zip
// next to the source and returns the zip path.
func CompressWithPassword(sourcePath, password string) (string, error) {
	if _, err := os.Stat(sourcePath); os.IsNotExist(err) {
		return "", fmt.Errorf("source file not found: %s", sourcePath)
	}

	zipPath := sourcePath + ".zip"
	zipFile, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("failed to create zip file: %w", err)
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)
	defer zipWriter.Close()

	sourceFile, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceFile.Close()

	entry, err := zipWriter.Encrypt(filepath.Base(sourcePath), password)
	if err != nil {
		return "", fmt.Errorf("failed to create encrypted entry: %w", err)
	}

	if _, err := io.Copy(entry, sourceFile); err != nil {
		return "", fmt.Errorf("failed to write zip entry: %w", err)
	}

	return zipPath, nil
}
