package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// GeneratedFile is one artifact of a run.
type GeneratedFile struct {
	// Filename is relative to the output directory.
	Filename string
	Content  []byte
	// Functions lists the C functions bound by the file.
	Functions []string
}

// WriteFiles writes all generated files below the output directory.
func WriteFiles(files []GeneratedFile, outputDir string) error {
	for _, file := range files {
		if err := WriteFile(file, outputDir); err != nil {
			return err
		}
	}

	return nil
}

// WriteFile writes one generated file below the output directory, creating
// its parent directories. The content is written to a temporary file next
// to the destination and renamed into place.
func WriteFile(file GeneratedFile, outputDir string) error {
	outputPath := filepath.Join(outputDir, file.Filename)
	dir := filepath.Dir(outputPath)

	err := os.MkdirAll(dir, dirPerm)
	if err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(outputPath)+".*")
	if err != nil {
		return fmt.Errorf("writing file %s: %w", file.Filename, err)
	}

	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(file.Content); err != nil {
		tmp.Close()
		return fmt.Errorf("writing file %s: %w", file.Filename, err)
	}

	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return fmt.Errorf("writing file %s: %w", file.Filename, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing file %s: %w", file.Filename, err)
	}

	if err := os.Rename(tmpName, outputPath); err != nil {
		return fmt.Errorf("writing file %s: %w", file.Filename, err)
	}

	return nil
}

// writeDebugUnformatted writes unformatted code to a sidecar file next to the
// intended output. It is best-effort.
func writeDebugUnformatted(outDir, filename string, content []byte) error {
	if outDir == "" || filename == "" {
		return nil
	}

	debugName := strings.TrimSuffix(filename, ".go") + ".unformatted.go"

	return WriteFile(GeneratedFile{Filename: debugName, Content: content}, outDir)
}
