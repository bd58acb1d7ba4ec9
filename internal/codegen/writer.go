package codegen

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// WriteSources writes every source to outputDir as <name>.go. Sources
// that failed formatting are written as <name>.unformatted.go.
func WriteSources(sources []Source, outputDir string) error {
	err := os.MkdirAll(outputDir, dirPerm)
	if err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	for _, src := range sources {
		filename := src.Name + ".go"
		if !src.Formatted {
			filename = src.Name + ".unformatted.go"
		}

		err := os.WriteFile(filepath.Join(outputDir, filename), src.Code, filePerm)
		if err != nil {
			return fmt.Errorf("writing file %s: %w", filename, err)
		}
	}

	return nil
}

// DirHook writes each source to dir as it is emitted. Write failures are
// logged and never fail the build.
func DirHook(dir string, logger *slog.Logger) Hook {
	if logger == nil {
		logger = slog.Default()
	}

	return func(s Source) {
		if err := WriteSources([]Source{s}, dir); err != nil {
			logger.Warn("cannot write generated source", "name", s.Name, "error", err)
		}
	}
}
