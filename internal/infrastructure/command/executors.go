package command

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/doeshing/shai-agent/internal/domain"
)

func (e *Engine) createFile(path, content string) (domain.ExecutionResult, error) {
	full := e.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), domain.DirectoryPermissions); err != nil {
		return domain.ExecutionResult{}, domain.NewCommandError(domain.ErrFilesystem, err,
			"Failed to create file: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), domain.FilePermissions); err != nil {
		return domain.ExecutionResult{}, domain.NewCommandError(domain.ErrFilesystem, err,
			"Failed to create file: %v", err)
	}
	return domain.ExecutionResult{Stdout: "File created successfully: " + path}, nil
}

func (e *Engine) createDirectory(path string) (domain.ExecutionResult, error) {
	full := e.resolve(path)
	info, err := os.Stat(full)
	switch {
	case err == nil && info.IsDir():
		return domain.ExecutionResult{Stdout: "Directory already exists: " + path}, nil
	case err == nil:
		return domain.ExecutionResult{}, domain.NewCommandError(domain.ErrFilesystem, nil,
			"Failed to create directory: %s exists and is not a directory", path)
	case !errors.Is(err, fs.ErrNotExist):
		return domain.ExecutionResult{}, domain.NewCommandError(domain.ErrFilesystem, err,
			"Failed to create directory: %v", err)
	}

	if err := os.MkdirAll(full, domain.DirectoryPermissions); err != nil {
		return domain.ExecutionResult{}, domain.NewCommandError(domain.ErrFilesystem, err,
			"Failed to create directory: %v", err)
	}
	return domain.ExecutionResult{Stdout: "Directory created: " + path}, nil
}

func (e *Engine) list() (domain.ExecutionResult, error) {
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		return domain.ExecutionResult{}, domain.NewCommandError(domain.ErrFilesystem, err,
			"Failed to list directory: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return domain.ExecutionResult{Stdout: strings.Join(names, "\n")}, nil
}

// changeDirectory checks the target before touching engine state, so a
// failed cd leaves the working directory unchanged.
func (e *Engine) changeDirectory(target string) (domain.ExecutionResult, error) {
	full := e.resolve(target)
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ExecutionResult{}, domain.NewCommandError(domain.ErrDirectoryNotFound, err,
				"Directory not found: %s", target)
		}
		return domain.ExecutionResult{}, domain.NewCommandError(domain.ErrFilesystem, err,
			"Failed to change directory: %v", err)
	}
	if !info.IsDir() {
		return domain.ExecutionResult{}, domain.NewCommandError(domain.ErrFilesystem, nil,
			"Failed to change directory: %s is not a directory", target)
	}
	e.dir = full
	return domain.ExecutionResult{Stdout: "Changed directory to: " + e.dir}, nil
}
