package codegen

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// HarnessFile is the name generated harnesses are written under. Package
// detection skips it so regeneration never reads its own output.
const HarnessFile = "tursu_test.go"

// DetectPackageName returns the package name generated files in dir should
// carry. The package clause of an existing Go file decides; without Go
// files the name derives from the module path at the module root, or from
// the directory name.
func DetectPackageName(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("cannot read directory %s: %w", dir, err)
	}

	fset := token.NewFileSet()
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || name == HarnessFile {
			continue
		}

		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.PackageClauseOnly)
		if err != nil {
			continue
		}
		if file.Name != nil && file.Name.Name != "" {
			return file.Name.Name, nil
		}
	}

	return packageNameFromDir(dir)
}

// packageNameFromDir derives a package name from the directory path. At a
// module root the last segment of the module path wins; otherwise the
// directory name is sanitized into a valid identifier.
func packageNameFromDir(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	goModPath := filepath.Join(absDir, "go.mod")
	if data, err := os.ReadFile(goModPath); err == nil {
		mod, err := modfile.Parse(goModPath, data, nil)
		if err == nil && mod.Module != nil {
			if name := sanitizePackageName(filepath.Base(mod.Module.Mod.Path)); name != "" {
				return name, nil
			}
		}
	}

	if name := sanitizePackageName(filepath.Base(absDir)); name != "" {
		return name, nil
	}

	return "", fmt.Errorf("cannot derive package name from directory %s", dir)
}

// sanitizePackageName lowercases a raw directory or module path segment and
// strips everything a Go package name cannot carry. Hyphens and dots become
// underscores; a leading digit gets an underscore prefix.
func sanitizePackageName(raw string) string {
	if raw == "" || raw == "." || raw == "/" {
		return ""
	}

	var sb strings.Builder
	for i, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			sb.WriteRune(r + ('a' - 'A'))
		case r == '-' || r == '.':
			if i > 0 {
				sb.WriteRune('_')
			}
		}
	}

	name := sb.String()
	if name == "" {
		return ""
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}
