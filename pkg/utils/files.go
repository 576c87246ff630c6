package utils

import (
	"path/filepath"
	"strings"
)

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// OutputPath derives the path of a generated file from its source path:
// the extension is replaced by ext and, when outDir is not empty, the file
// is placed in outDir instead of next to the source.
func OutputPath(inPath, outDir, ext string) (string, error) {
	fullPath, parentDir, err := GetPathInfo(inPath)
	if err != nil {
		return "", err
	}
	base := strings.TrimSuffix(filepath.Base(fullPath), filepath.Ext(fullPath)) + ext
	if outDir == "" {
		return filepath.Join(parentDir, base), nil
	}
	return filepath.Join(outDir, base), nil
}
