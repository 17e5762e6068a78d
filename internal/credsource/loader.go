// Package credsource loads bearer credentials from plain-text files,
// grounded on the Python original's auth_manager.py token-file loading and
// the teacher's directory-scanning conventions in internal/fetcher.
package credsource

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/archenemy/domainhawk/internal/types"
)

var credentialPattern = regexp.MustCompile(`^(ghp_[A-Za-z0-9]{36,}|github_pat_[A-Za-z0-9_]{22,})$`)

// LoadInline wraps a single credential string passed directly on the
// command line.
func LoadInline(secret string) ([]*types.Credential, error) {
	secret = strings.TrimSpace(secret)
	if !credentialPattern.MatchString(secret) {
		return nil, fmt.Errorf("inline credential does not match expected token format")
	}
	return []*types.Credential{types.NewCredential(secret)}, nil
}

// LoadDirectory reads every file in dir, one credential per line. Lines
// starting with '#' are comments; lines that don't match the accepted
// token regexes are logged and skipped. The directory is created on demand
// if absent.
func LoadDirectory(dir string, log *slog.Logger) ([]*types.Credential, error) {
	if log == nil {
		log = slog.Default()
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			return nil, fmt.Errorf("creating credential directory %s: %w", dir, mkErr)
		}
		log.Warn("credential directory did not exist; created it empty", "dir", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading credential directory %s: %w", dir, err)
	}

	var creds []*types.Credential
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		fileCreds, err := loadFile(path, log)
		if err != nil {
			log.Warn("skipping unreadable credential file", "path", path, "err", err)
			continue
		}
		creds = append(creds, fileCreds...)
	}

	if len(creds) == 0 {
		return nil, fmt.Errorf("no valid credentials found in %s", dir)
	}
	return creds, nil
}

func loadFile(path string, log *slog.Logger) ([]*types.Credential, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var creds []*types.Credential
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !credentialPattern.MatchString(line) {
			log.Warn("skipping malformed credential line", "file", path, "line", lineNo)
			continue
		}
		creds = append(creds, types.NewCredential(line))
	}
	return creds, scanner.Err()
}
