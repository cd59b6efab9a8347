// Package manifest parses Steam appmanifest_<id>.acf install manifests.
package manifest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/andygrunwald/vdf"
)

// Glob is the filename pattern of install manifests inside a library root.
const Glob = "appmanifest_*.acf"

var (
	// ErrMalformedFilename means no numeric app id could be read from the filename.
	ErrMalformedFilename = errors.New("manifest filename has no app id")
	// ErrMissingTitle means neither the VDF tree nor the raw text carried a name.
	ErrMissingTitle = errors.New("manifest has no name field")
)

// ParseError records which manifest failed and why.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string { return e.Path + ": " + e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

// Manifest is the subset of an app manifest steamlaunch cares about.
type Manifest struct {
	AppID      string
	Name       string
	InstallDir string
	StateFlags string
}

var idPattern = regexp.MustCompile(`([0-9]+)\.acf$`)

// AppIDFromFilename extracts the numeric id from appmanifest_<id>.acf.
func AppIDFromFilename(path string) (string, error) {
	m := idPattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return "", &ParseError{Path: path, Err: ErrMalformedFilename}
	}
	return m[1], nil
}

// Parse reads the manifest at path.
//
// When the file carries an id but no name, the returned Manifest has AppID set
// and the error wraps ErrMissingTitle; callers decide what to do with it.
func Parse(path string) (Manifest, error) {
	id, err := AppIDFromFilename(path)
	if err != nil {
		return Manifest{}, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Manifest{AppID: id}, &ParseError{Path: path, Err: fmt.Errorf("cannot read: %w", err)}
	}
	return parseBytes(path, id, b)
}

func parseBytes(path, id string, b []byte) (Manifest, error) {
	m := Manifest{AppID: id}

	tree, vdfErr := vdf.NewParser(bytes.NewReader(b)).Parse()
	if vdfErr == nil {
		if state, ok := lookupMap(tree, "AppState"); ok {
			m.Name = strings.TrimSpace(lookupString(state, "name"))
			m.InstallDir = lookupString(state, "installdir")
			m.StateFlags = lookupString(state, "StateFlags")
		}
	}

	if m.Name == "" {
		m.Name = scanName(b)
	}
	if m.Name == "" {
		return m, &ParseError{Path: path, Err: ErrMissingTitle}
	}
	return m, nil
}

// scanName is the lenient fallback for manifests the VDF parser rejects:
// it takes the quoted value following the first "name" key on a line.
func scanName(b []byte) string {
	const token = `"name"`
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := sc.Text()
		i := strings.Index(strings.ToLower(line), token)
		if i < 0 {
			continue
		}
		v := strings.TrimSpace(line[i+len(token):])
		return strings.TrimSpace(strings.Trim(v, `"`))
	}
	return ""
}

// VDF keys are case-insensitive in practice (Steam writes both "StateFlags"
// and "stateflags" depending on client version).
func lookup(m map[string]interface{}, key string) (interface{}, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func lookupMap(m map[string]interface{}, key string) (map[string]interface{}, bool) {
	v, ok := lookup(m, key)
	if !ok {
		return nil, false
	}
	mm, ok := v.(map[string]interface{})
	return mm, ok
}

func lookupString(m map[string]interface{}, key string) string {
	v, ok := lookup(m, key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
