// Package mock decodes the MOCK_TEST_DATA and MOCK_FILE_DATA documents.
// Invalid documents never fail a run: they are logged and replaced by built-in defaults.
package mock

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/comigor/llm-smoke/internal/config"
	"github.com/comigor/llm-smoke/internal/logger"
	"github.com/comigor/llm-smoke/internal/state"
)

// Built-in records used when no usable mock data is supplied.
var (
	DefaultTestInfo = state.TestInfo{Name: "default_test", Log: "no test log supplied"}
	DefaultFileInfo = state.FileInfo{Name: "default_file.txt", Content: "no file content supplied"}
)

// DataError describes a MOCK_* variable that could not be decoded.
type DataError struct {
	Var string
	Err error
}

func (e *DataError) Error() string { return fmt.Sprintf("mock data %s: %v", e.Var, e.Err) }

func (e *DataError) Unwrap() error { return e.Err }

var errAbsent = errors.New("not set")

// ParseTestInfo decodes a {"name","log"} document. Both keys are required.
func ParseTestInfo(raw string) (state.TestInfo, error) {
	var doc struct {
		Name *string `json:"name"`
		Log  *string `json:"log"`
	}
	if err := decode(raw, &doc); err != nil {
		return state.TestInfo{}, &DataError{Var: config.EnvMockTestData, Err: err}
	}
	if missing := missingKeys(map[string]bool{"name": doc.Name == nil, "log": doc.Log == nil}); missing != nil {
		return state.TestInfo{}, &DataError{Var: config.EnvMockTestData, Err: missing}
	}
	return state.TestInfo{Name: *doc.Name, Log: *doc.Log}, nil
}

// ParseFileInfo decodes a {"name","content"} document. Both keys are required.
func ParseFileInfo(raw string) (state.FileInfo, error) {
	var doc struct {
		Name    *string `json:"name"`
		Content *string `json:"content"`
	}
	if err := decode(raw, &doc); err != nil {
		return state.FileInfo{}, &DataError{Var: config.EnvMockFileData, Err: err}
	}
	if missing := missingKeys(map[string]bool{"name": doc.Name == nil, "content": doc.Content == nil}); missing != nil {
		return state.FileInfo{}, &DataError{Var: config.EnvMockFileData, Err: missing}
	}
	return state.FileInfo{Name: *doc.Name, Content: *doc.Content}, nil
}

// LoadTestInfo returns the configured test record, or DefaultTestInfo when it is absent or invalid.
func LoadTestInfo(cfg config.MockConfig) state.TestInfo {
	info, err := ParseTestInfo(cfg.TestData)
	if err != nil {
		warn(err)
		return DefaultTestInfo
	}
	return info
}

// LoadFileInfo returns the configured file record, or DefaultFileInfo when it is absent or invalid.
func LoadFileInfo(cfg config.MockConfig) state.FileInfo {
	info, err := ParseFileInfo(cfg.FileData)
	if err != nil {
		warn(err)
		return DefaultFileInfo
	}
	return info
}

func decode(raw string, v any) error {
	if strings.TrimSpace(raw) == "" {
		return errAbsent
	}
	return json.Unmarshal([]byte(raw), v)
}

func missingKeys(absent map[string]bool) error {
	var keys []string
	for _, k := range []string{"name", "log", "content"} {
		if absent[k] {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return fmt.Errorf("missing keys: %s", strings.Join(keys, ", "))
}

// warn logs invalid documents; an absent variable is the normal case and stays silent.
func warn(err error) {
	if errors.Is(err, errAbsent) {
		return
	}
	var de *DataError
	if errors.As(err, &de) {
		logger.L.Warn("invalid mock data; using default", "var", de.Var, "error", de.Err)
		return
	}
	logger.L.Warn("invalid mock data; using default", "error", err)
}
