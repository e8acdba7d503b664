package validation

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "groupagg/internal/errors"
	"groupagg/internal/shared/testutil"
)

func TestFileValidator_ValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("g,x\nA,1\n"), 0644))
		return path
	}

	tests := []struct {
		name     string
		path     string
		wantType apperrors.ErrorType
	}{
		{"csv", write("data.csv"), ""},
		{"tsv upper case", write("DATA.TSV"), ""},
		{"xlsx", write("book.xlsx"), ""},
		{"parquet", write("table.parquet"), ""},
		{"unsupported extension", write("report.pdf"), apperrors.ErrTypeValidation},
		{"excel lock file", write("~$book.xlsx"), apperrors.ErrTypeValidation},
		{"missing", filepath.Join(dir, "none.csv"), apperrors.ErrTypeNotFound},
		{"directory", func() string {
			p := filepath.Join(dir, "folder.csv")
			require.NoError(t, os.Mkdir(p, 0755))
			return p
		}(), apperrors.ErrTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			err := NewFileValidator(logger).ValidateInputFile(tt.path)
			if tt.wantType == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
		})
	}
}

func TestFileValidator_ValidateOutputFile(t *testing.T) {
	v := NewFileValidator(nil)
	dir := t.TempDir()

	nested := filepath.Join(dir, "a", "b", "out.csv")
	require.NoError(t, v.ValidateOutputFile(nested, ""))
	info, err := os.Stat(filepath.Dir(nested))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	entries, err := os.ReadDir(filepath.Dir(nested))
	require.NoError(t, err)
	assert.Empty(t, entries, "write probe must be removed")

	input := filepath.Join(dir, "in.csv")
	err = v.ValidateOutputFile(input, input)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

	err = v.ValidateOutputFile(dir, "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestFileValidator_LogsMissingFile(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	_ = NewFileValidator(logger).ValidateFile(filepath.Join(t.TempDir(), "gone.csv"))

	testutil.AssertLogContains(t, handler, slog.LevelError, "File does not exist")
	assert.True(t, handler.ContainsAttr("component", "file_validator"))
}
