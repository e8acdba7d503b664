package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"groupagg/internal/aggregate"
	apperrors "groupagg/internal/errors"
	"groupagg/internal/shared/testutil"
	"groupagg/internal/table"
)

func writeGapminder(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	content := testutil.GapminderCSV()
	if strings.HasSuffix(name, ".tsv") {
		content = strings.ReplaceAll(content, ",", "\t")
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("GROUPAGG_CONFIG", "")
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRun_MaxByContinent(t *testing.T) {
	input := writeGapminder(t, "gapminder.tsv")

	out, _, err := runCLI(t, "-input", input, "-group", "continent", "-compute", "max:lifeExp")
	require.NoError(t, err)
	assert.Equal(t, "continent,maxLifeExp\nAmericas,80.653\nAsia,82.603\nAfrica,54.11\n", out)
}

func TestRun_OrderingAndWhere(t *testing.T) {
	input := writeGapminder(t, "gapminder.csv")

	out, _, err := runCLI(t, "-input", input,
		"-group", "continent", "-group", "country",
		"-compute", "n",
		"-where", "year=2007",
		"-ordering", "sorted",
		"-workers", "3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{
		"continent,country,n",
		"Africa,Kenya,1",
		"Americas,Canada,1",
		"Americas,Mexico,1",
		"Asia,China,1",
		"Asia,Japan,1",
	}, lines)
}

func TestRun_LinearFitJSON(t *testing.T) {
	input := writeGapminder(t, "gapminder.csv")

	out, _, err := runCLI(t, "-input", input,
		"-group", "country", "-compute", "linfit:lifeExp:year:1952",
		"-format", "json", "-precision", "4")
	require.NoError(t, err)

	var doc struct {
		Rows []map[string]interface{} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Rows, 5)
	assert.Equal(t, "Canada", doc.Rows[0]["country"])
	assert.Equal(t, 68.9193, doc.Rows[0]["intercept"])
	assert.Equal(t, 0.2141, doc.Rows[0]["slope"])
}

func TestRun_WritesXLSX(t *testing.T) {
	input := writeGapminder(t, "gapminder.csv")
	out := filepath.Join(t.TempDir(), "nested", "max.xlsx")

	stdout, _, err := runCLI(t, "-input", input, "-group", "continent", "-compute", "max:lifeExp", "-out", out)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"continent", "maxLifeExp"}, rows[0])
	assert.Equal(t, "Americas", rows[1][0])
}

func TestRun_InfersTSVFromExtension(t *testing.T) {
	input := writeGapminder(t, "gapminder.csv")
	out := filepath.Join(t.TempDir(), "max.tsv")

	_, _, err := runCLI(t, "-input", input, "-group", "continent", "-compute", "max:lifeExp", "-out", out)
	require.NoError(t, err)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "continent\tmaxLifeExp\nAmericas\t80.653\nAsia\t82.603\nAfrica\t54.11\n", string(content))
}

func TestRun_Errors(t *testing.T) {
	input := writeGapminder(t, "gapminder.csv")

	tests := []struct {
		name     string
		args     []string
		wantCode int
		check    func(t *testing.T, err error)
	}{
		{
			name:     "missing input",
			args:     []string{"-group", "continent", "-compute", "n"},
			wantCode: 2,
		},
		{
			name:     "missing compute",
			args:     []string{"-input", input, "-group", "continent"},
			wantCode: 2,
		},
		{
			name:     "unknown format",
			args:     []string{"-input", input, "-group", "continent", "-compute", "n", "-format", "pdf"},
			wantCode: 2,
		},
		{
			name:     "unknown grouping column",
			args:     []string{"-input", input, "-group", "region", "-compute", "n"},
			wantCode: 1,
			check: func(t *testing.T, err error) {
				assert.True(t, aggregate.IsSchemaError(err))
			},
		},
		{
			name:     "computation fails",
			args:     []string{"-input", input, "-group", "year", "-compute", "linfit:lifeExp:year", "-workers", "1"},
			wantCode: 1,
			check: func(t *testing.T, err error) {
				require.True(t, aggregate.IsComputeError(err))
				key, ok := aggregate.FailedGroup(err)
				require.True(t, ok)
				assert.Equal(t, "year=1952", key.String())
				assert.Equal(t, 1, strings.Count(describe(err), "year=1952"), describe(err))
			},
		},
		{
			name:     "missing file",
			args:     []string{"-input", filepath.Join(t.TempDir(), "none.csv"), "-group", "g", "-compute", "n"},
			wantCode: 1,
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
			},
		},
		{
			name:     "unsupported input extension",
			args:     []string{"-input", filepath.Join(t.TempDir(), "report.pdf"), "-group", "g", "-compute", "n"},
			wantCode: 1,
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
			},
		},
		{
			name:     "output overwrites input",
			args:     []string{"-input", input, "-group", "continent", "-compute", "n", "-out", input},
			wantCode: 1,
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, exitCode(err))
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	key := aggregate.GroupKey{Columns: []string{"g"}, Values: []table.Value{table.Text("B")}}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "group already in message",
			err:  apperrors.NewComputeError("computation failed for group g=B", errors.New("boom")).WithContext("group_key", key),
			want: "[COMPUTE] computation failed for group g=B: boom",
		},
		{
			name: "group appended",
			err:  apperrors.NewSchemaError("computed records are not rectangular", nil).WithContext("group_key", key),
			want: "[SCHEMA] computed records are not rectangular (group g=B)",
		},
		{
			name: "plain error",
			err:  errors.New("disk full"),
			want: "disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describe(tt.err))
		})
	}
}

func TestListFlag(t *testing.T) {
	var l listFlag
	require.NoError(t, l.Set("continent, country"))
	require.NoError(t, l.Set("year"))
	assert.Equal(t, []string{"continent", "country", "year"}, []string(l))
	assert.Equal(t, "continent,country,year", l.String())
}
