package observations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"inatphotos/pkg/errors"
	"inatphotos/pkg/logger"
)

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "observations.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		column   string
		expected []string
	}{
		{
			name:     "typical export",
			content:  "id,observed_on,user_login,url\n100,2020-05-01,alice,https://x/100\n200,2020-05-02,bob,https://x/200\n",
			expected: []string{"100", "200"},
		},
		{
			name:     "id not first column",
			content:  "uuid,id\nu1,7\nu2,8\n",
			expected: []string{"7", "8"},
		},
		{
			name:     "byte order mark on header",
			content:  "\ufeffid,user_login\n42,alice\n",
			expected: []string{"42"},
		},
		{
			name:     "quoted fields and padding",
			content:  "description, id \n\"a, b\", 5 \n\"line\nbreak\",6\n",
			expected: []string{"5", "6"},
		},
		{
			name:     "blank ids are skipped",
			content:  "id,x\n1,a\n,b\n3,c\n",
			expected: []string{"1", "3"},
		},
		{
			name:     "short rows are tolerated",
			content:  "x,id\n1,9\n2\n",
			expected: []string{"9"},
		},
		{
			name:     "custom column",
			content:  "observation_id\n11\n12\n",
			column:   "observation_id",
			expected: []string{"11", "12"},
		},
		{
			name:     "header only",
			content:  "id,user_login\n",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := NewLoader(writeExport(t, tt.content), tt.column, logger.NewTestLogger())
			ids, err := loader.Load()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestLoadWarnsOnBlankID(t *testing.T) {
	log := logger.NewTestLogger()
	loader := NewLoader(writeExport(t, "id\n1\n\n,\n"), "", log)

	ids, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids)
	assert.True(t, log.HasMessage("Skipping row without observation id"))
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "observations.csv")
	loader := NewLoader(path, "", logger.NewTestLogger())

	assert.False(t, loader.Exists())

	_, err := loader.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMissingInput)
	assert.Contains(t, err.Error(), path)
}

func TestLoadMissingColumn(t *testing.T) {
	loader := NewLoader(writeExport(t, "uuid,user_login\nu1,alice\n"), "", logger.NewTestLogger())

	_, err := loader.Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, errors.ErrMissingInput)
	assert.Contains(t, err.Error(), `column "id" not found`)
}

func TestLoadEmptyFile(t *testing.T) {
	loader := NewLoader(writeExport(t, ""), "", logger.NewTestLogger())

	_, err := loader.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file is empty")
}

func TestLoadMalformedRow(t *testing.T) {
	loader := NewLoader(writeExport(t, "id,x\n1,\"unterminated\n"), "", logger.NewTestLogger())

	_, err := loader.Load()
	assert.Error(t, err)
}
