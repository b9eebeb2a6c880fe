package upload

import (
	"bytes"
	"io/ioutil"
	"mime/multipart"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartBody(t *testing.T, values map[string]string, files map[string]string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, content := range files {
		fw, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}

	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}

	require.NoError(t, w.Close())

	return &buf, w.Boundary()
}

func TestSpooler_Spool(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s := NewSpooler(dir, 1024)

	body, boundary := multipartBody(t,
		map[string]string{"database": "shop", "filename_files": "renamed.sql"},
		map[string]string{"a.sql": "AAAA"},
	)

	form, err := s.Spool(multipart.NewReader(body, boundary))

	require.NoError(t, err)
	assert.Equal(t, "shop", form.Value("database"))
	assert.Equal(t, "renamed.sql", form.Value("filename_files"))
	assert.Equal(t, "", form.Value("missing"))

	require.Len(t, form.Files, 1)
	assert.Equal(t, "files", form.Files[0].FieldName)
	assert.Equal(t, "a.sql", form.Files[0].OriginalName)
	assert.Equal(t, int64(4), form.Files[0].Size)
	assert.Equal(t, dir, filepath.Dir(form.Files[0].TempPath))

	data, err := ioutil.ReadFile(form.Files[0].TempPath)
	require.NoError(t, err)
	assert.Equal(t, "AAAA", string(data))
}

func TestSpooler_Spool_ValuesTooLarge(t *testing.T) {
	dir := t.TempDir()
	s := NewSpooler(dir, 8)

	body, boundary := multipartBody(t,
		map[string]string{"database": strings.Repeat("x", 64)},
		map[string]string{"a.sql": "AAAA"},
	)

	form, err := s.Spool(multipart.NewReader(body, boundary))

	assert.Equal(t, ErrValueTooLarge, err)
	assert.Nil(t, form)

	entries, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSpooler_Spool_BrokenBody(t *testing.T) {
	dir := t.TempDir()
	s := NewSpooler(dir, 1024)

	body, boundary := multipartBody(t, nil, map[string]string{"a.sql": "AAAA"})
	truncated := bytes.NewReader(body.Bytes()[:body.Len()-10])

	_, err := s.Spool(multipart.NewReader(truncated, boundary))

	assert.NotNil(t, err)

	entries, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
