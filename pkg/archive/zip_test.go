package archive

import (
	"archive/zip"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, ioutil.WriteFile(p, []byte(content), 0644))
	}
}

func readArchive(t *testing.T, file string) map[string]string {
	r, err := zip.OpenReader(file)
	require.NoError(t, err)
	defer r.Close()

	result := make(map[string]string)
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}

		rc, err := f.Open()
		require.NoError(t, err)
		data, err := ioutil.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())

		result[f.Name] = string(data)
	}

	return result
}

func TestBuilder_Build_RoundTrip(t *testing.T) {
	source := filepath.Join(t.TempDir(), "shop")
	writeTree(t, source, map[string]string{
		"orders.bson":              "orders",
		"orders.metadata.json":     `{"indexes":[]}`,
		"nested/customers.bson.gz": "customers",
		"nested/deeper/empty.bson": "",
	})

	dest := filepath.Join(t.TempDir(), "downloads", "shop_backup_1.zip")

	err := <-New().Build(context.Background(), source, "shop", dest)

	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"shop/orders.bson":              "orders",
		"shop/orders.metadata.json":     `{"indexes":[]}`,
		"shop/nested/customers.bson.gz": "customers",
		"shop/nested/deeper/empty.bson": "",
	}, readArchive(t, dest))
}

func TestBuilder_Build_SingleResult(t *testing.T) {
	source := t.TempDir()
	writeTree(t, source, map[string]string{"a": "a"})

	result := New().Build(context.Background(), source, "db", filepath.Join(t.TempDir(), "a.zip"))

	assert.Nil(t, <-result)

	_, ok := <-result
	assert.False(t, ok)
}

func TestBuilder_Build_DestinationInsideSource(t *testing.T) {
	source := t.TempDir()
	writeTree(t, source, map[string]string{"a.bson": "a"})

	dest := filepath.Join(source, "self.zip")

	err := <-New().Build(context.Background(), source, "db", dest)

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"db/a.bson": "a"}, readArchive(t, dest))
}

func TestBuilder_Build_MissingSource(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out", "missing.zip")

	err := <-New().Build(context.Background(), filepath.Join(t.TempDir(), "nope"), "db", dest)

	assert.NotNil(t, err)
	assert.NoFileExists(t, dest)
}

func TestBuilder_Build_CanceledRemovesPartialFile(t *testing.T) {
	source := t.TempDir()
	writeTree(t, source, map[string]string{"a.bson": "a", "b.bson": "b"})

	dest := filepath.Join(t.TempDir(), "canceled.zip")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := <-New().Build(ctx, source, "db", dest)

	assert.Equal(t, context.Canceled, err)
	assert.NoFileExists(t, dest)
}
