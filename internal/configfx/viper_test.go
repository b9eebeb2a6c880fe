package configfx

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flags(t *testing.T, args ...string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("backup-server", pflag.ContinueOnError)
	fs.StringP("config", "c", "", "Config file")
	fs.String("env-file", "", "Env file")

	require.NoError(t, fs.Parse(args))

	return fs
}

func TestViperProvider_Defaults(t *testing.T) {
	logger, _ := test.NewNullLogger()

	// No config file in the working directory of the test
	v, err := ViperProvider(logger, flags(t))

	require.NoError(t, err)
	assert.Equal(t, ":1532", v.GetString("server.address"))
	assert.Equal(t, "mongodb", v.GetString("mongo.container"))
	assert.Equal(t, "mongosh", v.GetString("mongo.shell"))
	assert.Equal(t, "./mongodb-backup.sh", v.GetString("script.path"))
	assert.Equal(t, 5*time.Second, v.GetDuration("download.delete_delay"))
	assert.Equal(t, "@every 1s", v.GetString("janitor.schedule"))
	assert.Equal(t, int64(1<<20), v.GetInt64("upload.max_form_value"))
	assert.Equal(t, time.Duration(0), v.GetDuration("archive.max_age"))
}

func TestViperProvider_ConfigFile(t *testing.T) {
	logger, _ := test.NewNullLogger()

	file := filepath.Join(t.TempDir(), "backup-server.yaml")
	require.NoError(t, ioutil.WriteFile(file, []byte(`
mongo:
  container: mongo-primary
download:
  delete_delay: 30s
`), 0644))

	v, err := ViperProvider(logger, flags(t, "--config", file))

	require.NoError(t, err)
	assert.Equal(t, "mongo-primary", v.GetString("mongo.container"))
	assert.Equal(t, 30*time.Second, v.GetDuration("download.delete_delay"))
	assert.Equal(t, "mongosh", v.GetString("mongo.shell"))
}

func TestViperProvider_MissingConfigFile(t *testing.T) {
	logger, _ := test.NewNullLogger()

	_, err := ViperProvider(logger, flags(t, "-c", filepath.Join(t.TempDir(), "missing.yaml")))

	assert.NotNil(t, err)
}

func TestViperProvider_Environment(t *testing.T) {
	logger, _ := test.NewNullLogger()

	t.Setenv("BACKUP_SERVER_SCRIPT_PATH", "/opt/scripts/mongodb-backup.sh")
	t.Setenv("PORT", "8080")

	v, err := ViperProvider(logger, flags(t))

	require.NoError(t, err)
	assert.Equal(t, "/opt/scripts/mongodb-backup.sh", v.GetString("script.path"))
	assert.Equal(t, "8080", v.GetString("port"))
}

func TestViperProvider_EnvFile(t *testing.T) {
	logger, _ := test.NewNullLogger()

	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, ioutil.WriteFile(file, []byte("BACKUP_SERVER_STORAGE_UPLOADS_DIR=/srv/uploads\n"), 0644))
	t.Cleanup(func() { _ = os.Unsetenv("BACKUP_SERVER_STORAGE_UPLOADS_DIR") })

	v, err := ViperProvider(logger, flags(t, "--env-file", file))

	require.NoError(t, err)
	assert.Equal(t, "/srv/uploads", v.GetString("storage.uploads_dir"))
}

func TestViperProvider_MissingEnvFile(t *testing.T) {
	logger, _ := test.NewNullLogger()

	_, err := ViperProvider(logger, flags(t, "--env-file", filepath.Join(t.TempDir(), ".env")))

	assert.Nil(t, err)
}
