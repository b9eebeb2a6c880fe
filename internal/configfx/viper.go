package configfx

import (
	"os"
	"path"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix              = "backup_server"
	DefaultConfigDirectory = "backup-server"
	DefaultConfigFile      = "backup-server"
	DefaultEnvFile         = ".env"
)

var (
	defaultConfigPaths = []string{
		".",
		"./config",
		path.Join("/etc", DefaultConfigDirectory),
	}

	defaults = map[string]interface{}{
		"server.address":        ":1532",
		"server.timeout.read":   time.Duration(0),
		"server.timeout.write":  time.Duration(0),
		"server.log.requests":   true,
		"server.static_dir":     "",
		"log.level":             "info",
		"log.format":            "json",
		"docker.host":           "",
		"docker.version":        "",
		"mongo.container":       "mongodb",
		"mongo.shell":           "mongosh",
		"script.path":           "./mongodb-backup.sh",
		"script.dir":            "",
		"script.timeout":        time.Duration(0),
		"storage.data_dir":      "./data",
		"storage.downloads_dir": "./downloads",
		"storage.uploads_dir":   "./uploads",
		"upload.max_form_value": int64(1 << 20),
		"download.delete_delay": 5 * time.Second,
		"archive.max_age":       time.Duration(0),
		"janitor.schedule":      "@every 1s",
		"db.dsn":                "./db/backup-server.db",
	}
)

func ViperProvider(logger *logrus.Logger, flagSet *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	err := v.BindPFlags(flagSet)
	if err != nil {
		return nil, err
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Variables from the env file never override the real environment
	if envFile := v.GetString("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Conventional for containers and PaaS, takes the port of server.address over
	err = v.BindEnv("port", "PORT")
	if err != nil {
		return nil, err
	}

	// Read config from config file
	if configFile := v.GetString("config"); configFile != "" {
		// If user do specify config file, then this file MUST exist and be valid
		// so missing file is a fatal error

		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		// If user does not specify config file, then we'll still try to find appropriate config,
		// but missing file is not an error

		v.SetConfigName(DefaultConfigFile)

		for _, dir := range defaultConfigPaths {
			v.AddConfigPath(dir)
		}

		if err := v.ReadInConfig(); err != nil {
			logger.WithError(err).Warn("Couldn't read config file")
		}
	}

	return v, nil
}
