package configfx

import (
	"os"

	"github.com/spf13/pflag"
)

func PFlags() (*pflag.FlagSet, error) {
	fs := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)

	// Config file flag
	fs.StringP("config", "c", "", "Config file")

	// Env file flag
	fs.String("env-file", DefaultEnvFile, "File with environment variables, missing file is ignored")

	return fs, fs.Parse(os.Args[1:])
}
