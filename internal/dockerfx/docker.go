package dockerfx

import (
	"context"
	"time"

	docker "github.com/docker/docker/client"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

const (
	ConfigDockerHost    = "docker.host"
	ConfigDockerVersion = "docker.version"
)

type DockerConnectionConfig struct {
	Host    string
	Version string
}

func DockerConnectionConfigProvider(v *viper.Viper) (*DockerConnectionConfig, error) {
	return &DockerConnectionConfig{
		Host:    v.GetString(ConfigDockerHost),
		Version: v.GetString(ConfigDockerVersion),
	}, nil
}

// Options starts from the DOCKER_* environment; explicit config wins over it.
func Options(config *DockerConnectionConfig) []docker.Opt {
	opts := []docker.Opt{docker.FromEnv}

	if config.Host != "" {
		opts = append(opts, docker.WithHost(config.Host))
	}

	if config.Version != "" {
		opts = append(opts, docker.WithVersion(config.Version))
	} else {
		opts = append(opts, docker.WithAPIVersionNegotiation())
	}

	return opts
}

func DockerClient(config *DockerConnectionConfig, logger *logrus.Logger) (*docker.Client, error) {
	logger.WithField("host", config.Host).Debug("Connecting to docker via")

	client, err := docker.NewClientWithOpts(Options(config)...)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to create docker client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// The daemon may come up later than we do, exec calls will report it then
	_, err = client.Ping(ctx)
	if err != nil {
		logger.WithError(err).Warn("Unable to ping docker")
	}

	return client, nil
}

func CloseDockerClient(lc fx.Lifecycle, client *docker.Client) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
}
