package command

import (
	"bytes"
	"context"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/backup-server/pkg/appcontext"
)

type dockerClient interface {
	ContainerExecCreate(
		ctx context.Context,
		containerID string,
		options container.ExecOptions,
	) (container.ExecCreateResponse, error)

	ContainerExecAttach(
		ctx context.Context,
		execID string,
		options container.ExecAttachOptions,
	) (types.HijackedResponse, error)

	ContainerExecInspect(
		ctx context.Context,
		execID string,
	) (container.ExecInspect, error)
}

// Container runs commands inside an already running container, the same
// way `docker exec` does.
type Container struct {
	logger logrus.FieldLogger

	docker    dockerClient
	container string
}

func NewContainer(logger logrus.FieldLogger, docker dockerClient, containerName string) *Container {
	return &Container{
		logger:    logger,
		docker:    docker,
		container: containerName,
	}
}

func (c *Container) Run(ctx context.Context, cmd Command) (string, error) {
	logger := appcontext.LoggerFromContext(c.logger, ctx).WithFields(logrus.Fields{
		"container": c.container,
		"command":   cmd.String(),
	})

	fail := func(exitCode int, stderr string, err error) (string, error) {
		logger.WithError(err).WithField("exit_code", exitCode).Debug("Command failed")

		return "", &ExecutionError{Command: cmd, ExitCode: exitCode, Stderr: stderr, Err: err}
	}

	logger.Debug("Running command in container")

	exec, err := c.docker.ContainerExecCreate(ctx, c.container, container.ExecOptions{
		Cmd:          append([]string{cmd.Name}, cmd.Args...),
		WorkingDir:   cmd.Dir,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return fail(-1, "", errors.Wrap(err, "unable to create exec instance"))
	}

	resp, err := c.docker.ContainerExecAttach(ctx, exec.ID, container.ExecAttachOptions{})
	if err != nil {
		return fail(-1, "", errors.Wrap(err, "unable to attach to exec instance"))
	}
	defer resp.Close()

	var stdout, stderr bytes.Buffer

	_, err = stdcopy.StdCopy(&stdout, &stderr, resp.Reader)
	if err != nil {
		return fail(-1, stderr.String(), errors.Wrap(err, "unable to read exec output"))
	}

	inspect, err := c.docker.ContainerExecInspect(ctx, exec.ID)
	if err != nil {
		return fail(-1, stderr.String(), errors.Wrap(err, "unable to inspect exec instance"))
	}

	if inspect.ExitCode != 0 {
		return fail(inspect.ExitCode, stderr.String(), errors.Errorf("exit status %d", inspect.ExitCode))
	}

	return stdout.String(), nil
}
