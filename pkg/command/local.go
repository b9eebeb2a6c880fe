package command

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/backup-server/pkg/appcontext"
)

// Local runs commands as child processes of the server.
type Local struct {
	logger logrus.FieldLogger
}

func NewLocal(logger logrus.FieldLogger) *Local {
	return &Local{
		logger: logger,
	}
}

func (l *Local) Run(ctx context.Context, c Command) (string, error) {
	logger := appcontext.LoggerFromContext(l.logger, ctx).WithField("command", c.String())

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("Running command")

	err := cmd.Run()
	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}

		logger.WithError(err).WithField("exit_code", exitCode).Debug("Command failed")

		return stdout.String(), &ExecutionError{
			Command:  c,
			ExitCode: exitCode,
			Stderr:   stderr.String(),
			Err:      err,
		}
	}

	return stdout.String(), nil
}
