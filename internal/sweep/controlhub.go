package sweep

import (
	"context"

	"github.com/rileyhilliard/perfsuite/internal/exec"
	"github.com/rileyhilliard/perfsuite/internal/logger"
	"github.com/rileyhilliard/perfsuite/pkg/sshutil"
)

// ControlHub manages the packet-broker service on its host for the duration
// of a sweep. All commands go through the client with the configured
// environment exported.
type ControlHub struct {
	client sshutil.SSHClient
	env    map[string]string
	log    logger.Logger
}

// NewControlHub returns a handle to the broker on the host behind client.
func NewControlHub(client sshutil.SSHClient, env map[string]string, log logger.Logger) *ControlHub {
	if log == nil {
		log = logger.Default()
	}
	return &ControlHub{client: client, env: env, log: log}
}

func (c *ControlHub) run(ctx context.Context, cmd string) error {
	_, err := exec.Execute(ctx, cmd, exec.Options{
		Session: c.client,
		Env:     c.env,
		Logger:  c.log,
	})
	return err
}

// Start brings the broker up and verifies it reports as running.
func (c *ControlHub) Start(ctx context.Context) error {
	c.log.Info("Starting ControlHub on %s", c.client.GetHost())
	if err := c.run(ctx, "sudo controlhub_start"); err != nil {
		return err
	}
	return c.run(ctx, "controlhub_status")
}

// Stop shuts the broker down.
func (c *ControlHub) Stop(ctx context.Context) error {
	c.log.Info("Stopping ControlHub on %s", c.client.GetHost())
	return c.run(ctx, "sudo controlhub_stop")
}
