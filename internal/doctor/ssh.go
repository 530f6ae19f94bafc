package doctor

import (
	"context"
	"net"
	"os"
	"time"
)

// SSHAgentCheck verifies an SSH agent is reachable. Only ssh:// hosts need
// it, and key files in ~/.ssh still work without one, so problems are
// warnings.
type SSHAgentCheck struct{}

func (c *SSHAgentCheck) Name() string     { return "ssh_agent" }
func (c *SSHAgentCheck) Category() string { return CategorySSH }

func (c *SSHAgentCheck) Run(ctx context.Context) CheckResult {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "SSH agent not running, falling back to key files",
			Suggestion: "Fix: eval $(ssh-agent) && ssh-add",
		}
	}

	d := net.Dialer{Timeout: 2 * time.Second}
	conn, err := d.DialContext(ctx, "unix", socket)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "SSH agent socket not reachable: " + socket,
			Suggestion: "Restart the agent: eval $(ssh-agent) && ssh-add",
		}
	}
	conn.Close()

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: "SSH agent running",
	}
}
