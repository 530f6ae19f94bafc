package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/rileyhilliard/dtui/internal/docker"
	"github.com/rileyhilliard/dtui/internal/errors"
	"github.com/rileyhilliard/dtui/internal/host"
)

// DefaultEngineTimeout bounds one engine check.
const DefaultEngineTimeout = 10 * time.Second

// EngineClient is the part of the Docker client an EngineCheck uses.
type EngineClient interface {
	Ping(ctx context.Context) error
	ListContainers(ctx context.Context) ([]docker.ContainerInfo, error)
	Close() error
}

// Connector builds an EngineClient for a host.
type Connector func(ctx context.Context, spec host.Spec) (EngineClient, error)

// EngineCheck connects to one host's engine, pings it and counts its
// running containers.
type EngineCheck struct {
	Spec    host.Spec
	Connect Connector
	Timeout time.Duration
}

func (c *EngineCheck) Name() string     { return "engine_" + c.Spec.ID() }
func (c *EngineCheck) Category() string { return CategoryHosts }

func (c *EngineCheck) Run(ctx context.Context) CheckResult {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultEngineTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fail := func(err error) CheckResult {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s: %s", c.Spec.ID(), errors.Summary(err)),
			Suggestion: errors.SuggestionOf(err),
		}
	}

	client, err := c.Connect(ctx, c.Spec)
	if err != nil {
		return fail(err)
	}
	defer client.Close()

	if err := client.Ping(ctx); err != nil {
		return fail(err)
	}

	containers, err := client.ListContainers(ctx)
	if err != nil {
		return fail(err)
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("%s: Docker answering, %d running container%s", c.Spec.ID(), len(containers), pluralize(len(containers))),
	}
}

// NewChecks returns every check for the given config and hosts: CONFIG
// first, the SSH agent when any host uses ssh://, then one engine check per
// host.
func NewChecks(configPath string, specs []host.Spec, connect Connector, timeout time.Duration) []Check {
	checks := NewConfigChecks(configPath)

	for _, s := range specs {
		if s.Protocol == host.ProtocolSSH {
			checks = append(checks, &SSHAgentCheck{})
			break
		}
	}

	for _, s := range specs {
		checks = append(checks, &EngineCheck{Spec: s, Connect: connect, Timeout: timeout})
	}
	return checks
}
