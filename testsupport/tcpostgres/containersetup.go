package tcpostgres

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const defaultImage = "postgres:17"

// PostgresContainer is a started postgres container together with the
// credentials it was created with.
type PostgresContainer struct {
	testcontainers.Container
	user     string
	password string
	dbName   string
}

type containerConfig struct {
	req      testcontainers.ContainerRequest
	user     string
	password string
	dbName   string
}

type PostgresContainerOption func(c *containerConfig)

func WithImage(image string) PostgresContainerOption {
	return func(c *containerConfig) {
		if image != "" {
			c.req.Image = image
		}
	}
}

func WithWaitStrategy(strategies ...wait.Strategy) PostgresContainerOption {
	return func(c *containerConfig) {
		c.req.WaitingFor = wait.ForAll(strategies...).WithDeadline(1 * time.Minute)
	}
}

func WithName(containerName string) PostgresContainerOption {
	return func(c *containerConfig) {
		c.req.Name = containerName
	}
}

func WithInitialDatabase(user, password, dbName string) PostgresContainerOption {
	return func(c *containerConfig) {
		c.user, c.password, c.dbName = user, password, dbName
	}
}

// SetupPostgres starts (or reuses) a postgres container listening on 5432.
func SetupPostgres(ctx context.Context, opts ...PostgresContainerOption) (
	*PostgresContainer, error,
) {
	cfg := &containerConfig{
		req: testcontainers.ContainerRequest{
			Image:        defaultImage,
			Env:          map[string]string{},
			ExposedPorts: []string{"5432/tcp"},
			Cmd:          []string{"postgres", "-c", "fsync=off"},
		},
		user:     "postgres",
		password: "password",
		dbName:   "postgres",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.req.Env["POSTGRES_USER"] = cfg.user
	cfg.req.Env["POSTGRES_PASSWORD"] = cfg.password
	cfg.req.Env["POSTGRES_DB"] = cfg.dbName

	container, err := testcontainers.GenericContainer(
		ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: cfg.req,
			Started:          true,
			Reuse:            cfg.req.Name != "",
		})
	if err != nil {
		return nil, err
	}
	return &PostgresContainer{
		Container: container,
		user:      cfg.user,
		password:  cfg.password,
		dbName:    cfg.dbName,
	}, nil
}

// ConnectionURL returns the postgresql:// url of the mapped port.
func (c *PostgresContainer) ConnectionURL(ctx context.Context) (string, error) {
	port, err := c.MappedPort(ctx, nat.Port("5432/tcp"))
	if err != nil {
		return "", err
	}
	host, err := c.Host(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s",
		c.user, c.password, host, port.Port(), c.dbName), nil
}
