package postgres

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/RealZimboGuy/flowlint/internal/config"
)

var portBase int32 = 9098 // starting port number (can be anything safe)

func nextPort() int {
	return int(atomic.AddInt32(&portBase, 1))
}

func runTestWithSetup(t *testing.T, testFunc func(t *testing.T, port int)) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	port := nextPort()
	config.Reset()
	t.Cleanup(config.Reset)
	t.Setenv("HTTP_ADDR", ":"+strconv.Itoa(port))

	container, dsn := SetupPostgresTestInstance(t, t.Context())
	defer container.Terminate(context.Background())
	t.Setenv(config.DATABASE_TYPE, config.DATABASE_TYPE_POSTGRES)
	t.Setenv(config.DATABASE_URL, dsn)
	testFunc(t, port)
}

func SetupPostgresTestInstance(t *testing.T, ctx context.Context) (testcontainers.Container, string) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_USER":     "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("error starting postgres container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("error reading postgres host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("error reading postgres port: %v", err)
	}

	dsn := "postgres://test:test@" + host + ":" + port.Port() + "/testdb?sslmode=disable"
	return container, dsn
}
