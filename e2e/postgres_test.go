package e2e_test

import (
	"context"
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	testContainerOnce sync.Once
	testContainerErr  error
	testDSN           string
)

// getSharedPostgresDatabase returns the DSN of a PostgreSQL container shared
// by all E2E tests. The container is terminated when the test binary exits.
func getSharedPostgresDatabase(t *testing.T) string {
	t.Helper()

	testContainerOnce.Do(func() {
		ctx := context.Background()

		pgContainer, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			testContainerErr = err
			return
		}
		cleanups = append(cleanups, func() {
			_ = testcontainers.TerminateContainer(pgContainer)
		})

		testDSN, testContainerErr = pgContainer.ConnectionString(ctx, "sslmode=disable")
	})

	if testContainerErr != nil {
		t.Fatalf("failed to start postgres container: %v", testContainerErr)
	}
	return testDSN
}
