//go:build integration

package persistence_test

import (
	"testing"

	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/persistence/persistencetest"
)

func TestRepositories_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container in short mode")
	}
	runRepositoryTests(t, persistencetest.NewPostgres)
}
