// Package integration проверяет сервер поверх настоящего PostgreSQL:
// каждая учётная операция проходит всю вертикаль от TCP до таблицы users.
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/codenames/internal/config"
	"github.com/udisondev/codenames/internal/db"
	"github.com/udisondev/codenames/internal/game"
	"github.com/udisondev/codenames/internal/server"
	"github.com/udisondev/codenames/internal/testutil"
	"github.com/udisondev/codenames/internal/users"
)

// startServer поднимает сервер с Postgres-хранилищем в testcontainer.
func startServer(t *testing.T) (*db.PostgresUserRepository, string) {
	t.Helper()

	pool := testutil.SetupTestDB(t)
	repo := db.NewPostgresUserRepository(pool)
	srv := server.NewServer(config.Default(), users.NewStore(repo), game.NewWordList(nil))

	ln, addr := testutil.ListenTCP(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			t.Error("server did not shut down")
		}
	})

	return repo, addr
}

func TestSignupPersistsAccount(t *testing.T) {
	repo, addr := startServer(t)

	client := testutil.DialLine(t, addr)
	client.Signup("alice", "secret", "Alice")

	ctx := testutil.ContextWithTimeout(t, 5*time.Second)
	u, err := repo.GetByID(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Alice", u.Nickname)
	assert.NotEqual(t, "secret", u.PasswordHash)
	assert.NotEmpty(t, u.Salt)
}

// Аккаунт переживает соединение: новый клиент входит по тем же учёткам.
func TestLoginSurvivesReconnect(t *testing.T) {
	_, addr := startServer(t)

	first := testutil.DialLine(t, addr)
	first.Signup("alice", "secret", "Alice")
	first.Close()

	second := testutil.DialLine(t, addr)
	token := second.Login("alice", "secret")
	second.Send("TOKEN|" + token)
	second.ExpectExact("TOKEN_VALID|Alice")
}

func TestSuspensionPersistsAcrossConnections(t *testing.T) {
	repo, addr := startServer(t)

	victim := testutil.DialLine(t, addr)
	victim.Signup("alice", "secret", "Alice")

	reporter := testutil.DialLine(t, addr)
	token := reporter.Signup("bob", "pw", "Bob")
	ctx := testutil.ContextWithTimeout(t, 5*time.Second)
	for i := 1; i <= users.SuspendThreshold; i++ {
		reporter.Send("REPORT|" + token + "|Alice")
		reporter.Expect("REPORT_OK")
	}

	u, err := repo.GetByID(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.True(t, u.Suspended)
	assert.Equal(t, users.SuspendThreshold, u.ReportCount)

	fresh := testutil.DialLine(t, addr)
	fresh.Send("LOGIN|alice|secret")
	fresh.ExpectExact("LOGIN_SUSPENDED")
}

func TestNicknameEditPersists(t *testing.T) {
	repo, addr := startServer(t)

	client := testutil.DialLine(t, addr)
	token := client.Signup("alice", "secret", "Alice")
	client.Send("EDIT_NICK|" + token + "|Alicia")
	client.ExpectExact("NICKNAME_EDIT_OK")

	ctx := testutil.ContextWithTimeout(t, 5*time.Second)
	u, err := repo.GetByID(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Alicia", u.Nickname)
}
