package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/swengineer/internal/dbx"
	"github.com/dmitrijs2005/swengineer/internal/logging"
	"github.com/dmitrijs2005/swengineer/internal/server/config"
	"github.com/dmitrijs2005/swengineer/internal/server/repositories/repomanager"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.Env = config.EnvTest
	c.HTTPAddr = "127.0.0.1:0"
	c.SaltRounds = bcrypt.MinCost
	c.MailTransport = config.MailTransportLog
	c.ShutdownTimeout = time.Second
	return c
}

type migratingStore struct {
	*repomanager.MemoryRepositoryManager
	migrations int
	closed     bool
}

func (m *migratingStore) RunMigrations(context.Context) error {
	m.migrations++
	return nil
}

func (m *migratingStore) Close() error {
	m.closed = true
	return nil
}

func swapOpenStore(t *testing.T, fn func(context.Context, string, dbx.PoolOptions) (repomanager.RepositoryManager, error)) {
	t.Helper()
	orig := openStore
	t.Cleanup(func() { openStore = orig })
	openStore = fn
}

func TestApp_ServesUntilCancelled(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(), logging.Discard())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestApp_RunClosesStore(t *testing.T) {
	store := &migratingStore{MemoryRepositoryManager: repomanager.NewMemoryRepositoryManager()}
	swapOpenStore(t, func(context.Context, string, dbx.PoolOptions) (repomanager.RepositoryManager, error) {
		return store, nil
	})

	app, err := NewApp(context.Background(), testConfig(), logging.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.True(t, store.closed)
}

func TestNewApp_StoreError(t *testing.T) {
	swapOpenStore(t, func(context.Context, string, dbx.PoolOptions) (repomanager.RepositoryManager, error) {
		return nil, errors.New("connection refused")
	})

	_, err := NewApp(context.Background(), testConfig(), logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store init error")
}

func TestNewApp_MailerErrorClosesStore(t *testing.T) {
	store := &migratingStore{MemoryRepositoryManager: repomanager.NewMemoryRepositoryManager()}
	swapOpenStore(t, func(context.Context, string, dbx.PoolOptions) (repomanager.RepositoryManager, error) {
		return store, nil
	})

	c := testConfig()
	c.MailTransport = "pigeon"

	_, err := NewApp(context.Background(), c, logging.Discard())
	require.Error(t, err)
	assert.True(t, store.closed)
}

func TestMigrate(t *testing.T) {
	store := &migratingStore{MemoryRepositoryManager: repomanager.NewMemoryRepositoryManager()}
	var gotDSN string
	swapOpenStore(t, func(_ context.Context, dsn string, _ dbx.PoolOptions) (repomanager.RepositoryManager, error) {
		gotDSN = dsn
		return store, nil
	})

	c := testConfig()
	require.NoError(t, Migrate(context.Background(), c))
	assert.Zero(t, store.migrations, "memory store skips migrations")

	c.DatabaseDSN = "postgres://localhost/swengineer"
	require.NoError(t, Migrate(context.Background(), c))
	assert.Equal(t, 1, store.migrations)
	assert.Equal(t, c.DatabaseDSN, gotDSN)
	assert.True(t, store.closed)
}

func TestPoolShape(t *testing.T) {
	tests := []struct {
		name        string
		env, dsn    string
		workers     int
		mode        string
		wantWorkers int
		wantMode    string
	}{
		{"memory store", config.EnvProduction, "", 8, config.WorkerModeProcess, 1, config.WorkerModeInProcess},
		{"test env", config.EnvTest, "postgres://x", 8, config.WorkerModeProcess, 1, config.WorkerModeInProcess},
		{"postgres processes", config.EnvProduction, "postgres://x", 8, config.WorkerModeProcess, 8, config.WorkerModeProcess},
		{"postgres in-process", config.EnvDevelopment, "postgres://x", 3, config.WorkerModeInProcess, 3, config.WorkerModeInProcess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &config.Config{Env: tt.env, DatabaseDSN: tt.dsn, Workers: tt.workers, WorkerMode: tt.mode}
			n, mode := PoolShape(c)
			assert.Equal(t, tt.wantWorkers, n)
			assert.Equal(t, tt.wantMode, mode)
		})
	}
}

func TestRunPrimary_InProcessWorker(t *testing.T) {
	bound := make(chan net.Listener, 1)
	orig := listen
	t.Cleanup(func() { listen = orig })
	listen = func(ctx context.Context, addr string) (net.Listener, error) {
		ln, err := orig(ctx, addr)
		if err == nil {
			bound <- ln
		}
		return ln, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunPrimary(ctx, testConfig(), logging.Discard(), nil) }()

	var ln net.Listener
	select {
	case ln = <-bound:
	case <-time.After(3 * time.Second):
		t.Fatal("worker never bound")
	}

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("primary did not stop")
	}
}

func TestRunPrimary_MemoryStoreSurvivesWorkerRestart(t *testing.T) {
	store := &migratingStore{MemoryRepositoryManager: repomanager.NewMemoryRepositoryManager()}
	opened := 0
	swapOpenStore(t, func(context.Context, string, dbx.PoolOptions) (repomanager.RepositoryManager, error) {
		opened++
		return store, nil
	})

	bound := make(chan net.Listener, 1)
	listens := 0
	orig := listen
	t.Cleanup(func() { listen = orig })
	listen = func(ctx context.Context, addr string) (net.Listener, error) {
		listens++
		if listens == 1 {
			return nil, errors.New("address in use")
		}
		ln, err := orig(ctx, addr)
		if err == nil {
			bound <- ln
		}
		return ln, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunPrimary(ctx, testConfig(), logging.Discard(), nil) }()

	select {
	case <-bound:
	case <-time.After(3 * time.Second):
		t.Fatal("restarted worker never bound")
	}
	assert.False(t, store.closed, "restart keeps the shared store open")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("primary did not stop")
	}
	assert.Equal(t, 1, opened, "store opened once across restarts")
	assert.Equal(t, 2, listens)
	assert.True(t, store.closed, "primary closes the shared store")
}
