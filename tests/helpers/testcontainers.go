// This file is a helper for running tests with testcontainers.
// It is used by the integration tests and by the cmd/testcontainers standalone executable.
// Options can be read from environment variables loaded from .env files.
//

package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/localnerve/bibliodb/data"
	"github.com/localnerve/bibliodb/internal/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

// DatabaseOptions describes the database container to start
type DatabaseOptions struct {
	Type         string // mariadb, mysql or postgres
	Image        string
	Database     string
	User         string
	Password     string
	RootPassword string
	NetworkAlias string
}

// OptionsFromEnv reads the database options from DB_* environment variables
func OptionsFromEnv() DatabaseOptions {
	return DatabaseOptions{
		Type:         os.Getenv("DB_TYPE"),
		Image:        os.Getenv("DB_IMAGE"),
		Database:     os.Getenv("DB_DATABASE"),
		User:         os.Getenv("DB_USER"),
		Password:     os.Getenv("DB_PASSWORD"),
		RootPassword: os.Getenv("DB_ROOT_PASSWORD"),
		NetworkAlias: os.Getenv("DB_HOST"),
	}
}

type TestContainers struct {
	Network     *testcontainers.DockerNetwork
	DBContainer testcontainers.Container
}

func (tc *TestContainers) Terminate(t *testing.T) {
	ctx := context.Background()
	if tc.DBContainer != nil {
		if err := tc.DBContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate database: %v", err)
		}
	}
	if tc.Network != nil {
		if err := tc.Network.Remove(ctx); err != nil {
			logMessage(t, "Failed to remove network: %v", err)
		}
	}
}

// StartDatabase starts a database container on its own network and returns
// the configuration that reaches it from the host
func StartDatabase(t *testing.T, opts DatabaseOptions) (*TestContainers, *config.Config, error) {
	ctx := context.Background()
	testContainers := &TestContainers{}

	if opts.NetworkAlias == "" {
		opts.NetworkAlias = "database"
	}

	// Create a network
	nw, err := network.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create network: %w", err)
	}
	testContainers.Network = nw
	networkName := nw.Name

	tcpDbPort, err := nat.NewPort("tcp", config.DefaultPort(opts.Type))
	if err != nil {
		testContainers.Terminate(t)
		return nil, nil, fmt.Errorf("failed to create DB port: %w", err)
	}

	dbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        opts.Image,
			ExposedPorts: []string{string(tcpDbPort)},
			Env:          getDBInitEnvMap(opts),
			WaitingFor:   waitStrategy(opts.Type, tcpDbPort),
			Networks:     []string{networkName},
			NetworkAliases: map[string][]string{
				networkName: {opts.NetworkAlias},
			},
		},
		Started: true,
	})
	if err != nil {
		testContainers.Terminate(t)
		return nil, nil, fmt.Errorf("failed to start database: %w", err)
	}
	testContainers.DBContainer = dbContainer

	dbHost, err := dbContainer.Host(ctx)
	if err != nil {
		testContainers.Terminate(t)
		return nil, nil, fmt.Errorf("failed to get database host: %w", err)
	}
	dbPort, err := dbContainer.MappedPort(ctx, tcpDbPort)
	if err != nil {
		testContainers.Terminate(t)
		return nil, nil, fmt.Errorf("failed to get database port: %w", err)
	}

	if opts.Type == "mariadb" || opts.Type == "mysql" {
		if err := performMySqlDBInit(opts, dbHost, dbPort); err != nil {
			testContainers.Terminate(t)
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	logMessage(t, "DB_HOST=%s", dbHost)
	logMessage(t, "DB_PORT=%s", dbPort.Port())
	logMessage(t, "Database testcontainer started successfully")

	cfg := &config.Config{
		DBType:            opts.Type,
		DBHost:            dbHost,
		DBPort:            dbPort.Port(),
		DBDatabase:        opts.Database,
		DBUser:            opts.User,
		DBPassword:        opts.Password,
		DBConnectionLimit: 5,
		DBLogLevel:        "silent",
	}
	return testContainers, cfg, nil
}

// MustStartDatabase starts the database container, failing the test (or
// exiting when t is nil) on error
func MustStartDatabase(t *testing.T, opts DatabaseOptions) (*TestContainers, *config.Config) {
	testContainers, cfg, err := StartDatabase(t, opts)
	if err != nil {
		exitWithError(t, err, "Failed to start database container")
	}
	return testContainers, cfg
}

func waitStrategy(dbType string, port nat.Port) wait.Strategy {
	switch dbType {
	case "postgres":
		return wait.ForAll(
			wait.ForListeningPort(port),
			// The server restarts once after running the init scripts
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(60 * time.Second)
	default:
		return wait.ForListeningPort(port).WithStartupTimeout(60 * time.Second)
	}
}

func getDBInitEnvMap(opts DatabaseOptions) map[string]string {
	switch opts.Type {
	case "postgres":
		return map[string]string{
			"POSTGRES_PASSWORD": opts.Password,
			"POSTGRES_USER":     opts.User,
			"POSTGRES_DB":       opts.Database,
		}
	case "mariadb", "mysql":
		return map[string]string{
			"MYSQL_ROOT_PASSWORD": opts.RootPassword,
			"MYSQL_DATABASE":      opts.Database,
			"MYSQL_USER":          opts.User,
			"MYSQL_PASSWORD":      opts.Password,
		}
	}
	return nil
}

func performMySqlDBInit(opts DatabaseOptions, dbHost string, dbPort nat.Port) error {
	db, err := sql.Open("mysql", fmt.Sprintf("root:%s@tcp(%s:%s)/", opts.RootPassword, dbHost, dbPort.Port()))
	if err != nil {
		return fmt.Errorf("failed to connect for setup: %w", err)
	}
	defer db.Close()

	// Wait for connection to be really ready
	for i := 0; i < 30; i++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(1 * time.Second)
	}
	if err != nil {
		return fmt.Errorf("not ready after 30 seconds: %w", err)
	}

	return executeSQL(db, data.InitdbMariaDBServer)
}

// executeSQL runs each statement of a script; "--" comments are dropped
func executeSQL(db *sql.DB, script string) error {
	var lines []string
	for _, line := range strings.Split(script, "\n") {
		lines = append(lines, excludeComment(line))
	}

	for _, q := range strings.Split(strings.Join(lines, "\n"), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("%s : when executing > %s", err.Error(), q)
		}
	}
	return nil
}

// excludeComment strips a trailing "--" comment that is not inside a quoted string
func excludeComment(line string) string {
	var quote rune
	for i, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case strings.HasPrefix(line[i:], "--"):
			return line[:i]
		}
	}
	return line
}

func exitWithError(t *testing.T, err error, msg string) {
	if t != nil {
		t.Fatalf(msg+": %v", err)
	} else {
		fmt.Printf(msg+": %v\n", err)
		os.Exit(1)
	}
}

func logMessage(t *testing.T, format string, args ...any) {
	if t != nil {
		t.Logf(format, args...)
	} else {
		fmt.Printf(format+"\n", args...)
	}
}
