// Package containers starts the document service stack in docker for
// integration tests and local development. Settings come from the
// environment, usually loaded from a .env file.
package containers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

// ImageName is the tag the document service image is built and reused under
const ImageName = "proverbs-sync-test:latest"

const authzNetworkName = "authorizer"

// Reporter receives progress messages. *testing.T satisfies it.
type Reporter interface {
	Logf(format string, args ...any)
}

// Stack is a running set of containers
type Stack struct {
	Network    *testcontainers.DockerNetwork
	DB         testcontainers.Container
	Authorizer testcontainers.Container
	Server     testcontainers.Container
	Builder    testcontainers.Container

	// DocumentsDSN reaches the document database from the host, in the
	// "<type>:<dsn>" form database.ConnectDSN accepts.
	DocumentsDSN string
	// AuthzURL and BaseURL are the host side URLs of the authorizer and
	// the document service.
	AuthzURL string
	BaseURL  string
}

// Terminate stops every started container and removes the network
func (s *Stack) Terminate(ctx context.Context, r Reporter) {
	for _, c := range []struct {
		name      string
		container testcontainers.Container
	}{
		{"document service", s.Server},
		{"document service builder", s.Builder},
		{"authorizer", s.Authorizer},
		{"database", s.DB},
	} {
		if c.container == nil {
			continue
		}
		if err := c.container.Terminate(ctx); err != nil {
			r.Logf("Failed to terminate %s: %v", c.name, err)
		}
	}
	if s.Network != nil {
		if err := s.Network.Remove(ctx); err != nil {
			r.Logf("Failed to remove network: %v", err)
		}
	}
}

// StartDatabase starts only the document database. The returned stack has
// DB, Network and DocumentsDSN set.
func StartDatabase(ctx context.Context, r Reporter) (*Stack, error) {
	stack := &Stack{}
	if err := stack.startDatabase(ctx, r); err != nil {
		stack.Terminate(context.Background(), r)
		return nil, err
	}
	return stack, nil
}

// StartAll starts the database, the authorizer and the document service
func StartAll(ctx context.Context, r Reporter) (*Stack, error) {
	stack := &Stack{}
	err := stack.startDatabase(ctx, r)
	if err == nil {
		err = stack.startAuthorizer(ctx, r)
	}
	if err == nil {
		err = stack.startServer(ctx, r)
	}
	if err != nil {
		stack.Terminate(context.Background(), r)
		return nil, err
	}
	r.Logf("Document service stack started")
	return stack, nil
}

func (s *Stack) startDatabase(ctx context.Context, r Reporter) error {
	nw, err := network.New(ctx)
	if err != nil {
		return fmt.Errorf("create network: %w", err)
	}
	s.Network = nw

	dbType := os.Getenv("DB_TYPE")
	if dbType != "mysql" && dbType != "mariadb" {
		return fmt.Errorf("DB_TYPE %q is not supported in containers", dbType)
	}
	tcpDBPort, err := nat.NewPort("tcp", os.Getenv("DB_PORT"))
	if err != nil {
		return fmt.Errorf("database port: %w", err)
	}

	db, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        os.Getenv("DB_IMAGE"),
			ExposedPorts: []string{string(tcpDBPort)},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": os.Getenv("DB_ROOT_PASSWORD"),
				"MYSQL_DATABASE":      os.Getenv("DB_APP_DATABASE"),
				"MYSQL_USER":          os.Getenv("DB_APP_USER"),
				"MYSQL_PASSWORD":      os.Getenv("DB_APP_PASSWORD"),
			},
			WaitingFor: wait.ForListeningPort(tcpDBPort).WithStartupTimeout(60 * time.Second),
			Networks:   []string{nw.Name},
			NetworkAliases: map[string][]string{
				nw.Name: {os.Getenv("DB_HOST")},
			},
		},
		Started: true,
	})
	if err != nil {
		return fmt.Errorf("start database: %w", err)
	}
	s.DB = db

	host, err := db.Host(ctx)
	if err != nil {
		return err
	}
	port, err := db.MappedPort(ctx, tcpDBPort)
	if err != nil {
		return err
	}
	if err := initMySQL(ctx, host, port); err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}

	s.DocumentsDSN = fmt.Sprintf("mysql:%s:%s@tcp(%s:%s)/%s?parseTime=true",
		os.Getenv("DB_APP_USER"), os.Getenv("DB_APP_PASSWORD"), host, port.Port(), os.Getenv("DB_APP_DATABASE"))
	r.Logf("DOCUMENTS_DSN=%s", s.DocumentsDSN)
	return nil
}

// initMySQL creates the authorizer database next to the document database.
// Document tables are created by the service itself.
func initMySQL(ctx context.Context, host string, port nat.Port) error {
	db, err := sql.Open("mysql", fmt.Sprintf("root:%s@tcp(%s:%s)/", os.Getenv("DB_ROOT_PASSWORD"), host, port.Port()))
	if err != nil {
		return err
	}
	defer db.Close()

	// The port listens before the server accepts logins
	for i := 0; i < 30; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		return fmt.Errorf("database not ready after 30 seconds: %w", err)
	}

	authzDB := os.Getenv("AUTHZ_DATABASE")
	if authzDB == "" {
		return nil
	}
	for _, stmt := range []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", authzDB),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.authorizer_users (id CHAR(36) NOT NULL PRIMARY KEY)", authzDB),
		"FLUSH PRIVILEGES",
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: when executing > %s", err, stmt)
		}
	}
	return nil
}

func (s *Stack) startAuthorizer(ctx context.Context, r Reporter) error {
	tcpAuthzPort, err := nat.NewPort("tcp", os.Getenv("AUTHZ_PORT"))
	if err != nil {
		return fmt.Errorf("authorizer port: %w", err)
	}

	logLevel := "info"
	if debugging() {
		logLevel = "debug"
	}
	authz, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        os.Getenv("AUTHZ_IMAGE"),
			ExposedPorts: []string{string(tcpAuthzPort)},
			Env: map[string]string{
				"ENV":           "production",
				"CLIENT_ID":     os.Getenv("AUTHZ_CLIENT_ID"),
				"PORT":          os.Getenv("AUTHZ_PORT"),
				"DATABASE_TYPE": os.Getenv("DB_TYPE"),
				"DATABASE_NAME": os.Getenv("AUTHZ_DATABASE"),
				"DATABASE_URL": fmt.Sprintf("root:%s@tcp(%s:%s)/%s",
					os.Getenv("DB_ROOT_PASSWORD"), os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("AUTHZ_DATABASE")),
				"ADMIN_SECRET":  os.Getenv("AUTHZ_ADMIN_SECRET"),
				"ROLES":         "admin,user",
				"DEFAULT_ROLES": "user",
				"LOG_LEVEL":     logLevel,
			},
			WaitingFor: wait.ForLog("Authorizer running at PORT:").WithStartupTimeout(10 * time.Second),
			Networks:   []string{s.Network.Name},
			NetworkAliases: map[string][]string{
				s.Network.Name: {authzNetworkName},
			},
		},
		Started: true,
	})
	if err != nil {
		return fmt.Errorf("start authorizer: %w", err)
	}
	s.Authorizer = authz

	host, _ := authz.Host(ctx)
	port, _ := authz.MappedPort(ctx, tcpAuthzPort)
	s.AuthzURL = fmt.Sprintf("http://%s:%s", host, port.Port())
	r.Logf("AUTHZ_URL=%s", s.AuthzURL)
	return nil
}

func (s *Stack) startServer(ctx context.Context, r Reporter) error {
	exists, err := imageExists(ctx, ImageName)
	if err != nil {
		return fmt.Errorf("check image %s: %w", ImageName, err)
	}

	tcpPort, err := nat.NewPort("tcp", os.Getenv("PORT"))
	if err != nil {
		return fmt.Errorf("service port: %w", err)
	}

	req := testcontainers.ContainerRequest{
		ExposedPorts: []string{string(tcpPort)},
		Env: map[string]string{
			"DB_TYPE":                 os.Getenv("DB_TYPE"),
			"DB_HOST":                 os.Getenv("DB_HOST"),
			"DB_PORT":                 os.Getenv("DB_PORT"),
			"DB_APP_DATABASE":         os.Getenv("DB_APP_DATABASE"),
			"DB_APP_USER":             os.Getenv("DB_APP_USER"),
			"DB_APP_PASSWORD":         os.Getenv("DB_APP_PASSWORD"),
			"DB_APP_CONNECTION_LIMIT": os.Getenv("DB_APP_CONNECTION_LIMIT"),
			"AUTHZ_URL":               fmt.Sprintf("http://%s:%s", authzNetworkName, os.Getenv("AUTHZ_PORT")),
			"AUTHZ_CLIENT_ID":         os.Getenv("AUTHZ_CLIENT_ID"),
			"PORT":                    os.Getenv("PORT"),
		},
		WaitingFor: wait.ForHTTP("/metrics").WithPort(tcpPort).WithStartupTimeout(30 * time.Second),
		Networks:   []string{s.Network.Name},
	}

	if debugging() {
		req.ExposedPorts = append(req.ExposedPorts, "2345/tcp")
		req.HostConfigModifier = func(hostConfig *container.HostConfig) {
			hostConfig.PortBindings = nat.PortMap{
				"2345/tcp": []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: "2345"}},
			}
			hostConfig.CapAdd = []string{"SYS_PTRACE"}
			hostConfig.SecurityOpt = []string{"apparmor:unconfined"}
		}
		req.Entrypoint = []string{
			"/usr/local/bin/dlv", "--listen=:2345", "--headless=true", "--api-version=2",
			"--accept-multiclient", "exec", "./proverbs-sync",
		}
		req.WaitingFor = wait.ForLog("API server listening at: [::]:2345").WithStartupTimeout(5 * time.Minute)
	}

	if exists {
		r.Logf("Image %s exists, reusing...", ImageName)
		req.Image = ImageName
	} else {
		r.Logf("Image %s does not exist, building...", ImageName)
		if err := s.buildImage(ctx, &req); err != nil {
			return err
		}
	}

	server, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return fmt.Errorf("start document service: %w", err)
	}
	s.Server = server

	host, _ := server.Host(ctx)
	port, _ := server.MappedPort(ctx, tcpPort)
	s.BaseURL = fmt.Sprintf("http://%s:%s", host, port.Port())
	r.Logf("BASE_URL=%s", s.BaseURL)
	return nil
}

// buildImage builds the builder stage first so its layers are cached, then
// points req at the runtime stage, kept under ImageName for later runs.
func (s *Stack) buildImage(ctx context.Context, req *testcontainers.ContainerRequest) error {
	sessionID := uuid.New().String()
	buildArgs := map[string]*string{
		"RESOURCE_REAPER_SESSION_ID": &sessionID,
	}
	if debugging() {
		debug := "true"
		buildArgs["DEBUG"] = &debug
	}

	buildContext := os.Getenv("TESTCONTAINERS_BUILD_CONTEXT")
	if buildContext == "" {
		buildContext = "../.."
	}

	builder, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			FromDockerfile: testcontainers.FromDockerfile{
				Context:    buildContext,
				Dockerfile: "Dockerfile",
				Repo:       "proverbs-sync-test-builder",
				Tag:        "latest",
				BuildArgs:  buildArgs,
				BuildOptionsModifier: func(opts *build.ImageBuildOptions) {
					opts.Target = "builder"
				},
				PrintBuildLog: true,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("build document service builder: %w", err)
	}
	s.Builder = builder

	repo, tag, ok := strings.Cut(ImageName, ":")
	if !ok {
		return errors.New("image name needs a tag")
	}
	req.FromDockerfile = testcontainers.FromDockerfile{
		Context:    buildContext,
		Dockerfile: "Dockerfile",
		Repo:       repo,
		Tag:        tag,
		KeepImage:  true,
		BuildArgs:  buildArgs,
		BuildOptionsModifier: func(opts *build.ImageBuildOptions) {
			opts.Target = "runtime"
		},
		PrintBuildLog: true,
	}
	return nil
}

func imageExists(ctx context.Context, name string) (bool, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false, err
	}
	defer cli.Close()

	images, err := cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return false, err
	}
	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag == name {
				return true, nil
			}
		}
	}
	return false, nil
}

func debugging() bool {
	return os.Getenv("DEBUG_CONTAINER") == "true"
}
