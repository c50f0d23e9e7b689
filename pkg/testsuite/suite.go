package testsuite

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

type Options struct {
	Kafka bool
	Redis bool
}

type BaseSuite struct {
	suite.Suite
	PgContainer    *postgres.PostgresContainer
	KafkaContainer *kafka.KafkaContainer
	RedisContainer *tcredis.RedisContainer
	DbPool         *pgxpool.Pool
	KafkaBrokers   []string
	RedisAddr      string
	Ctx            context.Context
}

func (s *BaseSuite) SetupInfrastructure(migrationsRelPath string, opts Options) {
	s.Ctx = context.Background()

	var err error
	s.PgContainer, err = postgres.Run(
		s.Ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)

	connStr, err := s.PgContainer.ConnectionString(s.Ctx, "sslmode=disable")
	s.Require().NoError(err)

	if opts.Kafka {
		s.KafkaContainer, err = kafka.Run(
			s.Ctx,
			"confluentinc/cp-kafka:7.5.0",
			kafka.WithClusterID("test-cluster"),
		)
		s.Require().NoError(err)

		s.KafkaBrokers, err = s.KafkaContainer.Brokers(s.Ctx)
		s.Require().NoError(err)
	}

	if opts.Redis {
		s.RedisContainer, err = tcredis.Run(s.Ctx, "redis:7-alpine")
		s.Require().NoError(err)

		endpoint, err := s.RedisContainer.Endpoint(s.Ctx, "")
		s.Require().NoError(err)
		s.RedisAddr = endpoint
	}

	absPath, err := filepath.Abs(migrationsRelPath)
	s.Require().NoError(err)

	m, err := migrate.New("file://"+absPath, connStr)
	s.Require().NoError(err)
	s.Require().NoError(m.Up())

	s.DbPool, err = pgxpool.New(s.Ctx, connStr)
	s.Require().NoError(err)
}

func (s *BaseSuite) TearDownInfrastructure() {
	if s.DbPool != nil {
		s.DbPool.Close()
	}

	for name, c := range map[string]testcontainers.Container{
		"postgres": s.PgContainer,
		"kafka":    s.KafkaContainer,
		"redis":    s.RedisContainer,
	} {
		if isNil(c) {
			continue
		}
		if err := c.Terminate(s.Ctx); err != nil {
			log.Printf("Failed to terminate %s container: %v", name, err)
		}
	}
}

func (s *BaseSuite) TruncateTable(tableNames ...string) {
	for _, tableName := range tableNames {
		_, err := s.DbPool.Exec(s.Ctx, fmt.Sprintf("TRUNCATE %s RESTART IDENTITY CASCADE", tableName))
		s.Require().NoError(err)
	}
}

func isNil(c testcontainers.Container) bool {
	switch v := c.(type) {
	case nil:
		return true
	case *postgres.PostgresContainer:
		return v == nil
	case *kafka.KafkaContainer:
		return v == nil
	case *tcredis.RedisContainer:
		return v == nil
	}
	return false
}
