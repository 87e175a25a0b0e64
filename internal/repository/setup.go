package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

// Indexes вторичные индексы таблиц задач и результатов.
var (
	TaskIndexes   = []string{"status", "created_at", "updated_at"}
	ResultIndexes = []string{TaskIDIndex, "created_at"}
)

// Connect подключается к RethinkDB с повторами и проверяет соединение.
func Connect(address, database string, maxRetries int, logger *zap.Logger) (*r.Session, error) {
	var err error

	for i := 1; i <= maxRetries; i++ {
		logger.Info("Connecting to RethinkDB", zap.Int("attempt", i), zap.Int("max", maxRetries))

		var session *r.Session
		session, err = r.Connect(r.ConnectOpts{
			Address:    address,
			Database:   database,
			MaxOpen:    20,
			InitialCap: 5,
			Timeout:    10 * time.Second,
		})
		if err == nil {
			if err = ping(session); err == nil {
				return session, nil
			}
			session.Close()
		}

		if i < maxRetries {
			waitTime := time.Duration(i) * 2 * time.Second
			logger.Warn("Connection failed, retrying", zap.Error(err), zap.Duration("wait", waitTime))
			time.Sleep(waitTime)
		}
	}

	return nil, fmt.Errorf("failed to connect to RethinkDB after %d attempts: %w", maxRetries, err)
}

func ping(session r.QueryExecutor) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return Ping(ctx, session)
}

// Ping проверка доступности базы для health check.
func Ping(ctx context.Context, session r.QueryExecutor) error {
	cursor, err := r.Expr(1).Run(session, r.RunOpts{Context: ctx})
	if err != nil {
		return fmt.Errorf("RethinkDB: %w", err)
	}
	return cursor.Close()
}

// SetupDatabase создает базу, таблицы и индексы, если их нет.
func SetupDatabase(session *r.Session, dbName, taskTable, resultTable string, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	runOpts := r.RunOpts{Context: ctx}

	var dbList []string
	if err := readAll(r.DBList(), session, runOpts, &dbList); err != nil {
		return fmt.Errorf("failed to list databases: %w", err)
	}

	if !slices.Contains(dbList, dbName) {
		logger.Info("Creating database", zap.String("db", dbName))
		if _, err := r.DBCreate(dbName).RunWrite(session, runOpts); err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
	}

	session.Use(dbName)

	if err := ensureTable(ctx, session, taskTable, TaskIndexes, logger); err != nil {
		return err
	}
	return ensureTable(ctx, session, resultTable, ResultIndexes, logger)
}

func ensureTable(ctx context.Context, session r.QueryExecutor, table string, indexes []string, logger *zap.Logger) error {
	runOpts := r.RunOpts{Context: ctx}

	var tableList []string
	if err := readAll(r.TableList(), session, runOpts, &tableList); err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	if !slices.Contains(tableList, table) {
		logger.Info("Creating table", zap.String("table", table))
		if _, err := r.TableCreate(table).RunWrite(session, runOpts); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}

	for _, index := range indexes {
		_, err := r.Table(table).IndexCreate(index).RunWrite(session, runOpts)
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			logger.Warn("Failed to create index", zap.String("table", table), zap.String("index", index), zap.Error(err))
		}
	}

	var statuses []map[string]any
	if err := readAll(r.Table(table).IndexWait(), session, runOpts, &statuses); err != nil {
		return fmt.Errorf("failed to wait for indexes of %s: %w", table, err)
	}

	logger.Debug("Table ready", zap.String("table", table), zap.Int("indexes", len(statuses)))
	return nil
}

func readAll(term r.Term, session r.QueryExecutor, runOpts r.RunOpts, dest any) error {
	cursor, err := term.Run(session, runOpts)
	if err != nil {
		return err
	}
	defer cursor.Close()

	return cursor.All(dest)
}
