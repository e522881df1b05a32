package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	admin "cloud.google.com/go/spanner/admin/database/apiv1"
	"cloud.google.com/go/spanner/admin/database/apiv1/databasepb"
	instanceadmin "cloud.google.com/go/spanner/admin/instance/apiv1"
	"cloud.google.com/go/spanner/admin/instance/apiv1/instancepb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Target names the Spanner database to migrate.
type Target struct {
	ProjectID  string
	InstanceID string
	DatabaseID string
}

func (t Target) projectName() string {
	return fmt.Sprintf("projects/%s", t.ProjectID)
}

func (t Target) instanceName() string {
	return fmt.Sprintf("projects/%s/instances/%s", t.ProjectID, t.InstanceID)
}

// DatabasePath is the fully qualified database name used by spanner.NewClient.
func (t Target) DatabasePath() string {
	return fmt.Sprintf("projects/%s/instances/%s/databases/%s", t.ProjectID, t.InstanceID, t.DatabaseID)
}

// ClientOptions returns the dial options for Spanner clients. With
// SPANNER_EMULATOR_HOST set the admin clients are pointed at the emulator.
func ClientOptions() []option.ClientOption {
	emulatorHost := os.Getenv("SPANNER_EMULATOR_HOST")
	if emulatorHost == "" {
		return nil
	}
	// gRPC endpoints take host:port without a scheme
	endpoint := strings.TrimPrefix(strings.TrimPrefix(emulatorHost, "http://"), "https://")
	return []option.ClientOption{option.WithEndpoint(endpoint)}
}

// RunMigrations creates the instance and database when missing and applies
// every DDL statement found in the .sql files of schema, in file name order.
func RunMigrations(ctx context.Context, target Target, schema fs.FS) error {
	statements, err := loadStatements(schema)
	if err != nil {
		return err
	}

	opts := ClientOptions()
	if len(opts) > 0 {
		slog.InfoContext(ctx, "using spanner emulator", "host", os.Getenv("SPANNER_EMULATOR_HOST"))
	}

	if err := ensureInstance(ctx, target, opts); err != nil {
		return err
	}

	adminClient, err := admin.NewDatabaseAdminClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create database admin client: %w", err)
	}
	defer adminClient.Close()

	if len(statements) == 0 {
		slog.InfoContext(ctx, "no DDL statements found in migration files")
		return nil
	}

	_, err = adminClient.GetDatabase(ctx, &databasepb.GetDatabaseRequest{
		Name: target.DatabasePath(),
	})
	if err != nil {
		if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
			slog.InfoContext(ctx, "creating database", "database", target.DatabaseID, "statements", len(statements))
			op, err := adminClient.CreateDatabase(ctx, &databasepb.CreateDatabaseRequest{
				Parent:          target.instanceName(),
				CreateStatement: fmt.Sprintf("CREATE DATABASE `%s`", target.DatabaseID),
				ExtraStatements: statements,
			})
			if err != nil {
				return fmt.Errorf("failed to create database: %w", err)
			}
			if _, err := op.Wait(ctx); err != nil {
				return fmt.Errorf("database creation failed: %w", err)
			}
			slog.InfoContext(ctx, "database created", "database", target.DatabasePath())
			return nil
		}
		return fmt.Errorf("failed to check database existence: %w", err)
	}

	// every statement is IF NOT EXISTS, so re-applying the full set is safe
	slog.InfoContext(ctx, "applying DDL", "database", target.DatabaseID, "statements", len(statements))
	op, err := adminClient.UpdateDatabaseDdl(ctx, &databasepb.UpdateDatabaseDdlRequest{
		Database:   target.DatabasePath(),
		Statements: statements,
	})
	if err != nil {
		return fmt.Errorf("failed to start migrations: %w", err)
	}
	if err := op.Wait(ctx); err != nil {
		return fmt.Errorf("failed to complete migrations: %w", err)
	}

	slog.InfoContext(ctx, "migrations applied", "statements", len(statements))
	return nil
}

func ensureInstance(ctx context.Context, target Target, opts []option.ClientOption) error {
	instanceAdminClient, err := instanceadmin.NewInstanceAdminClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create instance admin client: %w", err)
	}
	defer instanceAdminClient.Close()

	_, err = instanceAdminClient.GetInstance(ctx, &instancepb.GetInstanceRequest{
		Name: target.instanceName(),
	})
	if err == nil {
		return nil
	}
	if st, ok := status.FromError(err); !ok || st.Code() != codes.NotFound {
		return fmt.Errorf("failed to check instance existence: %w", err)
	}

	slog.InfoContext(ctx, "creating instance", "instance", target.InstanceID)
	op, err := instanceAdminClient.CreateInstance(ctx, &instancepb.CreateInstanceRequest{
		Parent:     target.projectName(),
		InstanceId: target.InstanceID,
		Instance: &instancepb.Instance{
			DisplayName: target.InstanceID,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create instance: %w", err)
	}
	if _, err := op.Wait(ctx); err != nil {
		return fmt.Errorf("instance creation failed: %w", err)
	}
	return nil
}

// loadStatements reads the .sql files at the root of schema in name order.
func loadStatements(schema fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(schema, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list migration files: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	var statements []string
	for _, file := range files {
		sql, err := fs.ReadFile(schema, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", path.Base(file), err)
		}
		statements = append(statements, parseDDLStatements(string(sql))...)
	}
	return statements, nil
}

// parseDDLStatements splits a SQL file into statements, dropping comments
// and the trailing semicolons Spanner's admin API rejects.
func parseDDLStatements(sql string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(sql, "\n") {
		trimmed := strings.TrimSpace(line)
		if idx := strings.Index(trimmed, "--"); idx >= 0 {
			trimmed = strings.TrimSpace(trimmed[:idx])
		}
		if trimmed == "" {
			continue
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(trimmed)

		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSuffix(strings.TrimSpace(current.String()), ";")
			if stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}
