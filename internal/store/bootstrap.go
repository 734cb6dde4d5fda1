package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Bootstrap creates the auth tables and seeds the first admin account.
func (s *Store) Bootstrap(ctx context.Context, adminEmail, adminPassword string) error {
	for _, stmt := range s.Dialect.SystemTablesSQL() {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap system tables: %w", err)
		}
	}
	if err := s.seedAdminUser(ctx, adminEmail, adminPassword); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	return nil
}

func (s *Store) seedAdminUser(ctx context.Context, email, password string) error {
	row, err := QueryRow(ctx, s.DB, "SELECT COUNT(*) AS count FROM _users")
	if err != nil {
		return err
	}
	if n, _ := toInt64(row["count"]).(int64); n > 0 {
		return nil
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	pb := s.Dialect.NewParamBuilder()
	sql := fmt.Sprintf(
		"INSERT INTO _users (id, email, password_hash, roles, active, created_at) VALUES (%s, %s, %s, %s, %s, %s)",
		pb.Add(uuid.NewString()), pb.Add(email), pb.Add(string(hashBytes)),
		pb.Add(`["admin"]`), pb.Add(true), pb.Add(time.Now().Unix()),
	)
	if _, err := s.DB.ExecContext(ctx, sql, pb.Params()...); err != nil {
		return err
	}

	slog.Warn("default admin user created, change the password immediately", "email", email)
	return nil
}
