package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Config struct {
	// Driver is "postgres" (lib/pq) or "pgx" (jackc/pgx stdlib).
	Driver         string
	DSN            string
	MaxConns       int
	Timeout        time.Duration
	TimeZone       string
	ClientEncoding string
}

// Connect opens a *sqlx.DB and verifies connectivity with a ping
func Connect(cfg Config) (*sqlx.DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "postgres"
	}
	if driver != "postgres" && driver != "pgx" {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	dsn, err := withSessionParams(cfg.DSN, cfg.TimeZone, cfg.ClientEncoding)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return sqlx.NewDb(db, driver), nil
}

// withSessionParams adds timezone and client_encoding to the DSN as
// startup parameters. Both lib/pq and pgx forward unknown DSN keys to the
// server, so every pooled connection starts with the same session settings.
func withSessionParams(dsn, timeZone, encoding string) (string, error) {
	params := [][2]string{}
	if timeZone != "" {
		params = append(params, [2]string{"timezone", timeZone})
	}
	if encoding != "" {
		params = append(params, [2]string{"client_encoding", encoding})
	}
	if len(params) == 0 {
		return dsn, nil
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		q := u.Query()
		for _, p := range params {
			q.Set(p[0], p[1])
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	// keyword/value form
	var b strings.Builder
	b.WriteString(strings.TrimSpace(dsn))
	for _, p := range params {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p[0] + "=" + quoteValue(p[1]))
	}
	return b.String(), nil
}

// quoteValue quotes a keyword/value DSN value, escaping backslashes and
// single quotes.
func quoteValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
