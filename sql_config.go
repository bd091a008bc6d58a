package postboot

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/lib/pq"
)

type SQLConfig struct {
	Driver   string
	URL      string
	Host     string
	Port     int
	Username string
	Password string
	Database string
	Options  map[string]string
}

func NewSQLConfig() *SQLConfig {
	return &SQLConfig{
		Driver:  "postgres",
		Host:    "localhost",
		Port:    5432,
		Options: make(map[string]string),
	}
}

func (c *SQLConfig) WithDriver(driver string) *SQLConfig {
	c.Driver = driver
	return c
}

// WithURL sets a complete connection string. When set it takes precedence
// over the host, credential and database settings.
func (c *SQLConfig) WithURL(dsn string) *SQLConfig {
	c.URL = dsn
	return c
}

func (c *SQLConfig) WithCredentials(username, password string) *SQLConfig {
	c.Username = username
	c.Password = password
	return c
}

func (c *SQLConfig) WithHost(host string, port int) *SQLConfig {
	c.Host = host
	c.Port = port
	return c
}

func (c *SQLConfig) WithDatabase(database string) *SQLConfig {
	c.Database = database
	return c
}

func (c *SQLConfig) WithOption(key, value string) *SQLConfig {
	c.Options[key] = value
	return c
}

func (c *SQLConfig) BuildDSN() string {
	if c.URL != "" {
		return c.URL
	}
	if c.Database == "" {
		return ""
	}

	// Only lib/pq is registered, so host settings build a postgres URL.
	if c.Driver != "postgres" {
		return ""
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	if c.Username != "" {
		u.User = url.UserPassword(c.Username, c.Password)
	}
	query := url.Values{}
	query.Set("sslmode", "disable")
	for key, value := range c.Options {
		query.Set(key, value)
	}
	u.RawQuery = query.Encode()
	return u.String()
}

// Connect opens a pool capped at one connection and pings it. There is no
// retry: a failed ping is returned as ErrConnectionFailed.
func (c *SQLConfig) Connect(ctx context.Context) (*sql.DB, error) {
	dsn := c.BuildDSN()
	if dsn == "" {
		return nil, ErrMissingConfig.New("DATABASE_URL")
	}

	db, err := sql.Open(c.Driver, dsn)
	if err != nil {
		return nil, ErrConnectionFailed.Wrap(err, err.Error())
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, ErrConnectionFailed.Wrap(err, err.Error())
	}

	return db, nil
}
