// Package accounting provides read-only connectivity to the MS SQL Server
// accounting warehouse. The warehouse mirrors the external bookkeeping
// system; this client is used by the payment sync job to pick up payments
// registered against invoice numbers outside the API.
package accounting

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb" // MS SQL Server driver
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fakturo/billing-api/internal/config"
)

const (
	// Retry configuration for connection attempts
	defaultMaxRetries     = 3
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 10 * time.Second
	defaultBackoffFactor  = 2.0

	defaultHealthCheckTimeout = 5 * time.Second
)

// ExternalPayment is a payment row as recorded in the accounting system
type ExternalPayment struct {
	InvoiceNumber string
	Amount        decimal.Decimal
	PaidAt        time.Time
	Reference     string
}

// Client provides read-only access to the accounting warehouse.
// A nil client is valid and reports itself as disabled.
type Client struct {
	db           *sql.DB
	config       *config.AccountingConfig
	logger       *zap.Logger
	queryTimeout time.Duration
}

// HealthStatus represents the health check result for the warehouse connection
type HealthStatus struct {
	Status     string        `json:"status"`
	Latency    time.Duration `json:"latency_ms"`
	Error      string        `json:"error,omitempty"`
	MaxOpen    int           `json:"max_open_connections"`
	Open       int           `json:"open_connections"`
	InUse      int           `json:"in_use"`
	Idle       int           `json:"idle"`
	WaitCount  int64         `json:"wait_count"`
	WaitTimeMs int64         `json:"wait_time_ms"`
}

// NewClient creates a new accounting client with the given configuration.
// Returns nil if the warehouse is not enabled or not configured; callers
// treat a nil client as a disabled feature, not an error.
func NewClient(cfg *config.AccountingConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("Accounting warehouse connection disabled")
		return nil, nil
	}

	if cfg.URL == "" || cfg.User == "" || cfg.Password == "" {
		logger.Warn("Accounting warehouse enabled but missing credentials, skipping connection",
			zap.Bool("url_present", cfg.URL != ""),
			zap.Bool("user_present", cfg.User != ""),
			zap.Bool("password_present", cfg.Password != ""),
		)
		return nil, nil
	}

	connStr, err := buildConnectionString(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	var db *sql.DB
	backoff := defaultInitialBackoff

	for attempt := 1; attempt <= defaultMaxRetries; attempt++ {
		logger.Info("Attempting accounting warehouse connection",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", defaultMaxRetries),
		)

		db, err = sql.Open("sqlserver", connStr)
		if err != nil {
			logger.Warn("Failed to open accounting warehouse connection",
				zap.Error(err),
				zap.Int("attempt", attempt),
			)
			if attempt < defaultMaxRetries {
				time.Sleep(backoff)
				backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
			}
			continue
		}

		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

		ctx, cancel := context.WithTimeout(context.Background(), defaultHealthCheckTimeout)
		err = db.PingContext(ctx)
		cancel()

		if err != nil {
			logger.Warn("Accounting warehouse ping failed",
				zap.Error(err),
				zap.Int("attempt", attempt),
			)
			_ = db.Close()
			if attempt < defaultMaxRetries {
				time.Sleep(backoff)
				backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
			}
			continue
		}

		logger.Info("Accounting warehouse connection established",
			zap.Int("attempts_taken", attempt),
		)

		return &Client{
			db:           db,
			config:       cfg,
			logger:       logger,
			queryTimeout: cfg.QueryTimeoutDuration(),
		}, nil
	}

	return nil, fmt.Errorf("failed to connect to accounting warehouse after %d attempts: %w", defaultMaxRetries, err)
}

// buildConnectionString constructs a SQL Server connection string from the
// config. URL format expected: host:port/database or host:port.
func buildConnectionString(cfg *config.AccountingConfig) (string, error) {
	urlParts := strings.SplitN(cfg.URL, "/", 2)
	hostPort := urlParts[0]
	database := ""
	if len(urlParts) > 1 {
		database = urlParts[1]
	}

	hostParts := strings.SplitN(hostPort, ":", 2)
	host := hostParts[0]
	port := "1433" // default SQL Server port
	if len(hostParts) > 1 {
		port = hostParts[1]
	}

	query := url.Values{}
	query.Add("encrypt", "true")
	query.Add("TrustServerCertificate", "false")
	query.Add("connection timeout", "30")
	if database != "" {
		query.Add("database", database)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%s", host, port),
		RawQuery: query.Encode(),
	}

	return u.String(), nil
}

// Close gracefully closes the warehouse connection
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}

	c.logger.Info("Closing accounting warehouse connection")

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close accounting warehouse connection: %w", err)
	}
	return nil
}

// IsEnabled returns true if the client is initialized and ready for queries
func (c *Client) IsEnabled() bool {
	return c != nil && c.db != nil
}

// HealthCheck pings the warehouse and returns pool statistics
func (c *Client) HealthCheck(ctx context.Context) *HealthStatus {
	if c == nil || c.db == nil {
		return &HealthStatus{
			Status: "disabled",
		}
	}

	start := time.Now()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultHealthCheckTimeout)
		defer cancel()
	}

	err := c.db.PingContext(ctx)
	latency := time.Since(start)

	stats := c.db.Stats()
	status := &HealthStatus{
		Latency:    latency,
		MaxOpen:    stats.MaxOpenConnections,
		Open:       stats.OpenConnections,
		InUse:      stats.InUse,
		Idle:       stats.Idle,
		WaitCount:  stats.WaitCount,
		WaitTimeMs: stats.WaitDuration.Milliseconds(),
	}

	if err != nil {
		c.logger.Warn("Accounting warehouse health check failed",
			zap.Error(err),
			zap.Duration("latency", latency),
		)
		status.Status = "unhealthy"
		status.Error = err.Error()
	} else {
		status.Status = "healthy"
	}

	return status
}

// PaymentsSince returns payments registered in the accounting system after
// the given time. Amounts are scanned as strings and parsed into decimals to
// avoid float conversion on monetary values.
func (c *Client) PaymentsSince(ctx context.Context, since time.Time) ([]ExternalPayment, error) {
	if c == nil || c.db == nil {
		return nil, fmt.Errorf("accounting client not initialized")
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	const query = `
		SELECT invoice_number, CAST(amount AS NVARCHAR(40)), paid_at, COALESCE(reference, '')
		FROM dbo.nxt_customer_payment
		WHERE paid_at > @p1
		ORDER BY paid_at ASC`

	start := time.Now()

	rows, err := c.db.QueryContext(ctx, query, since)
	if err != nil {
		c.logger.Error("Accounting payment query failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	var payments []ExternalPayment
	for rows.Next() {
		var (
			p         ExternalPayment
			amountRaw string
		)
		if err := rows.Scan(&p.InvoiceNumber, &amountRaw, &p.PaidAt, &p.Reference); err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		amount, err := decimal.NewFromString(amountRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q for invoice %s: %w", amountRaw, p.InvoiceNumber, err)
		}
		p.Amount = amount
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment rows: %w", err)
	}

	c.logger.Debug("Accounting payment query completed",
		zap.Int("rows_returned", len(payments)),
		zap.Duration("duration", time.Since(start)),
	)

	return payments, nil
}
