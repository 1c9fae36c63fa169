package utils

import (
	"fmt"
	"net"
	"time"

	"github.com/localnerve/bibliodb/internal/config"
)

// PingDatabase checks that the configured database server accepts TCP
// connections. File databases (SQLite) have nothing to dial.
func PingDatabase(cfg *config.Config) error {
	if cfg.IsSQLite() {
		return nil
	}
	return dial(net.JoinHostPort(cfg.DBHost, cfg.DBPort), 1500*time.Millisecond)
}

func dial(address string, timeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	defer conn.Close()

	return nil
}
