package service

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestIsConnectivityError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "bad conn", err: fmt.Errorf("exec: %w", driver.ErrBadConn), want: true},
		{name: "invalid conn", err: mysql.ErrInvalidConn, want: true},
		{name: "cancelled", err: context.Canceled, want: true},
		{name: "dial", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, want: true},
		{name: "deadlock", err: &mysql.MySQLError{Number: 1213}, want: false},
		{name: "query timeout", err: context.DeadlineExceeded, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectivityError(tt.err); got != tt.want {
				t.Fatalf("isConnectivityError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
