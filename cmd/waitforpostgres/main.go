package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/postboard/postboard/internal/storage"
)

func main() {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "TEST_POSTGRES_DSN or DATABASE_URL is required")
		os.Exit(2)
	}
	driver := strings.ToLower(os.Getenv("DATABASE_DRIVER"))
	if driver == "" {
		driver = "postgres"
	}

	timeout := 60 * time.Second
	if raw := os.Getenv("WAIT_FOR_POSTGRES_TIMEOUT_SEC"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			fmt.Fprintf(os.Stderr, "invalid WAIT_FOR_POSTGRES_TIMEOUT_SEC: %q\n", raw)
			os.Exit(2)
		}
		timeout = time.Duration(secs) * time.Second
	}

	deadline := time.Now().Add(timeout)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		db, err := storage.OpenSQL(ctx, driver, dsn)
		cancel()
		if err == nil {
			_ = db.Close()
			fmt.Println("postgres ready")
			return
		}
		if time.Now().After(deadline) {
			fmt.Fprintf(os.Stderr, "postgres not ready within %s: %v\n", timeout, err)
			os.Exit(1)
		}
		time.Sleep(2 * time.Second)
	}
}
