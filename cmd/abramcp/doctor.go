package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"abramcp/internal/abra"
	"abramcp/internal/config"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

func doctorCmd() *cobra.Command {
	var skipConnect bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on the installation",
		Long: `Verifies that the configuration, the Abra Gen connection, and the audit
database are correctly set up. Reports pass/fail for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			fmt.Printf("abramcp doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. Config source
			var cfg *config.Config
			var err error
			if _, statErr := os.Stat(cfgPath); statErr != nil {
				cfg, err = config.FromEnv()
				if err != nil {
					printFail("Config", fmt.Sprintf("no file at %s and environment incomplete: %v", cfgPath, err))
					failed++
					fmt.Printf("\nRun 'abramcp init' or set ABRA_HOST/ABRA_DATABASE/ABRA_USERNAME/ABRA_PASSWORD.\n")
					return fmt.Errorf("1 check(s) failed")
				}
				printPass("Config", "from environment (no config file)")
				passed++
			} else {
				printPass("Config file", cfgPath)
				passed++

				cfg, err = config.Load(cfgPath)
				if err != nil {
					printFail("Config validation", err.Error())
					failed++
					fmt.Printf("\nResults: %d passed, %d warnings, %d failed\n", passed, warned, failed)
					return fmt.Errorf("%d check(s) failed", failed)
				}
				printPass("Config validation", "valid")
				passed++
			}

			// 2. Abra connectivity: fetch one firm record.
			if skipConnect {
				printWarn("Abra connection", "skipped (--skip-connect)")
				warned++
			} else if err := checkAbra(cfg); err != nil {
				printFail("Abra connection", err.Error())
				failed++
			} else {
				printPass("Abra connection", cfg.Abra.BaseURL())
				passed++
			}

			// 3. Audit database writable
			if cfg.Audit.Enabled {
				if err := checkDatabase(cfg.Audit.DBPath); err != nil {
					printFail("Audit database", err.Error())
					failed++
				} else {
					printPass("Audit database", cfg.Audit.DBPath)
					passed++
				}
			} else {
				printWarn("Audit database", "disabled")
				warned++
			}

			// 4. HTTP port available when serving over HTTP
			if cfg.Server.Transport == "http" {
				if err := checkPort(cfg.Server.Port); err != nil {
					printWarn("HTTP port", fmt.Sprintf("port %d may be in use: %v", cfg.Server.Port, err))
					warned++
				} else {
					printPass("HTTP port", fmt.Sprintf(":%d available", cfg.Server.Port))
					passed++
				}
			}

			// 5. Log file writable
			if cfg.General.LogFile != "" {
				if err := os.MkdirAll(filepath.Dir(cfg.General.LogFile), 0o755); err != nil {
					printWarn("Log file", fmt.Sprintf("cannot create log directory: %v", err))
					warned++
				} else {
					printPass("Log file", cfg.General.LogFile)
					passed++
				}
			}

			// Summary
			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Printf("\nPlease fix the failed checks before serving.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			if warned > 0 {
				fmt.Printf("\nabramcp should work but consider fixing the warnings.\n")
			} else {
				fmt.Printf("\nAll checks passed! abramcp is ready to serve.\n")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipConnect, "skip-connect", false, "skip the live Abra API connectivity check")
	return cmd
}

// checkAbra performs a minimal authenticated query against the firms
// collection.
func checkAbra(cfg *config.Config) error {
	client := abra.NewClient(abra.ClientConfig{
		Host:     cfg.Abra.Host,
		Database: cfg.Abra.Database,
		Username: cfg.Abra.Username,
		Password: cfg.Abra.Password,
		Timeout:  10 * time.Second,
		Logger:   logger,
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := client.Query(ctx, "firms", abra.Query{Select: "ID", Take: abra.Int(1)})
	if err != nil {
		if abra.IsAuth(err) {
			return fmt.Errorf("authentication rejected, check abra.username/abra.password: %w", err)
		}
		return err
	}
	return nil
}

func checkDatabase(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("cannot create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("cannot open: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("cannot ping: %w", err)
	}

	// Try a write.
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS _doctor_test (id INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	db.ExecContext(ctx, "DROP TABLE IF EXISTS _doctor_test")

	return nil
}

func checkPort(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	ln.Close()
	return nil
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-20s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-20s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-20s %s\n", check, detail)
}
