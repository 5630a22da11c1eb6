package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/qs3c/ipl_server/config"
	"github.com/qs3c/ipl_server/internal/database"
	"github.com/qs3c/ipl_server/internal/pkg/billing"
	"github.com/qs3c/ipl_server/internal/pkg/clock"
	"github.com/qs3c/ipl_server/internal/pkg/lock"
	"github.com/qs3c/ipl_server/internal/pkg/queue"
	"github.com/qs3c/ipl_server/internal/repository"
	"github.com/qs3c/ipl_server/internal/service"
)

// Services 命令行用到的服务
type Services struct {
	Fees         *service.FeeService
	Ledger       *service.LedgerService
	DefaultRates billing.RateTable
}

// Opener 按配置文件构造服务，返回的 close 释放连接
type Opener func(configPath string) (*Services, func(), error)

// NewRootCmd 构造 feectl 命令树
func NewRootCmd(open Opener) *cobra.Command {
	var (
		configPath string
		svc        *Services
		closeFn    func()
	)

	root := &cobra.Command{
		Use:           "feectl",
		Short:         "IPL fee administration",
		Long:          "feectl generates, regenerates and rolls back monthly IPL fees against the same database as the server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			var err error
			svc, closeFn, err = open(configPath)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if closeFn != nil {
				closeFn()
			}
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")

	get := func() *Services { return svc }
	root.AddCommand(newGenerateCmd(get))
	root.AddCommand(newRegenerateCmd(get))
	root.AddCommand(newRollbackCmd(get))
	root.AddCommand(newHistoryCmd(get))
	root.AddCommand(newVersionsCmd(get))

	return root
}

// Execute 运行 feectl
func Execute(version string) error {
	root := NewRootCmd(OpenServices)
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// OpenServices 连接 MySQL；配置了 Redis 时与服务端共用按月锁和通知队列
func OpenServices(configPath string) (*Services, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	closers := []func(){func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}}

	clk := clock.New(cfg.Billing.TimezoneOffsetHours)
	var locker lock.Locker = lock.NewLocalLocker()
	var notifier service.Notifier
	if cfg.Redis.Host != "" {
		rdb, err := database.NewRedis(&cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		closers = append(closers, func() { rdb.Close() })
		locker = lock.NewRedisLocker(rdb, time.Duration(cfg.Billing.LockTTLSeconds)*time.Second)
		notifier = service.NewQueueNotifier(queue.NewQueue(rdb, cfg.Queue.NotificationQueue))
	}

	fees := service.NewFeeService(repository.NewTxManager(db), repository.NewFeeRepository(db), locker, clk, cfg)
	if notifier != nil {
		fees.SetNotifier(notifier)
	}

	svc := &Services{
		Fees:         fees,
		Ledger:       service.NewLedgerService(repository.NewAuditRepository(db)),
		DefaultRates: billing.FromInts(cfg.Billing.DefaultRates),
	}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return svc, closeAll, nil
}
