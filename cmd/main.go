package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/kirsrus/liftmon/controller/analysis"
	"github.com/kirsrus/liftmon/controller/collector"
	"github.com/kirsrus/liftmon/controller/manager"
	"github.com/kirsrus/liftmon/model"
	"github.com/kirsrus/liftmon/pkg/config"
	"github.com/kirsrus/liftmon/pkg/logger"
	"github.com/kirsrus/liftmon/service"
	abnormalSvcMod "github.com/kirsrus/liftmon/service/abnormal"
	feedSvcMod "github.com/kirsrus/liftmon/service/feed"
	simulatorSvcMod "github.com/kirsrus/liftmon/service/simulator"
	webSvcMod "github.com/kirsrus/liftmon/service/web"
	dbStoreMod "github.com/kirsrus/liftmon/store/db"
	stateStoreMod "github.com/kirsrus/liftmon/store/state"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

var (
	cfg *config.Config
	log *logrus.Logger
)

func init() {
	cfg = config.Get()
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.WarnLevel
	}
	log = logger.GetWithConfig(logger.Config{
		File:    filepath.Join(cfg.Log.Path, cfg.Log.Filename),
		Level:   level,
		Console: cfg.Log.Console,
	})
}

func main() {

	err := run()
	if err != nil {
		fmt.Printf("ОШИБКА: в процессе работы произошла ошибка: %v\n", err)
		fmt.Printf("Для подробностей смотри лог: %s\n", filepath.Join(cfg.Log.Path, cfg.Log.Filename))
		log.Fatal(errors.ErrorStack(err))
	}
}

func run() error {
	// Отлавливаем сигнал завершения работы программы
	chanInterrupt := make(chan os.Signal, 1)
	signal.Notify(chanInterrupt, os.Interrupt)

	done := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// region Журнал аномалий

	journal, err := dbStoreMod.NewDb(ctx, &dbStoreMod.ConfigDb{
		Log:    log,
		DbFile: filepath.Join(cfg.Db.Path, cfg.Db.Filename),
	})
	if err != nil {
		return errors.Trace(err)
	}
	defer func() { _ = journal.Close() }()

	// endregion
	// region Состояние и симуляция лифта

	elevatorID := cfg.Collector.ElevatorID
	state := stateStoreMod.NewState(simulatorSvcMod.InitialState(elevatorID, cfg.Simulator.FloorCount, simulatorSvcMod.DefaultSystems))

	simulatorSvc, err := simulatorSvcMod.NewSimulator(ctx, state, &simulatorSvcMod.ConfigSimulator{
		Log:                  log,
		Interval:             cfg.Simulator.Interval,
		ExcursionProbability: cfg.Simulator.ExcursionProbability,
		FaultProbability:     cfg.Simulator.FaultProbability,
		Seed:                 cfg.Simulator.Seed,
	})
	if err != nil {
		return errors.Trace(err)
	}

	// endregion
	// region Сервер учёта аномалий и лента

	abnormalSvc, err := abnormalSvcMod.NewAbnormal(&abnormalSvcMod.ConfigAbnormal{
		Log:     log,
		BaseURL: cfg.Backend.URL,
		Timeout: cfg.Backend.TimeOut,
	})
	if err != nil {
		return errors.Trace(err)
	}

	var feedSvc service.FeedSvc
	if cfg.Redis.Addr != "" {
		feedSvc, err = feedSvcMod.NewRedis(ctx, &feedSvcMod.ConfigRedis{
			Log:      log,
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return errors.Trace(err)
		}
		defer func() { _ = feedSvc.Close() }()
	}

	// endregion
	// region Сборщик аномалий и анализ

	anomalies := make(chan []model.AnomalyRecord, manager.AnomalyBuffer)
	collectorCtl, err := collector.NewCollector(ctx, state, abnormalSvc, &collector.ConfigCollector{
		Log:           log,
		ElevatorID:    elevatorID,
		Interval:      cfg.Collector.Interval,
		BatchSize:     cfg.Collector.BatchSize,
		FlushInterval: cfg.Collector.FlushInterval,
		SendTimeout:   cfg.Collector.SendTimeout,
		Journal:       journal,
		Observer: func(records []model.AnomalyRecord) {
			select {
			case anomalies <- records:
			default:
				log.Warnf("очередь рассылки переполнена, пачка из %d аномалий пропущена", len(records))
			}
		},
	})
	if err != nil {
		return errors.Trace(err)
	}

	analysisCtl, err := analysis.NewAnalysis(ctx, abnormalSvc, simulatorSvc, &analysis.ConfigAnalysis{
		Log:           log,
		ElevatorID:    elevatorID,
		CacheDuration: cfg.Backend.AnalysisCache,
	})
	if err != nil {
		return errors.Trace(err)
	}

	// endregion
	// region Контроллер WEB

	webSvc, err := webSvcMod.NewWeb(ctx, state, journal, &webSvcMod.ConfigWeb{
		Log:       log,
		WebPort:   cfg.Http.Port,
		AssetsDir: cfg.Http.AssetsDir,
		Abnormal:  abnormalSvc,
		Analysis:  analysisCtl,
		Collector: collectorCtl,
		Feed:      feedSvc,
	})
	if err != nil {
		return errors.Trace(err)
	}

	webSvc.Api("/api")
	webSvc.Metrics("/metrics")
	webSvc.AnomalyFeed("/ws/anomalies")
	webSvc.Static("/")

	// endregion
	// region Менеджер управления всеми

	managerCtl, err := manager.NewManager(ctx, &manager.ConfigManager{
		Log:               log,
		ElevatorID:        elevatorID,
		SimulatorSvc:      simulatorSvc,
		CollectorCtl:      collectorCtl,
		WebSvc:            webSvc,
		FeedSvc:           feedSvc,
		Journal:           journal,
		Anomalies:         anomalies,
		CleanBasePeriod:   time.Hour * 24 * time.Duration(cfg.Db.ArchiveDays),
		CleanBaseInterval: time.Minute * time.Duration(cfg.Db.CleanArchiveInterval),
	})
	if err != nil {
		return errors.Trace(err)
	}

	go func() {
		done <- managerCtl.Serve()
	}()

	// endregion

	// Процесс завершения работы
	select {
	case err := <-done:
		return errors.Trace(err)
	case <-chanInterrupt:
		log.Info("получена по каналу interrupt команда на завершение работы программы")
		cancel()
		select {
		case err := <-done:
			return errors.Trace(err)
		case <-time.After(shutdownTimeout):
			log.Warn("службы не завершились вовремя")
			return nil
		}
	}
}
