package app

import (
	"context"
	"log"
	"os"
	"time"

	aiclient "peer-match/internal/infrastructure/ai"
	"peer-match/internal/config"
	"peer-match/internal/database"
	"peer-match/internal/database/migration"
	dbpostgres "peer-match/internal/database/postgres"
	"peer-match/internal/infrastructure/cache"
	repopostgres "peer-match/internal/infrastructure/persistence/postgres"
	"peer-match/internal/tasks"
	"peer-match/internal/usecase"
)

const (
	taskWorkers    = 2
	taskQueueDepth = 256
)

// Container owns every long-lived dependency: the database pool, the
// cache, the background task pool and the wired usecases.
type Container struct {
	Config config.Config
	DB     database.DB
	Cache  *cache.Redis
	Tasks  *tasks.Pool

	Profiles *usecase.Profiles
	Matching *usecase.Matching

	tasksCancel context.CancelFunc
}

func NewContainer(cfg config.Config) (*Container, error) {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	runner := migration.Runner{Dir: cfg.Database.MigrationsDir}
	if err := runner.Run(ctx, db.SQLDB()); err != nil {
		_ = db.Close()
		return nil, err
	}

	redis := cache.NewRedis(logger)

	pool := tasks.NewPool(taskWorkers, taskQueueDepth, logger)
	tasksCtx, tasksCancel := context.WithCancel(context.Background())
	pool.Run(tasksCtx)

	repo := repopostgres.NewProfileRepository(db)
	matching := usecase.NewMatchingUsecase(repo, pool, redis, logger)

	provider := aiclient.NewClient(cfg.AI)
	profiles := usecase.NewProfileUsecase(repo, provider, provider, matching, redis, logger)

	return &Container{
		Config:      cfg,
		DB:          db,
		Cache:       redis,
		Tasks:       pool,
		Profiles:    profiles,
		Matching:    matching,
		tasksCancel: tasksCancel,
	}, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Tasks != nil {
		c.Tasks.Close()
	}
	if c.tasksCancel != nil {
		c.tasksCancel()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
