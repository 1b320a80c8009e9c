package storage

import (
	"context"
	"time"
)

// Storage abstracts persistence for plan catalogs, tariff snapshots and
// analysis runs, plus the account and policy tables behind the API.
type Storage interface {
	// Plan catalog snapshots, one per source, latest wins.
	SavePlanSnapshot(ctx context.Context, snap PlanSnapshot) error
	GetPlanSnapshot(ctx context.Context, source string) (*PlanSnapshot, error)
	ListPlanSources(ctx context.Context) ([]string, error)

	// Tariff snapshots.
	SaveTariffSnapshot(ctx context.Context, snap TariffSnapshot) error
	GetTariffSnapshot(ctx context.Context) (*TariffSnapshot, error)

	// Analysis runs.
	SaveAnalysisRun(ctx context.Context, run AnalysisRun) error
	GetAnalysisRun(ctx context.Context, id string) (*AnalysisRun, error)
	ListAnalysisRuns(ctx context.Context, userID string, limit int) ([]AnalysisRun, error)

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Users
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, user User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]User, error)

	// Tokens
	CreateToken(ctx context.Context, token Token) error
	GetToken(ctx context.Context, id string) (*Token, error)
	GetTokenByHash(ctx context.Context, hash string) (*Token, error)
	ListTokens(ctx context.Context, userID string) ([]Token, error)
	DeleteToken(ctx context.Context, id string) error
	UpdateTokenLastUsed(ctx context.Context, id string) error

	// Casbin policy rows
	LoadCasbinRules(ctx context.Context) ([]CasbinRule, error)
	AddCasbinRule(ctx context.Context, rule CasbinRule) error
	RemoveCasbinRule(ctx context.Context, rule CasbinRule) error

	// Email
	GetEmailConfig(ctx context.Context) (*EmailConfig, error)
	SaveEmailConfig(ctx context.Context, config EmailConfig) error

	// Scheduled jobs and cross-instance locking
	AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error)
	ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error)
	UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error

	Ping(ctx context.Context) error
	Close() error
}
