package storage

import "time"

// PlanSnapshot stores a fetched plan catalog for a source. Payload is the
// raw catalog JSON exactly as the source served it, so extraction rules can
// be re-run against old catalogs without refetching.
type PlanSnapshot struct {
	ID        uint      `json:"-" gorm:"primaryKey;column:id"`
	Source    string    `json:"source" gorm:"column:source"`
	Payload   []byte    `json:"payload" gorm:"column:payload"`
	PlanCount int       `json:"plan_count" gorm:"column:plan_count"`
	FetchedAt time.Time `json:"fetched_at" gorm:"column:fetched_at"`
}

// TariffSnapshot stores one parsed regulated tariff. Source records where
// the numbers came from ("iec-pdf", "manual", "default").
type TariffSnapshot struct {
	ID        uint      `json:"-" gorm:"primaryKey;column:id"`
	Source    string    `json:"source" gorm:"column:source"`
	Payload   []byte    `json:"payload" gorm:"column:payload"`
	FetchedAt time.Time `json:"fetched_at" gorm:"column:fetched_at"`
}

// AnalysisRun records one comparison: who ran it, the shape of the uploaded
// series, and the full ranked result payload.
type AnalysisRun struct {
	ID           string    `json:"id" gorm:"primaryKey;column:id"`
	UserID       string    `json:"user_id,omitempty" gorm:"column:user_id"`
	Readings     int       `json:"readings" gorm:"column:readings"`
	TotalKWh     float64   `json:"total_kwh" gorm:"column:total_kwh"`
	TotalPlans   int       `json:"total_plans" gorm:"column:total_plans"`
	ValidPlans   int       `json:"valid_plans" gorm:"column:valid_plans"`
	InvalidPlans int       `json:"invalid_plans" gorm:"column:invalid_plans"`
	Result       []byte    `json:"result" gorm:"column:result"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at"`
}

// Setting is a single key/value configuration row.
type Setting struct {
	Key       string    `json:"key" gorm:"primaryKey;column:key"`
	Value     string    `json:"value" gorm:"column:value"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// User represents a registered user in the system.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;column:id"`
	Username     string    `json:"username" gorm:"unique;column:username"`
	FirstName    string    `json:"first_name" gorm:"column:first_name"`
	LastName     string    `json:"last_name" gorm:"column:last_name"`
	Email        string    `json:"email" gorm:"column:email"`
	PasswordHash string    `json:"-" gorm:"column:password_hash"`
	Role         string    `json:"role" gorm:"column:role"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// Token represents an API access token.
type Token struct {
	ID         string     `json:"id" gorm:"primaryKey;column:id"`
	UserID     string     `json:"user_id" gorm:"column:user_id"`
	Name       string     `json:"name" gorm:"column:name"`
	TokenHash  string     `json:"-" gorm:"column:token_hash"`
	Role       string     `json:"role" gorm:"column:role"`
	CreatedAt  time.Time  `json:"created_at" gorm:"column:created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty" gorm:"column:expires_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" gorm:"column:last_used_at"`
}

// CasbinRule represents a policy rule for RBAC.
type CasbinRule struct {
	ID    uint   `gorm:"primaryKey"`
	PType string `json:"ptype" gorm:"column:ptype"`
	V0    string `json:"v0" gorm:"column:v0"`
	V1    string `json:"v1" gorm:"column:v1"`
	V2    string `json:"v2" gorm:"column:v2"`
	V3    string `json:"v3" gorm:"column:v3"`
	V4    string `json:"v4" gorm:"column:v4"`
	V5    string `json:"v5" gorm:"column:v5"`
}

// EmailConfig holds configuration for email notifications.
type EmailConfig struct {
	ID          string    `json:"id" gorm:"primaryKey;column:id"`
	Provider    string    `json:"provider" gorm:"column:provider"` // "smtp" or "sendgrid"
	Host        string    `json:"host,omitempty" gorm:"column:host"`
	Port        int       `json:"port,omitempty" gorm:"column:port"`
	Username    string    `json:"username,omitempty" gorm:"column:username"`
	Password    string    `json:"password,omitempty" gorm:"column:password"`
	FromAddress string    `json:"from_address" gorm:"column:from_address"`
	FromName    string    `json:"from_name" gorm:"column:from_name"`
	APIKey      string    `json:"api_key,omitempty" gorm:"column:api_key"`
	Encryption  string    `json:"encryption,omitempty" gorm:"column:encryption"` // "none", "ssl", "tls"
	Enabled     bool      `json:"enabled" gorm:"column:enabled"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// ScheduledJob records the last outcome of a recurring job.
type ScheduledJob struct {
	Name           string    `gorm:"primaryKey;column:name"`
	LastRunAt      time.Time `gorm:"column:last_run_at"`
	LastDurationMs int64     `gorm:"column:last_duration_ms"`
	LastSuccess    int       `gorm:"column:last_success"`
	LastError      string    `gorm:"column:last_error"`
}
