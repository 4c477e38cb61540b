// Package config implements types for handling the configuration for the app.
package config

import (
	"time"

	"github.com/slickfs/gateway/config/value"
	"github.com/slickfs/gateway/config/vars"

	haikunator "github.com/atrox/haikunatorgo/v2"
	"github.com/google/uuid"
)

// Config is a wrapper for Data
type Config struct {
	vars vars.Variables

	Data
}

// New returns a Config which is initialized with its default values
func New() *Config {
	config := &Config{}

	config.init()

	return config
}

func (d *Config) Get(name string) (string, error) {
	return d.vars.Get(name)
}

func (d *Config) Set(name, val string) error {
	return d.vars.Set(name, val)
}

// Clone returns a clone of a Config
func (d *Config) Clone() *Config {
	data := New()

	data.Data = d.Data

	data.vars.Transfer(&d.vars)

	return data
}

func (d *Config) init() {
	d.CreatedAt = time.Now()

	d.vars.Register(value.NewInt64(&d.Version, 1, 1), "version", "", "Configuration file layout version", true, false)
	d.vars.Register(value.NewString(&d.ID, uuid.New().String()), "id", "SLICK_ID", "ID for this instance", true, false)
	d.vars.Register(value.NewString(&d.Name, haikunator.New().Haikunate()), "name", "SLICK_NAME", "A human readable name for this instance", false, false)
	d.vars.Register(value.NewAddress(&d.Address, ":8042"), "address", "SLICK_ADDRESS", "HTTP listening address", true, false)

	// Log
	d.vars.Register(value.NewChoice(&d.Log.Level, "info", []string{"debug", "info", "warn", "error", "silent"}), "log.level", "SLICK_LOG_LEVEL", "Loglevel: silent, error, warn, info, debug", false, false)
	d.vars.Register(value.NewChoice(&d.Log.Format, "console", []string{"console", "json"}), "log.format", "SLICK_LOG_FORMAT", "Log format: console, json", false, false)

	// Storage
	d.vars.Register(value.NewChoice(&d.Storage.Type, "mem", []string{"mem", "disk", "s3"}), "storage.type", "SLICK_STORAGE_TYPE", "Where to store the file contents: mem, disk, s3", false, false)
	d.vars.Register(value.NewDir(&d.Storage.Dir, "./data/blobs"), "storage.dir", "SLICK_STORAGE_DIR", "Directory for the file contents if storage.type is disk", false, false)
	d.vars.Register(value.NewInt64(&d.Storage.ChunkSize, 64, 1), "storage.chunk_size_kbytes", "SLICK_STORAGE_CHUNK_SIZE_KBYTES", "Size of the buffers for delivering file contents", false, false)

	// Storage (S3)
	d.vars.Register(value.NewEndpoint(&d.Storage.S3.Endpoint, ""), "storage.s3.endpoint", "SLICK_STORAGE_S3_ENDPOINT", "Host and port of the S3 service", false, false)
	d.vars.Register(value.NewString(&d.Storage.S3.AccessKeyID, ""), "storage.s3.access_key_id", "SLICK_STORAGE_S3_ACCESS_KEY_ID", "Access key ID for the S3 service", false, false)
	d.vars.Register(value.NewString(&d.Storage.S3.SecretAccessKey, ""), "storage.s3.secret_access_key", "SLICK_STORAGE_S3_SECRET_ACCESS_KEY", "Secret access key for the S3 service", false, true)
	d.vars.Register(value.NewString(&d.Storage.S3.Region, ""), "storage.s3.region", "SLICK_STORAGE_S3_REGION", "Region of the bucket", false, false)
	d.vars.Register(value.NewString(&d.Storage.S3.Bucket, ""), "storage.s3.bucket", "SLICK_STORAGE_S3_BUCKET", "Bucket for the file contents", false, false)
	d.vars.Register(value.NewString(&d.Storage.S3.Prefix, ""), "storage.s3.prefix", "SLICK_STORAGE_S3_PREFIX", "Prefix for the object names in the bucket", false, false)
	d.vars.Register(value.NewBool(&d.Storage.S3.UseSSL, true), "storage.s3.use_ssl", "SLICK_STORAGE_S3_USE_SSL", "Connect to the S3 service with TLS", false, false)

	// Operations
	d.vars.Register(value.NewFile(&d.Operations.DB, ""), "operations.db", "SLICK_OPERATIONS_DB", "File for persisting the operation records, empty for keeping them in memory", false, false)
	d.vars.Register(value.NewInt(&d.Operations.Workers, 2, 1), "operations.workers", "SLICK_OPERATIONS_WORKERS", "Number of add operations that run concurrently", false, false)

	// API
	d.vars.Register(value.NewUint64(&d.API.MaxBandwidth, 0), "api.max_bandwidth_kbit", "SLICK_API_MAX_BANDWIDTH_KBIT", "Max. bandwidth for delivering a file in kbit/s, 0 for unlimited", false, false)
	d.vars.Register(value.NewInt64(&d.API.Events.Keepalive, 15, 0), "api.events.keepalive_sec", "SLICK_API_EVENTS_KEEPALIVE_SEC", "Seconds between keepalive comments on event streams, 0 disables them", false, false)

	// Metrics
	d.vars.Register(value.NewBool(&d.Metrics.Enable, true), "metrics.enable", "SLICK_METRICS_ENABLE", "Enable the prometheus endpoint /metrics", false, false)

	// Debug
	d.vars.Register(value.NewBool(&d.Debug.Profiling, false), "debug.profiling", "SLICK_DEBUG_PROFILING", "Enable profiling endpoint on /profiling", false, false)
	d.vars.Register(value.NewString(&d.Debug.AgentAddress, ""), "debug.gops", "SLICK_DEBUG_GOPS", "Listening address of the gops agent, empty to disable it", false, false)
}

// Merge merges the values of the known environment variables into the configuration
func (d *Config) Merge() {
	d.vars.Merge()
}

// Validate validates the current state of the Config for completeness and sanity. Errors are
// written to the log. Use resetLogs to indicate to reset the logs prior validation.
func (d *Config) Validate(resetLogs bool) {
	if resetLogs {
		d.vars.ResetLogs()
	}

	if d.Version != 1 {
		d.vars.Log("error", "version", "unknown configuration layout version")

		return
	}

	d.vars.Validate()

	// Individual sanity checks

	if d.Storage.Type == "disk" && len(d.Storage.Dir) == 0 {
		d.vars.Log("error", "storage.dir", "a directory is required if storage.type is disk")
	}

	if d.Storage.Type == "s3" {
		if len(d.Storage.S3.Endpoint) == 0 {
			d.vars.Log("error", "storage.s3.endpoint", "an endpoint is required if storage.type is s3")
		}

		if len(d.Storage.S3.Bucket) == 0 {
			d.vars.Log("error", "storage.s3.bucket", "a bucket is required if storage.type is s3")
		}
	}
}

// Messages calls for each log entry the provided callback. The level has the values 'error', 'warn', or 'info'.
// The name is the name of the configuration value, e.g. 'api.events.keepalive_sec'
func (d *Config) Messages(logger func(level string, v vars.Variable, message string)) {
	d.vars.Messages(logger)
}

// HasErrors returns whether there are some error messages in the log.
func (d *Config) HasErrors() bool {
	return d.vars.HasErrors()
}

// Overrides returns a list of configuration value names that have been overridden by an environment variable.
func (d *Config) Overrides() []string {
	return d.vars.Overrides()
}

// Variables calls fn for every configuration value.
func (d *Config) Variables(fn func(v vars.Variable)) {
	d.vars.Each(fn)
}
