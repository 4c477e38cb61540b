package config

import "time"

// Data is the actual configuration data for the app
type Data struct {
	CreatedAt time.Time `json:"created_at"`
	LoadedAt  time.Time `json:"-"`
	Version   int64     `json:"version" jsonschema:"minimum=1,maximum=1"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Log       struct {
		Level  string `json:"level" enums:"debug,info,warn,error,silent" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,enum=silent"`
		Format string `json:"format" enums:"console,json" jsonschema:"enum=console,enum=json"`
	} `json:"log"`
	Storage struct {
		Type      string `json:"type" enums:"mem,disk,s3" jsonschema:"enum=mem,enum=disk,enum=s3"`
		Dir       string `json:"dir"`
		ChunkSize int64  `json:"chunk_size_kbytes"`
		S3        struct {
			Endpoint        string `json:"endpoint"`
			AccessKeyID     string `json:"access_key_id"`
			SecretAccessKey string `json:"secret_access_key"`
			Region          string `json:"region"`
			Bucket          string `json:"bucket"`
			Prefix          string `json:"prefix"`
			UseSSL          bool   `json:"use_ssl"`
		} `json:"s3"`
	} `json:"storage"`
	Operations struct {
		DB      string `json:"db"`
		Workers int    `json:"workers"`
	} `json:"operations"`
	API struct {
		MaxBandwidth uint64 `json:"max_bandwidth_kbit"`
		Events       struct {
			Keepalive int64 `json:"keepalive_sec"`
		} `json:"events"`
	} `json:"api"`
	Metrics struct {
		Enable bool `json:"enable"`
	} `json:"metrics"`
	Debug struct {
		Profiling    bool   `json:"profiling"`
		AgentAddress string `json:"gops"`
	} `json:"debug"`
}
