package logstore

import (
	"time"

	"github.com/trezcool/studydash/core"
)

const (
	DefaultMaxLogs       = 100
	DefaultStorageKey    = "error_logs"
	DefaultSessionKey    = "error_session_id"
	DefaultRemoteTimeout = 10 * time.Second
)

// Config is supplied once at construction and can be patched with Store.UpdateConfig.
type Config struct {
	MaxLogs           int           `json:"maxLogs"`
	EnableConsoleLog  bool          `json:"enableConsoleLog"`
	EnablePersistence bool          `json:"enablePersistence"`
	EnableRemoteSink  bool          `json:"enableRemoteSink"`
	RemoteEndpoint    string        `json:"remoteEndpoint,omitempty"`
	APIKey            string        `json:"-"`
	RemoteTimeout     time.Duration `json:"remoteTimeout"`
	StorageKey        string        `json:"storageKey"`
	SessionKey        string        `json:"sessionKey"`
}

// ConfigPatch holds the fields to merge onto a Config; nil fields are left untouched.
type ConfigPatch struct {
	MaxLogs           *int
	EnableConsoleLog  *bool
	EnablePersistence *bool
	EnableRemoteSink  *bool
	RemoteEndpoint    *string
	APIKey            *string
	RemoteTimeout     *time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxLogs:           DefaultMaxLogs,
		EnableConsoleLog:  true,
		EnablePersistence: true,
		RemoteTimeout:     DefaultRemoteTimeout,
		StorageKey:        DefaultStorageKey,
		SessionKey:        DefaultSessionKey,
	}
}

// NewConfig projects the logs section of the application config.
func NewConfig(conf *core.Config) Config {
	lc := conf.Logs
	return Config{
		MaxLogs:           lc.MaxLogs,
		EnableConsoleLog:  lc.EnableConsoleLog,
		EnablePersistence: lc.EnablePersistence,
		EnableRemoteSink:  lc.EnableRemoteSink,
		RemoteEndpoint:    lc.RemoteEndpoint,
		APIKey:            lc.APIKey,
		RemoteTimeout:     lc.RemoteTimeout,
		StorageKey:        lc.StorageKey,
		SessionKey:        lc.SessionKey,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxLogs <= 0 {
		c.MaxLogs = DefaultMaxLogs
	}
	if c.RemoteTimeout <= 0 {
		c.RemoteTimeout = DefaultRemoteTimeout
	}
	if c.StorageKey == "" {
		c.StorageKey = DefaultStorageKey
	}
	if c.SessionKey == "" {
		c.SessionKey = DefaultSessionKey
	}
	return c
}

func (c Config) merge(p ConfigPatch) Config {
	if p.MaxLogs != nil {
		c.MaxLogs = *p.MaxLogs
	}
	if p.EnableConsoleLog != nil {
		c.EnableConsoleLog = *p.EnableConsoleLog
	}
	if p.EnablePersistence != nil {
		c.EnablePersistence = *p.EnablePersistence
	}
	if p.EnableRemoteSink != nil {
		c.EnableRemoteSink = *p.EnableRemoteSink
	}
	if p.RemoteEndpoint != nil {
		c.RemoteEndpoint = *p.RemoteEndpoint
	}
	if p.APIKey != nil {
		c.APIKey = *p.APIKey
	}
	if p.RemoteTimeout != nil {
		c.RemoteTimeout = *p.RemoteTimeout
	}
	return c.withDefaults()
}
