// Package config handles wardenmq configuration loading: a single
// JSON document (§6) describing the MQTT broker, outbound mail/SMS
// gateways, the watch list, and the notification recipient lists.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/thornlake/wardenmq/internal/rules"
)

// DefaultSearchPaths returns the config file search order when no
// explicit path is given: config.json in the working directory, then a
// config.json next to the executable, then the container convention
// /config/config.json, then /etc/wardenmq.
func DefaultSearchPaths() []string {
	paths := []string{"config.json"}

	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), "config.json"))
	}

	paths = append(paths, "/config/config.json")
	paths = append(paths, "/etc/wardenmq/config.json")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty it must
// exist. Otherwise DefaultSearchPaths is searched in order and the
// first existing path is returned.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config is the root configuration document (§6).
type Config struct {
	MQTT             MQTTConfig         `json:"mqtt"`
	MessageService   MessageService     `json:"messageService"`
	WatchList        []rules.WatchSpec  `json:"watchList"`
	NotificationList []NotificationList `json:"notificationList"`
	LogLevel         string             `json:"logLevel,omitempty"`

	// watchListSet and notificationListSet record whether the
	// corresponding JSON key was present at all, so Validate can
	// distinguish "present but empty" from "missing" (§6: "If
	// notificationList or watchList is missing or not an array, the
	// process exits non-zero").
	watchListSet        bool
	notificationListSet bool
}

// MQTTConfig describes the broker connection (§6).
type MQTTConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// MessageService groups the outbound notification transports (§6).
type MessageService struct {
	Mail MailConfig `json:"mail"`
	SMS  SMSConfig  `json:"sms"`
}

// MailConfig describes the outbound SMTP transport used by the MAIL
// notification method (§4.6, §6).
type MailConfig struct {
	Host        string      `json:"host"`
	Port        int         `json:"port"`
	From        string      `json:"from"`
	IgnoreTLS   bool        `json:"ignoreTLS,omitempty"`
	RequireTLS  bool        `json:"requireTLS,omitempty"`
	Name        string      `json:"name,omitempty"`
	TLS         MailTLS     `json:"tls,omitempty"`
	Auth        MailAuth    `json:"auth,omitempty"`
}

// MailTLS configures TLS verification for the SMTP connection.
type MailTLS struct {
	ServerName         string `json:"servername,omitempty"`
	RejectUnauthorized *bool  `json:"rejectUnauthorized,omitempty"`
}

// MailAuth configures SMTP AUTH credentials.
type MailAuth struct {
	User string `json:"user,omitempty"`
	Pass string `json:"pass,omitempty"`
}

// SMSConfig describes the outbound SMS gateway used by the SMS
// notification method. SMS is optional: if Enabled is false or
// credentials are missing, SMS sends log a warn line and return
// (§4.6).
type SMSConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	SID     string `json:"sid,omitempty"`
	Token   string `json:"token,omitempty"`
	Service string `json:"service,omitempty"`
}

// Configured reports whether the SMS gateway has the credentials it
// needs to actually send.
func (c SMSConfig) Configured() bool {
	return c.Enabled && c.SID != "" && c.Token != "" && c.Service != ""
}

// NotificationList is one recipient list, keyed by Id (the watcher's
// listId, §4.6).
type NotificationList struct {
	ID         string                   `json:"id"`
	Recipients []NotificationRecipient  `json:"recipients"`
}

// NotificationRecipient is one entry in a NotificationList (§3, §6).
type NotificationRecipient struct {
	Type        string `json:"type"` // LOG | MAIL | SMS
	Recipient   string `json:"recipient"`
	Enabled     bool   `json:"enabled"`
	MinSeverity string `json:"minSeverity,omitempty"`
}

// UnmarshalJSON tracks whether watchList/notificationList were
// present in the source document at all (a JSON null counts as
// missing), independent of whether they decoded to a non-nil slice, so
// Validate can reject a missing list. A list that is present but not
// an array fails here, as a "not an array" decode error.
func (c *Config) UnmarshalJSON(data []byte) error {
	type alias Config
	aux := struct {
		WatchList        json.RawMessage `json:"watchList"`
		NotificationList json.RawMessage `json:"notificationList"`
		*alias
	}{alias: (*alias)(c)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if len(aux.WatchList) > 0 && string(aux.WatchList) != "null" {
		c.watchListSet = true
		if err := json.Unmarshal(aux.WatchList, &c.WatchList); err != nil {
			return fmt.Errorf("watchList: not an array: %w", err)
		}
	}
	if len(aux.NotificationList) > 0 && string(aux.NotificationList) != "null" {
		c.notificationListSet = true
		if err := json.Unmarshal(aux.NotificationList, &c.NotificationList); err != nil {
			return fmt.Errorf("notificationList: not an array: %w", err)
		}
	}
	return nil
}

// Load reads the JSON configuration file at path, expands environment
// variables, applies defaults for any unset fields, and validates the
// result. After Load returns successfully, all fields are usable
// without additional nil/empty checks.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g. ${MQTT_PASSWORD}) before
	// decoding, so committed config files can reference secrets.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := json.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, &DecodeError{Err: err}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Err: err}
	}

	return cfg, nil
}

// applyDefaults fills in zero-value fields with sensible defaults.
// Called automatically by Load.
func (c *Config) applyDefaults() {
	if c.MQTT.Port == 0 {
		c.MQTT.Port = 1883
	}
	if c.MessageService.Mail.Port == 0 {
		c.MessageService.Mail.Port = 587
	}
	for i := range c.NotificationList {
		for j := range c.NotificationList[i].Recipients {
			if c.NotificationList[i].Recipients[j].MinSeverity == "" {
				c.NotificationList[i].Recipients[j].MinSeverity = "info"
			}
		}
	}
}

// validRecipientTypes enumerates the recipient type values §6
// recognizes. An unknown type aborts startup.
var validRecipientTypes = map[string]bool{"LOG": true, "MAIL": true, "SMS": true}

// Validate checks that the configuration is internally consistent. It
// runs after applyDefaults, so it can assume defaults are populated.
// Returns the first error found, or nil.
func (c *Config) Validate() error {
	if !c.watchListSet {
		return fmt.Errorf("watchList is missing or not an array")
	}
	if !c.notificationListSet {
		return fmt.Errorf("notificationList is missing or not an array")
	}
	if c.MQTT.Host == "" {
		return fmt.Errorf("mqtt.host is required")
	}
	if c.MQTT.Port < 1 || c.MQTT.Port > 65535 {
		return fmt.Errorf("mqtt.port %d out of range (1-65535)", c.MQTT.Port)
	}
	for _, list := range c.NotificationList {
		for _, r := range list.Recipients {
			if !validRecipientTypes[r.Type] {
				return fmt.Errorf("notificationList %q: unknown recipient type %q", list.ID, r.Type)
			}
			if _, err := severityRank(r.MinSeverity); err != nil {
				return fmt.Errorf("notificationList %q: %w", list.ID, err)
			}
		}
	}
	if c.LogLevel != "" {
		if _, err := ParseLogLevel(c.LogLevel); err != nil {
			return err
		}
	}
	return nil
}

// severityRank validates a severity name against the total order of
// §4.6 (debug < info < warning < critical). It is duplicated here
// (rather than imported from internal/notify) to keep config
// validation free of a dependency on the notification package.
func severityRank(s string) (int, error) {
	switch s {
	case "", "debug":
		return 0, nil
	case "info":
		return 1, nil
	case "warning":
		return 2, nil
	case "critical":
		return 3, nil
	default:
		return 0, fmt.Errorf("unknown severity %q", s)
	}
}

// ConfigError wraps a configuration validation failure (§7).
type ConfigError struct{ Err error }

func (e *ConfigError) Error() string { return fmt.Sprintf("config: %v", e.Err) }
func (e *ConfigError) Unwrap() error  { return e.Err }

// DecodeError wraps a JSON decoding failure (§7).
type DecodeError struct{ Err error }

func (e *DecodeError) Error() string { return fmt.Sprintf("config: decode: %v", e.Err) }
func (e *DecodeError) Unwrap() error  { return e.Err }
