package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFindConfig_Explicit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.json")
	os.WriteFile(path, []byte("{}"), 0600)

	got, err := FindConfig(path)
	if err != nil {
		t.Fatalf("FindConfig(%q) error: %v", path, err)
	}
	if got != path {
		t.Errorf("FindConfig(%q) = %q, want %q", path, got, path)
	}
}

func TestFindConfig_ExplicitMissing(t *testing.T) {
	_, err := FindConfig("/nonexistent/config.json")
	if err == nil {
		t.Fatal("FindConfig with missing explicit path should error")
	}
}

func TestFindConfig_CWD(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	os.WriteFile(path, []byte("{}"), 0600)

	orig, _ := os.Getwd()
	os.Chdir(dir)
	defer os.Chdir(orig)

	got, err := FindConfig("")
	if err != nil {
		t.Fatalf("FindConfig(\"\") error: %v", err)
	}
	if got != "config.json" {
		t.Errorf("FindConfig(\"\") = %q, want %q", got, "config.json")
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	os.WriteFile(path, []byte(`{
		"mqtt": {"host": "broker.local", "port": 1883, "password": "${WARDENMQ_TEST_PASSWORD}"},
		"messageService": {"mail": {"host": "smtp.local", "from": "a@b.c"}, "sms": {}},
		"watchList": [],
		"notificationList": []
	}`), 0600)
	os.Setenv("WARDENMQ_TEST_PASSWORD", "secret123")
	defer os.Unsetenv("WARDENMQ_TEST_PASSWORD")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.MQTT.Password != "secret123" {
		t.Errorf("password = %q, want %q", cfg.MQTT.Password, "secret123")
	}
}

func TestLoad_DecodeError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	os.WriteFile(path, []byte("not json"), 0600)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load with invalid JSON should error")
	}
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Errorf("Load error = %v (%T), want *DecodeError", err, err)
	}
}

func TestLoad_MissingWatchList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	os.WriteFile(path, []byte(`{
		"mqtt": {"host": "broker.local"},
		"messageService": {"mail": {"host": "smtp.local", "from": "a@b.c"}, "sms": {}},
		"notificationList": []
	}`), 0600)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load with missing watchList should error")
	}
	if !strings.Contains(err.Error(), "watchList") {
		t.Errorf("error should mention watchList, got: %v", err)
	}
}

func TestLoad_WatchListNotArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	os.WriteFile(path, []byte(`{
		"mqtt": {"host": "broker.local"},
		"messageService": {"mail": {"host": "smtp.local", "from": "a@b.c"}, "sms": {}},
		"watchList": "oops",
		"notificationList": []
	}`), 0600)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load with non-array watchList should error")
	}
}

func TestLoad_MissingNotificationList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	os.WriteFile(path, []byte(`{
		"mqtt": {"host": "broker.local"},
		"messageService": {"mail": {"host": "smtp.local", "from": "a@b.c"}, "sms": {}},
		"watchList": []
	}`), 0600)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load with missing notificationList should error")
	}
	if !strings.Contains(err.Error(), "notificationList") {
		t.Errorf("error should mention notificationList, got: %v", err)
	}
}

func TestLoad_EmptyListsAreValid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	os.WriteFile(path, []byte(`{
		"mqtt": {"host": "broker.local"},
		"messageService": {"mail": {"host": "smtp.local", "from": "a@b.c"}, "sms": {}},
		"watchList": [],
		"notificationList": []
	}`), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load with explicitly empty lists should succeed, got: %v", err)
	}
	if len(cfg.WatchList) != 0 {
		t.Errorf("watchList = %v, want empty slice", cfg.WatchList)
	}
}

func TestLoad_UnknownRecipientType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	os.WriteFile(path, []byte(`{
		"mqtt": {"host": "broker.local"},
		"messageService": {"mail": {"host": "smtp.local", "from": "a@b.c"}, "sms": {}},
		"watchList": [],
		"notificationList": [{"id": "door", "recipients": [{"type": "CARRIER_PIGEON", "recipient": "", "enabled": true}]}]
	}`), 0600)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load with unknown recipient type should error")
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	os.WriteFile(path, []byte(`{
		"mqtt": {"host": "broker.local"},
		"messageService": {"mail": {"host": "smtp.local", "from": "a@b.c"}, "sms": {}},
		"watchList": [],
		"notificationList": [{"id": "door", "recipients": [{"type": "LOG", "recipient": "", "enabled": true}]}]
	}`), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.MQTT.Port != 1883 {
		t.Errorf("mqtt.port default = %d, want 1883", cfg.MQTT.Port)
	}
	if cfg.MessageService.Mail.Port != 587 {
		t.Errorf("mail.port default = %d, want 587", cfg.MessageService.Mail.Port)
	}
	if cfg.NotificationList[0].Recipients[0].MinSeverity != "info" {
		t.Errorf("recipient minSeverity default = %q, want %q", cfg.NotificationList[0].Recipients[0].MinSeverity, "info")
	}
}

func TestSMSConfig_Configured(t *testing.T) {
	tests := []struct {
		name string
		cfg  SMSConfig
		want bool
	}{
		{"all set", SMSConfig{Enabled: true, SID: "s", Token: "t", Service: "svc"}, true},
		{"disabled", SMSConfig{Enabled: false, SID: "s", Token: "t", Service: "svc"}, false},
		{"missing token", SMSConfig{Enabled: true, SID: "s", Service: "svc"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Configured(); got != tt.want {
				t.Errorf("Configured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoad_WatchListDecoded(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	os.WriteFile(path, []byte(`{
		"mqtt": {"host": "broker.local"},
		"messageService": {"mail": {"host": "smtp.local", "from": "a@b.c"}, "sms": {}},
		"watchList": [{"id": "door", "topic": "zigbee2mqtt/DoorSensor", "enabled": true, "events": [{"subject": "contact", "default": true, "conditions": [{"value": false, "message": "Door open!"}]}]}],
		"notificationList": []
	}`), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(cfg.WatchList) != 1 || cfg.WatchList[0].ID != "door" {
		t.Fatalf("watchList = %+v, want one watcher with id door", cfg.WatchList)
	}
	if len(cfg.WatchList[0].Events) != 1 || cfg.WatchList[0].Events[0].Subject != "contact" {
		t.Fatalf("watchList[0].events = %+v, want one event for contact", cfg.WatchList[0].Events)
	}
}
