package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const confFile = "config.yaml"

type config struct {
	Address string `yaml:"bind"`
	URLRoot string `yaml:"url_root"`

	UploadDir   string `yaml:"upload_dir"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`

	SessionTTL time.Duration `yaml:"session_ttl"`
	Metrics    bool          `yaml:"metrics"`
}

func defaultConfig() config {
	return config{
		URLRoot:     "/",
		UploadDir:   "uploads",
		MaxUploadMB: 512,
		SessionTTL:  12 * time.Hour,
	}
}

func (conf *config) Validate() (errs []error) {
	if conf.Address == "" {
		errs = append(errs, fmt.Errorf("config: `bind` is required"))
	}
	if conf.UploadDir == "" {
		errs = append(errs, fmt.Errorf("config: `upload_dir` is required"))
	}
	if conf.MaxUploadMB < 0 {
		errs = append(errs, fmt.Errorf("config: `max_upload_mb` must not be negative"))
	}
	if conf.SessionTTL < 0 {
		errs = append(errs, fmt.Errorf("config: `session_ttl` must not be negative"))
	}
	if !strings.HasPrefix(conf.URLRoot, "/") && !strings.Contains(conf.URLRoot, "://") {
		errs = append(errs, fmt.Errorf("config: `url_root` must be a path or an absolute URL"))
	}
	return
}

// uploadDir returns the upload directory with a leading "~" expanded.
func (conf *config) uploadDir() string {
	if conf.UploadDir == "~" || strings.HasPrefix(conf.UploadDir, "~/") {
		return os.Getenv("HOME") + conf.UploadDir[1:]
	}
	return conf.UploadDir
}

// maxUploadSize returns the upload limit in bytes, zero means unlimited.
func (conf *config) maxUploadSize() int64 {
	return conf.MaxUploadMB << 20
}

func LoadConfig(filename string) (*config, error) {
	fd, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	d := yaml.NewDecoder(fd)
	d.KnownFields(true)
	conf := defaultConfig()
	if err := d.Decode(&conf); err != nil {
		return nil, err
	}

	return &conf, nil
}
