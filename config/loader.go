package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/errors"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/uploadtypes"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CHUNKUPLOAD_"

// Load builds a configuration from defaults, the YAML file at path, the given
// .env files, and the process environment, in increasing precedence. An empty
// path skips the YAML file. Missing .env files are ignored. The result is
// validated.
func Load(fs billy.Filesystem, path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := util.ReadFile(fs, path)
		if err != nil {
			return nil, errors.NewKindError("loadConfig", errors.ErrInvalidConfig, err).
				WithMessage("failed to read configuration file " + path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.NewKindError("loadConfig", errors.ErrInvalidConfig, err).
				WithMessage("failed to parse configuration file " + path)
		}
	}

	dotenv, err := readEnvFiles(fs, envFiles)
	if err != nil {
		return nil, err
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readEnvFiles parses .env files; earlier files win, matching godotenv.Load.
func readEnvFiles(fs billy.Filesystem, paths []string) (map[string]string, error) {
	env := map[string]string{}
	for _, path := range paths {
		if path == "" {
			continue
		}
		f, err := fs.Open(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, errors.NewKindError("loadConfig", errors.ErrInvalidConfig, err)
		}

		vars, err := godotenv.Parse(f)
		f.Close()
		if err != nil {
			return nil, errors.NewKindError("loadConfig", errors.ErrInvalidConfig, err).
				WithMessage("failed to parse env file " + path)
		}
		for k, v := range vars {
			if _, exists := env[k]; !exists {
				env[k] = v
			}
		}
	}
	return env, nil
}

type envBinding struct {
	name string
	set  func(string) error
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	bindings := []envBinding{
		{"BACKEND", func(v string) error { c.Backend = uploadtypes.Backend(v); return nil }},
		{"REGION", setString(&c.Region)},
		{"ENDPOINT", setString(&c.Endpoint)},
		{"FORCE_PATH_STYLE", setBool(&c.ForcePathStyle)},
		{"DISABLE_SSL", setBool(&c.DisableSSL)},
		{"ACCESS_KEY_ID", setString(&c.AccessKeyID)},
		{"SECRET_ACCESS_KEY", setString(&c.SecretAccessKey)},
		{"SESSION_TOKEN", setString(&c.SessionToken)},
		{"MAX_RETRIES", setInt(&c.MaxRetries)},
		{"TIMEOUT", setDuration(&c.Timeout)},
		{"DEFAULT_BUCKET", setString(&c.DefaultBucket)},
		{"PART_SIZE", setSize(&c.Upload.PartSize)},
		{"MAX_PART_SIZE", setSize(&c.Upload.MaxPartSize)},
		{"MAX_OBJECT_SIZE", setSize(&c.Upload.MaxObjectSize)},
		{"MAX_PART_COUNT", func(v string) error {
			n, err := strconv.ParseInt(v, 10, 32)
			c.Upload.MaxPartCount = int32(n)
			return err
		}},
		{"QUEUE_SIZE", setInt(&c.Upload.QueueSize)},
		{"VERIFY_ATTEMPTS", setInt(&c.Upload.VerifyAttempts)},
		{"VERIFY_INTERVAL", setDuration(&c.Upload.VerifyInterval)},
	}

	for _, b := range bindings {
		v, ok := lookup(EnvPrefix + b.name)
		if !ok || v == "" {
			continue
		}
		if err := b.set(v); err != nil {
			return errors.NewKindError("loadConfig", errors.ErrInvalidConfig, err).
				WithMessage(fmt.Sprintf("invalid value for %s%s", EnvPrefix, b.name))
		}
	}
	return nil
}

func setString(dst *string) func(string) error {
	return func(v string) error {
		*dst = v
		return nil
	}
}

func setBool(dst *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		*dst = b
		return err
	}
}

func setInt(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		*dst = n
		return err
	}
}

func setDuration(dst *time.Duration) func(string) error {
	return func(v string) error {
		d, err := time.ParseDuration(v)
		*dst = d
		return err
	}
}

func setSize(dst *Size) func(string) error {
	return func(v string) error {
		s, err := ParseSize(v)
		*dst = s
		return err
	}
}
