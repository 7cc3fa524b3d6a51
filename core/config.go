package core

import (
	"context"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/unidb/unidb/backend"
	"github.com/unidb/unidb/dberr"
)

// FileConfig is the connect parameter set read from a configuration
// file's `database:` section.
type FileConfig struct {
	Backend        string `koanf:"backend"`
	Name           string `koanf:"name"`
	Host           string `koanf:"host"`
	Port           uint16 `koanf:"port"`
	User           string `koanf:"user"`
	Password       string `koanf:"password"`
	SSLMode        string `koanf:"sslmode"`
	Autocommit     bool   `koanf:"autocommit"`
	Timeout        string `koanf:"timeout"`
	MinConnections int    `koanf:"min_connections"`
	MaxConnections int    `koanf:"max_connections"`
}

// ConnectFromConfig connects using parameters from a YAML file. Options
// given by the caller keep precedence except where the file sets
// autocommit or a timeout explicitly.
func ConnectFromConfig(ctx context.Context, path string, opts *Options) (*Connection, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, dberr.Wrap(dberr.KindInterface, err, "load config %q", path)
	}
	var fc FileConfig
	if err := k.Unmarshal("database", &fc); err != nil {
		return nil, dberr.Wrap(dberr.KindInterface, err, "parse config %q", path)
	}

	kind, err := backend.ParseKind(fc.Backend)
	if err != nil {
		return nil, err
	}
	params := backend.Params{
		Name:           fc.Name,
		Host:           fc.Host,
		Port:           fc.Port,
		User:           fc.User,
		Password:       fc.Password,
		SSLMode:        fc.SSLMode,
		MinConnections: fc.MinConnections,
		MaxConnections: fc.MaxConnections,
	}

	var o Options
	if opts != nil {
		o = *opts
	}
	o.Autocommit = fc.Autocommit
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return nil, dberr.Wrap(dberr.KindInterface, err, "config timeout %q", fc.Timeout)
		}
		o.Timeout = d
	}
	return Connect(ctx, kind, params, &o)
}
