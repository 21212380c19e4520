package remote

import (
	"context"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/oneconcern/yap/pkg/model"
	"github.com/oneconcern/yap/pkg/storage"
	"github.com/oneconcern/yap/pkg/storage/compressed"
	"github.com/oneconcern/yap/pkg/storage/gcs"
	"github.com/oneconcern/yap/pkg/storage/kv"
	"github.com/oneconcern/yap/pkg/storage/localfs"
	"github.com/oneconcern/yap/pkg/storage/minio"
	"github.com/oneconcern/yap/pkg/storage/sthree"
	"github.com/opentracing/opentracing-go"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Config describes a remote storage target
type Config struct {
	// Storage is the provider tag: local, s3, gcs, minio or badger
	Storage model.StorageKind `json:"storage" mapstructure:"storage" toml:"storage"`

	// Bucket for cloud providers
	Bucket string `json:"bucket,omitempty" mapstructure:"bucket" toml:"bucket,omitempty"`

	// Root directory for the local and badger providers
	Root string `json:"root,omitempty" mapstructure:"root" toml:"root,omitempty"`

	// Prefix prepended to all object keys by cloud providers
	Prefix string `json:"prefix,omitempty" mapstructure:"prefix" toml:"prefix,omitempty"`

	Endpoint string `json:"endpoint,omitempty" mapstructure:"endpoint" toml:"endpoint,omitempty"`
	Region   string `json:"region,omitempty" mapstructure:"region" toml:"region,omitempty"`

	// Credentials is a credentials file (gcs)
	Credentials string `json:"credentials,omitempty" mapstructure:"credentials" toml:"credentials,omitempty"`

	// Username is an access key (s3, minio). The secret is read from the environment variable PasswordEnv.
	Username    string `json:"username,omitempty" mapstructure:"username" toml:"username,omitempty"`
	PasswordEnv string `json:"password_env,omitempty" mapstructure:"password_env" toml:"password_env,omitempty"`

	Strategy model.PushStrategy `json:"strategy,omitempty" mapstructure:"strategy" toml:"strategy,omitempty"`
	Compress bool               `json:"compress,omitempty" mapstructure:"compress" toml:"compress,omitempty"`
	Insecure bool               `json:"insecure,omitempty" mapstructure:"insecure" toml:"insecure,omitempty"`
}

// Validate the configuration, and resolve defaults
func (c *Config) Validate() error {
	if c.Storage == "" {
		c.Storage = model.StorageLocal
	}
	strategy, err := model.ParsePushStrategy(string(c.Strategy))
	if err != nil {
		return ErrInvalidConfig.Wrap(err)
	}
	c.Strategy = strategy

	switch c.Storage {
	case model.StorageLocal, model.StorageBadger:
	case model.StorageS3, model.StorageGCS:
		if c.Bucket == "" {
			return ErrInvalidConfig.WrapMessage("storage %q requires a bucket", c.Storage)
		}
	case model.StorageMinio:
		if c.Bucket == "" || c.Endpoint == "" {
			return ErrInvalidConfig.WrapMessage("storage %q requires an endpoint and a bucket", c.Storage)
		}
	default:
		return ErrInvalidConfig.WrapMessage("unsupported storage %q", c.Storage)
	}
	return nil
}

func (c Config) password() string {
	if c.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(c.PasswordEnv)
}

// StoreOption tunes how a store is built from a Config
type StoreOption func(*storeOptions)

type storeOptions struct {
	fs     afero.Fs
	tracer opentracing.Tracer
	l      *zap.Logger
}

// WithFs sets the file system used by the local provider, instead of Config.Root
func WithFs(fs afero.Fs) StoreOption {
	return func(o *storeOptions) {
		o.fs = fs
	}
}

// WithTracer instruments the store with opentracing spans
func WithTracer(tr opentracing.Tracer) StoreOption {
	return func(o *storeOptions) {
		o.tracer = tr
	}
}

// WithLogger for the store
func WithLogger(l *zap.Logger) StoreOption {
	return func(o *storeOptions) {
		if l != nil {
			o.l = l
		}
	}
}

// NewStore builds the storage provider described by the configuration.
//
// Relative local and badger roots are resolved against the project root.
func NewStore(ctx context.Context, projectRoot string, cfg Config, opts ...StoreOption) (storage.Store, error) {
	o := &storeOptions{l: zap.NewNop()}
	for _, apply := range opts {
		apply(o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := o.l.With(zap.String("storage", string(cfg.Storage)))

	var (
		store storage.Store
		err   error
	)
	switch cfg.Storage {
	case model.StorageLocal:
		fs := o.fs
		if fs == nil {
			root := resolve(projectRoot, cfg.Root, model.StateDir+"/remote")
			if err = os.MkdirAll(root, 0700); err != nil {
				return nil, ErrInvalidConfig.Wrap(err)
			}
			fs = afero.NewBasePathFs(afero.NewOsFs(), root)
		}
		store, err = localfs.NewAtomic(fs)

	case model.StorageBadger:
		store, err = kv.New(resolve(projectRoot, cfg.Root, model.StateDir+"/remote.badger"), kv.Logger(l))

	case model.StorageS3:
		awsConfig := aws.NewConfig()
		if cfg.Region != "" {
			awsConfig = awsConfig.WithRegion(cfg.Region)
		}
		if cfg.Endpoint != "" {
			awsConfig = awsConfig.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true).WithDisableSSL(cfg.Insecure)
		}
		if cfg.Username != "" {
			awsConfig = awsConfig.WithCredentials(credentials.NewStaticCredentials(cfg.Username, cfg.password(), ""))
		}
		store, err = sthree.New(sthree.Bucket(cfg.Bucket), sthree.Prefix(cfg.Prefix), sthree.AWSConfig(awsConfig), sthree.Logger(l))

	case model.StorageGCS:
		store, err = gcs.New(ctx, cfg.Bucket, gcs.Prefix(cfg.Prefix), gcs.CredentialsFile(cfg.Credentials), gcs.Logger(l))

	case model.StorageMinio:
		store, err = minio.New(cfg.Endpoint, cfg.Bucket,
			minio.Credentials(cfg.Username, cfg.password()),
			minio.Secure(!cfg.Insecure),
			minio.Region(cfg.Region),
			minio.Prefix(cfg.Prefix),
			minio.Logger(l),
		)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Compress {
		store = compressed.New(store)
	}
	if o.tracer != nil {
		store = storage.Instrument(o.tracer, l, store)
	}
	l.Debug("remote store ready", zap.Stringer("store", store))
	return store, nil
}

func resolve(projectRoot, pth, fallback string) string {
	if pth == "" {
		pth = fallback
	}
	if filepath.IsAbs(pth) || projectRoot == "" {
		return pth
	}
	return filepath.Join(projectRoot, pth)
}
