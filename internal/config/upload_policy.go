package config

import (
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// UploadPolicy bounds what the logo and signature endpoints accept.
type UploadPolicy struct {
	MaxBytes          int64    `mapstructure:"maxBytes"`
	AllowedExtensions []string `mapstructure:"allowedExtensions"`
}

func DefaultUploadPolicy() UploadPolicy {
	return UploadPolicy{
		MaxBytes:          5 << 20,
		AllowedExtensions: []string{".png", ".jpg", ".jpeg"},
	}
}

// Allows reports whether a file name with the given extension may be stored.
func (p UploadPolicy) Allows(ext string) bool {
	ext = strings.ToLower(strings.TrimSpace(ext))
	for _, allowed := range p.AllowedExtensions {
		if strings.ToLower(allowed) == ext {
			return true
		}
	}
	return false
}

type UploadPolicyHolder struct {
	current atomic.Value // holds UploadPolicy
}

// NewStaticUploadPolicy wraps a fixed policy, mostly for tests.
func NewStaticUploadPolicy(policy UploadPolicy) *UploadPolicyHolder {
	holder := &UploadPolicyHolder{}
	holder.current.Store(policy)
	return holder
}

// NewUploadPolicyHolder reads uploads.yml (or UPLOAD_POLICY_FILE) and watches it for changes.
func NewUploadPolicyHolder(cfg Config, log *zap.Logger) (*UploadPolicyHolder, error) {
	v := viper.New()

	if cfg.UploadPolicyFile != "" {
		v.SetConfigFile(cfg.UploadPolicyFile)
	} else {
		v.SetConfigName("uploads")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/invoicepos")
		v.AddConfigPath(".")
	}

	defaults := DefaultUploadPolicy()
	v.SetDefault("uploads.maxBytes", defaults.MaxBytes)
	v.SetDefault("uploads.allowedExtensions", defaults.AllowedExtensions)

	v.SetEnvPrefix("INVOICEPOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
	}

	policy, err := decodeUploadPolicy(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticUploadPolicy(policy)
	if !fileLoaded {
		return holder, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeUploadPolicy(v)
		if err != nil {
			log.Warn("upload policy reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("upload policy reloaded", zap.String("file", e.Name))
	})
	v.WatchConfig()

	return holder, nil
}

func (h *UploadPolicyHolder) Get() UploadPolicy {
	return h.current.Load().(UploadPolicy)
}

func decodeUploadPolicy(v *viper.Viper) (UploadPolicy, error) {
	var policy UploadPolicy
	if err := v.UnmarshalKey("uploads", &policy); err != nil {
		return UploadPolicy{}, err
	}
	return policy, validateUploadPolicy(policy)
}

func validateUploadPolicy(policy UploadPolicy) error {
	if policy.MaxBytes <= 0 {
		return errors.New("uploads.maxBytes must be positive")
	}
	if len(policy.AllowedExtensions) == 0 {
		return errors.New("uploads.allowedExtensions cannot be empty")
	}
	for _, ext := range policy.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") || filepath.Ext(ext) != ext {
			return errors.New("uploads.allowedExtensions entries must look like .png")
		}
	}
	return nil
}
