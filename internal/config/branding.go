package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Branding holds the company identity printed on documents and emails.
type Branding struct {
	CompanyName  string   `mapstructure:"companyName"`
	AddressLines []string `mapstructure:"addressLines"`
	Phone        string   `mapstructure:"phone"`
	Email        string   `mapstructure:"email"`
	Website      string   `mapstructure:"website"`
	SIRET        string   `mapstructure:"siret"`
	VATNumber    string   `mapstructure:"vatNumber"`
}

func DefaultBranding() Branding {
	return Branding{
		CompanyName:  "Auto Visite Tech",
		AddressLines: []string{"123 Avenue de la République", "75011 Paris, France"},
		Phone:        "01 23 45 67 89",
		Email:        "contact@autovisitetech.fr",
		Website:      "www.autovisitetech.fr",
		SIRET:        "123 456 789 00012",
		VATNumber:    "FR12345678900",
	}
}

type BrandingHolder struct {
	current atomic.Value // holds Branding
}

// NewBrandingHolder loads branding.yml and keeps it hot-reloaded.
func NewBrandingHolder() (*BrandingHolder, error) {
	v := viper.New()

	v.SetConfigName("branding")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/reportsvc/config") // Volume-mounted config
	v.AddConfigPath("/etc/reportsvc")            // System config
	v.AddConfigPath(".")                         // Current directory (dev mode)

	v.SetEnvPrefix("REPORTSVC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBranding()
	v.SetDefault("branding.companyName", defaults.CompanyName)
	v.SetDefault("branding.addressLines", defaults.AddressLines)
	v.SetDefault("branding.phone", defaults.Phone)
	v.SetDefault("branding.email", defaults.Email)
	v.SetDefault("branding.website", defaults.Website)
	v.SetDefault("branding.siret", defaults.SIRET)
	v.SetDefault("branding.vatNumber", defaults.VATNumber)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Branding
	if err := v.UnmarshalKey("branding", &cfg); err != nil {
		return nil, err
	}
	if err := validateBranding(cfg); err != nil {
		return nil, err
	}

	holder := &BrandingHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated Branding
		if err := v.UnmarshalKey("branding", &updated); err != nil {
			log.Printf("[branding-config] reload failed: %v", err)
			return
		}
		if err := validateBranding(updated); err != nil {
			log.Printf("[branding-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[branding-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticBrandingHolder wraps a fixed Branding value. No file watching.
func NewStaticBrandingHolder(b Branding) *BrandingHolder {
	holder := &BrandingHolder{}
	holder.current.Store(b)
	return holder
}

func (h *BrandingHolder) Get() Branding {
	return h.current.Load().(Branding)
}

func validateBranding(cfg Branding) error {
	if strings.TrimSpace(cfg.CompanyName) == "" {
		return errors.New("branding.companyName cannot be empty")
	}
	return nil
}
