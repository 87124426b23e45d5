package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig             `mapstructure:"server"`
	Database     DatabaseConfig           `mapstructure:"database"`
	Redis        RedisConfig              `mapstructure:"redis"`
	JWT          JWTConfig                `mapstructure:"jwt"`
	Stripe       StripeConfig             `mapstructure:"stripe"`
	OSS          OSSConfig                `mapstructure:"oss"`
	Email        EmailConfig              `mapstructure:"email"`
	Queue        QueueConfig              `mapstructure:"queue"`
	CORS         CORSConfig               `mapstructure:"cors"`
	Billing      BillingConfig            `mapstructure:"billing"`
	Providers    map[string]VoiceProvider `mapstructure:"providers"`
	Integrations IntegrationsConfig       `mapstructure:"integrations"`
	Search       SearchConfig             `mapstructure:"search"`
}

type ServerConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Mode       string `mapstructure:"mode"`
	BaseDomain string `mapstructure:"base_domain"` // 平台主域名，slug.BaseDomain 兜底白标域名
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type StripeConfig struct {
	SecretKey          string `mapstructure:"secret_key"`
	WebhookSecret      string `mapstructure:"webhook_secret"`
	CheckoutSuccessURL string `mapstructure:"checkout_success_url"`
	CheckoutCancelURL  string `mapstructure:"checkout_cancel_url"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
}

type EmailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type QueueConfig struct {
	BillingQueue string `mapstructure:"billing_queue"`
	MaxWorkers   int    `mapstructure:"max_workers"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type BillingConfig struct {
	DefaultRateCents   int                   `mapstructure:"default_rate_cents"`   // 默认每分钟费率（美分）
	StartingGrantCents int64                 `mapstructure:"starting_grant_cents"` // 开通赠送额度
	LowBalanceCents    int64                 `mapstructure:"low_balance_cents"`    // 余额不足提醒阈值
	ReconcileAfterMins int                   `mapstructure:"reconcile_after_mins"` // 未计费通话重试等待时间
	ReconcileBatchSize int                   `mapstructure:"reconcile_batch_size"`
	Plans              map[string]PlanConfig `mapstructure:"plans"`
}

type PlanConfig struct {
	Kind            string  `mapstructure:"kind"` // prepaid, postpaid
	IncludedMinutes int     `mapstructure:"included_minutes"`
	Price           float64 `mapstructure:"price"`
	StripePriceID   string  `mapstructure:"stripe_price_id"`
}

// VoiceProvider 语音服务商 webhook 配置
type VoiceProvider struct {
	WebhookSecret string `mapstructure:"webhook_secret"`
	APIKey        string `mapstructure:"api_key"`
}

type IntegrationsConfig struct {
	Calendar CalendarOAuthConfig `mapstructure:"calendar"`
}

type CalendarOAuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	AuthURL      string `mapstructure:"auth_url"`
	TokenURL     string `mapstructure:"token_url"`
	UserInfoURL  string `mapstructure:"user_info_url"`
	RedirectURI  string `mapstructure:"redirect_uri"`
}

type SearchConfig struct {
	WarmupIntervalMins int `mapstructure:"warmup_interval_mins"`
	WarmupCacheSize    int `mapstructure:"warmup_cache_size"`
}

func Load(configPath string) (*Config, error) {
	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	// 检查 config.local.yaml 是否存在
	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// 环境变量覆盖
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
