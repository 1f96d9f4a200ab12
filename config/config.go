// Package config loads the gateway's runtime configuration from
// environment variables (and an optional dotenv file), in the pack's
// viper idiom rather than the teacher's original JSON file.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// chainEnvNames maps an EVM chain ID to the prefix of its RPC
// environment variable, e.g. chain 1 reads ETHEREUM_RPC_URL.
var chainEnvNames = map[int64]string{
	1:     "ETHEREUM",
	10:    "OPTIMISM",
	56:    "BSC",
	137:   "POLYGON",
	8453:  "BASE",
	42161: "ARBITRUM",
	43114: "AVALANCHE",
}

// Config is the gateway's full runtime configuration.
type Config struct {
	Port       int
	CORSOrigin string
	DatabasePath string

	// RPCEndpoints is keyed by EVM chain ID.
	RPCEndpoints map[int64]string
	SolanaRPCURL string

	ZeroXAPIKey       string
	LiFiAPIKey        string
	SocketAPIKey      string
	RangoAPIKey       string
	RouterAPIKey      string
	JupiterAPIKey     string
	OdosReferralCode  string
	NearIntentsAPIKey string

	TelegramToken     string
	TelegramAdminChat int64
}

// Load reads configuration from the environment, having first loaded
// any ".env" file found in the working directory (silently ignored if
// absent, matching the teacher's optional-config-file tolerance).
func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetDefault("PORT", 8080)
	viper.SetDefault("CORS_ORIGIN", "*")
	viper.SetDefault("DATABASE_PATH", "gateway.db")

	cfg := &Config{
		Port:         viper.GetInt("PORT"),
		CORSOrigin:   viper.GetString("CORS_ORIGIN"),
		DatabasePath: viper.GetString("DATABASE_PATH"),
		RPCEndpoints: make(map[int64]string),
		SolanaRPCURL: viper.GetString("SOLANA_RPC_URL"),

		ZeroXAPIKey:       viper.GetString("ZEROX_API_KEY"),
		LiFiAPIKey:        viper.GetString("LIFI_API_KEY"),
		SocketAPIKey:      viper.GetString("SOCKET_API_KEY"),
		RangoAPIKey:       viper.GetString("RANGO_API_KEY"),
		RouterAPIKey:      viper.GetString("ROUTER_API_KEY"),
		JupiterAPIKey:     viper.GetString("JUPITER_API_KEY"),
		OdosReferralCode:  viper.GetString("ODOS_REFERRAL_CODE"),
		NearIntentsAPIKey: viper.GetString("NEAR_INTENTS_API_KEY"),

		TelegramToken:     viper.GetString("TELEGRAM_TOKEN"),
		TelegramAdminChat: viper.GetInt64("TELEGRAM_ADMIN_CHAT"),
	}

	for chainID, prefix := range chainEnvNames {
		if url := viper.GetString(prefix + "_RPC_URL"); url != "" {
			cfg.RPCEndpoints[chainID] = url
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.RPCEndpoints) == 0 {
		return fmt.Errorf("no *_RPC_URL configured for any chain (tried %s)", strings.Join(knownChainEnvVars(), ", "))
	}
	return nil
}

func knownChainEnvVars() []string {
	out := make([]string, 0, len(chainEnvNames))
	for _, prefix := range chainEnvNames {
		out = append(out, prefix+"_RPC_URL")
	}
	return out
}
