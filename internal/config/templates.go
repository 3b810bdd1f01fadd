package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Upbit Trader Configuration
# Credentials are read from the environment or a .env file next to this file:
# OPENAI_API_KEY, UPBIT_ACCESS_KEY, UPBIT_SECRET_KEY, SERPAPI_API_KEY, TRADE_FEE

[trading]
# Trading mode: "live" or "paper"
mode = "paper"
pair = "KRW-BTC"
# Exchange fee deducted from every order notional
fee_rate = 0.0005
# Exchange minimum order notional in KRW
min_order_krw = 5000.0
# Number of past trades fed back to the oracles
history_size = 10
paper_initial_krw = 1000000.0
paper_initial_btc = 0.0

[oracle]
decision_model = "o3-mini"
reasoning_effort = "high"
reflection_model = "gpt-4o-mini"
# Attempts per oracle call before the cycle is aborted
max_attempts = 3
timeout = "2m"
initial_backoff = "1s"
max_backoff = "10s"

[market]
candle_count = 30
news_query = "Stock Market Bitcoin"
news_limit = 10
timeout = "30s"

[store]
# path = "/home/me/.config/upbit-trader/trader.db"

[logging]
level = "info"
console = true
file = true

[notifications]
enabled = false

[notifications.webhook]
enabled = false
url = ""

[notifications.telegram]
enabled = false
bot_token = ""
chat_id = ""
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}
	return nil
}
