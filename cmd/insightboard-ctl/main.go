// Command insightboard-ctl queries the analytics data API the way the dashboard does
package main

import (
	"os"

	"insightboard/internal/platform/config"
)

func main() {
	_, _ = config.LoadDotenv()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
