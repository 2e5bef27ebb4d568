package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotenv loads the first existing env files into the process env
// variables already set win over file values; missing files are skipped
// returns how many files were loaded
func LoadDotenv(files ...string) (int, error) {
	if len(files) == 0 {
		files = []string{".env", ".env.local"}
	}
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if st, err := os.Stat(f); err == nil && !st.IsDir() {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}
