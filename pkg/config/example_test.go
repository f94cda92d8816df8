package config_test

import (
	"fmt"
	"log"

	"github.com/ajitpratap0/datascope/pkg/config"
)

// ExampleNewDefaultConfig demonstrates the default configuration.
func ExampleNewDefaultConfig() {
	cfg := config.NewDefaultConfig()

	fmt.Printf("CSV delimiter: %q\n", cfg.CSV.Delimiter)
	fmt.Printf("JSON orient: %s\n", cfg.JSON.Orient)
	fmt.Printf("SQL timeout: %s\n", cfg.SQL.Timeout)

	// Output:
	// CSV delimiter: ","
	// JSON orient: auto
	// SQL timeout: 30s
}

// ExampleConfig_Validate shows how to validate a configuration
// before using it.
func ExampleConfig_Validate() {
	cfg := config.NewDefaultConfig()
	cfg.CSV.Delimiter = ";"
	cfg.Parquet.Compression = "zstd"

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fmt.Println("Configuration is valid!")

	// Output:
	// Configuration is valid!
}
