// Package config provides configuration management for the report service and
// CLI.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern ERT_<SECTION>_<FIELD>:
//
//	ERT_SERVER_PORT=8080
//	ERT_LOGGING_LEVEL=debug
//	ERT_REPORT_OUTPUT_DIR=/var/lib/ert/output
//	ERT_JOBS_WORKERS=4
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
