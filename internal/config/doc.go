// Package config loads the xs-stat configuration.
//
// # Configuration Sources
//
// Values are applied in this order, later sources winning:
//
//	1. Default()
//	2. The file passed with -config: YAML for .yaml/.yml, otherwise a
//	   key=value file (INI section headers are ignored, so an existing
//	   config.ini with raw_log_dir / fixed_log_dir / stat_dir works)
//	3. A .env file next to the config file
//	4. XS_* environment variables
//
// The config file may be in any encoding the charset package detects.
//
// # Environment Variables
//
//	XS_PATHS_RAW_DIR=/data/xs_log
//	XS_PATHS_REFERENCE_DIR=/data/industry
//	XS_WINDOWS=1,5,20,60
//	XS_WORKERS=4
//	XS_REPORT_CSV=true
//	XS_LOGGING_LEVEL=debug
//
// Relative paths resolve against the directory of the config file.
// Validation failures are returned as ConfigurationError.
package config
