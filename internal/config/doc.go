// Package config provides configuration management for groupagg.
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
// Environment variables follow the pattern GROUPAGG_<SECTION>_<FIELD>:
//
//	GROUPAGG_SERVER_PORT=8080
//	GROUPAGG_AGGREGATION_WORKERS=4
//	GROUPAGG_AGGREGATION_ORDERING=sorted
//	GROUPAGG_LOADER_LEVEL_ORDER=appearance
//	GROUPAGG_LOGGING_LEVEL=debug
//
// GROUPAGG_CONFIG names the YAML file. Without it config.yaml and
// configs/config.yaml are tried in the working directory.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	aggCfg, _ := cfg.Aggregation.AggregatorConfig()
//
// Tests should start from Default(), which needs no environment or files.
package config
