// Package config loads environment configuration into tagged structs.
//
// A .env file in the working directory is read once on first use, then
// github.com/caarlos0/env/v11 parses the process environment into the target.
// Each struct type is loaded once and cached, so packages can call Load for
// their own Config type without coordinating:
//
//	var cfg session.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// MustLoad panics instead of returning the error and is meant for main.
package config
