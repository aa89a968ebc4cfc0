package config

import (
	"breadth-api/pkg/market"
)

// MustLoadMarket loads etc/market.yaml from the project root and panics on
// error. It isolates the market section so tests and scripts that only need
// the exchange provider do not have to load the full service config.
func MustLoadMarket() *market.Config {
	return market.MustLoad()
}

// MustBuildMarketProvider loads the default market config and builds the
// default provider instance.
func MustBuildMarketProvider() market.Provider {
	cfg := MustLoadMarket()
	provider, err := cfg.BuildDefault()
	if err != nil {
		panic(err)
	}
	return provider
}
