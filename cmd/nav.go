package main

import (
	"github.com/rotisserie/eris"

	"github.com/arc-research/harvest-cli/internal/acquire"
	"github.com/arc-research/harvest-cli/internal/nav"
)

func initNavigator() (acquire.Navigator, error) {
	if cfg.Acquire.DriverURL == "" {
		return nil, eris.New("browser driver URL is required (HARVEST_ACQUIRE_DRIVER_URL)")
	}
	return nav.NewRemote(cfg.Acquire.DriverURL), nil
}
