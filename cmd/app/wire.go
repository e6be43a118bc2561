//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/openbites/bitefinder/internal/bootstrap"
	"github.com/openbites/bitefinder/internal/domain/places"
	"github.com/openbites/bitefinder/internal/domain/recommend"
	"github.com/openbites/bitefinder/internal/infra/config"
	"github.com/openbites/bitefinder/internal/infra/placesapi/google"
	httpiface "github.com/openbites/bitefinder/internal/interface/http"
	"github.com/openbites/bitefinder/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideRecommendConfig,
		providePlacesConfig,
		provideRegistryClient,
		provideLocalStore,
		providePersistentStore,
		provideVenueStorage,
		provideVenueRepository,
		provideDishRepository,
		provideDismissalRepository,
		places.NewCache,
		places.NewResolver,
		places.NewService,
		recommend.NewService,
		wire.Bind(new(places.Registry), new(*google.Client)),
		wire.Bind(new(recommend.HoursProvider), new(*places.Service)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
