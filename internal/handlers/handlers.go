package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/opencurio/keygate/internal/services"
)

type Handlers struct {
	Keys         *KeysHandler
	Demo         *DemoHandler
	Subscription *SubscriptionHandler
	Health       *HealthHandler
}

func New(logger *logrus.Logger, svc *services.Services) *Handlers {
	return &Handlers{
		Keys:         NewKeysHandler(svc.Keys, svc.Quota, logger),
		Demo:         NewDemoHandler(svc.Keys, logger),
		Subscription: NewSubscriptionHandler(svc.Quota, logger),
		Health:       NewHealthHandler(logger, svc.Health),
	}
}
