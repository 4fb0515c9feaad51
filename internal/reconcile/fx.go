package reconcile

import (
	"github.com/smallbiznis/hourdesk/internal/providers/clockify"
	"github.com/smallbiznis/hourdesk/internal/reconcile/domain"
	"github.com/smallbiznis/hourdesk/internal/reconcile/repository"
	"github.com/smallbiznis/hourdesk/internal/reconcile/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reconcile.service",
	fx.Provide(func(c *clockify.Client) domain.TimeTracker { return c }),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
