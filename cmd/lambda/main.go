package main

import (
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/causalgo/macid/internal/app"
	"github.com/causalgo/macid/internal/compile"
	"github.com/causalgo/macid/internal/compile/cache"
	"github.com/causalgo/macid/internal/config"
	"github.com/causalgo/macid/internal/equilibrium"
	"github.com/causalgo/macid/internal/macid/infer"
	lambdatransport "github.com/causalgo/macid/internal/transport/lambdatransport"
)

func main() {
	cfg := config.Load()

	inf := infer.New()
	compilers := map[string]app.Compiler{
		"dot":  compile.NewDOT(inf),
		"yaml": compile.NewYAML(inf),
	}
	c := cache.NewInMemory(cfg.CacheMaxItems)

	observer := equilibrium.NewAsyncProfileEvalObserver(
		equilibrium.NewProfileEvalLogger(log.Default()), cfg.ObsBuffer)
	defer observer.Close()

	searcher := equilibrium.NewSearcher(
		equilibrium.WithTolerance(cfg.TieTolerance),
		equilibrium.WithMaxProfiles(cfg.MaxProfiles),
		equilibrium.WithObserver(observer),
	)

	svc := app.NewService(compilers, c, searcher)
	h := lambdatransport.NewHandler(svc)

	lambda.Start(h.Analyze)
}
