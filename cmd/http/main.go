package main

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/causalgo/macid/internal/app"
	"github.com/causalgo/macid/internal/compile"
	"github.com/causalgo/macid/internal/compile/cache"
	"github.com/causalgo/macid/internal/config"
	"github.com/causalgo/macid/internal/equilibrium"
	"github.com/causalgo/macid/internal/macid/infer"
	"github.com/causalgo/macid/internal/metrics"
	"github.com/causalgo/macid/internal/transport/httptransport"
)

func main() {
	cfg := config.Load()

	inf := infer.New()
	compilers := map[string]app.Compiler{
		"dot":  compile.NewDOT(inf),
		"yaml": compile.NewYAML(inf),
	}
	c := cache.NewInMemory(cfg.CacheMaxItems)
	searcher := equilibrium.NewSearcher(
		equilibrium.WithTolerance(cfg.TieTolerance),
		equilibrium.WithMaxProfiles(cfg.MaxProfiles),
		equilibrium.WithObserver(metrics.ProfileEvalRecorder{}),
	)

	svc := app.NewService(compilers, c, searcher)
	h := httptransport.NewHandler(svc)

	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", h.Analyze)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	log.Printf("listening on %s", cfg.HTTPAddr)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, mux))
}
