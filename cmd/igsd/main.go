package main

import (
	"context"
	"embed"
	"flag"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/atldata/igs/cmd/igsd/handlers"
	"github.com/atldata/igs/pkg/auth"
	kcs "github.com/atldata/igs/pkg/configs/server"
	kdbsql "github.com/atldata/igs/pkg/db/sql"
	"github.com/atldata/igs/pkg/utils/echoutil"
	"github.com/atldata/igs/pkg/utils/filewatch"
)

//go:embed web
var webFS embed.FS

func main() {

	configPath := flag.String("config-path", os.Getenv("IGSD_CONFIG"), "server config path")
	loglevel := flag.String("loglevel", "", "log level. debug|info|warn|error|off (overrides config)")
	pcert := flag.String("cert", "", "certification file for TLS")
	pkey := flag.String("certkey", "", "key of certification file for TLS")
	flag.Parse()

	// read configfile
	conf, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("can not read configration: %s", err)
	}
	if *loglevel != "" {
		conf.LogLevel = *loglevel
	}

	e := echo.New()

	// set log
	echoutil.SetLevel(e, conf.LogLevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins(conf.CORSOrigins),
	}))

	ctx := context.Background()
	if *configPath != "" {
		watched, cancel, err := filewatch.UntilModifyContext(ctx, *configPath)
		if err != nil {
			log.Fatalf("can not watch configration: %s", err)
		}
		defer cancel()
		ctx = watched
		context.AfterFunc(ctx, func() {
			log.Println("config file is updated. quit to restart server.")
			graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := e.Shutdown(graceful); err != nil {
				log.Printf("error on shutdown by config update: %s", err)
			}
		})
	}

	db, err := kdbsql.New(ctx, conf.DBURI)
	if err != nil {
		log.Fatalf("can not open database %s: %s", conf.DBURI, err)
	}
	defer db.Close()

	// handlers
	{
		e.GET("/api/health", handlers.HealthHandler(db.Tracts(), backendLabel(conf.DBURI)))

		e.GET("/api/tracts", handlers.FindTractHandler(db.Tracts()))
		e.GET("/api/tracts/:fips", handlers.GetTractHandler(db.Tracts(), "fips"))
		e.GET("/api/states", handlers.ListStatesHandler(db.Tracts()))
		e.GET("/api/metrics", handlers.ListMetricsHandler())

		e.GET("/api/statistics", handlers.GetStatisticsHandler(db.Tracts()))
		e.GET("/api/correlations", handlers.GetCorrelationHandler(db.Tracts()))
	}

	{
		e.GET("/api/insights/trends", handlers.GetTrendsHandler(db.Tracts()))
		e.GET("/api/insights/rankings", handlers.GetRankingsHandler(db.Tracts()))
		e.GET("/api/insights/regional", handlers.GetRegionalHandler(db.Tracts()))
		e.GET("/api/insights/scorecard/:fips", handlers.GetScorecardHandler(db.Tracts(), "fips"))
		e.GET("/api/insights/year-over-year", handlers.GetYearOverYearHandler(db.Tracts()))
		e.GET("/api/insights/dei-opportunity", handlers.GetOpportunityHandler(db.Tracts()))
	}

	{
		admin := e.Group("/api/admin", auth.Middleware(conf.AuthSecret))
		admin.POST("/backup", handlers.BackupHandler(db.Admin(), conf.BackupDir))
		admin.POST("/restore", handlers.RestoreHandler(db.Admin(), conf.BackupDir))
		admin.GET("/backups", handlers.ListBackupsHandler(conf.BackupDir))
	}

	// dashboard
	web, err := fs.Sub(webFS, "web")
	if err != nil {
		log.Fatalf("dashboard assets are broken: %s", err)
	}
	e.StaticFS("/", web)

	log.Println("registred routes:")
	for _, r := range e.Routes() {
		log.Println(r.Method, r.Path)
	}

	cert, key := *pcert, *pkey
	if cert != "" && key != "" {
		e.Logger.Fatal(e.StartTLS(":"+conf.ServerPort, cert, key))
	} else {
		e.Logger.Fatal(e.Start(":" + conf.ServerPort))
	}
}

func loadConfig(path string) (*kcs.ServerConfig, error) {
	if path == "" {
		return kcs.Unmarshal([]byte{})
	}
	return kcs.LoadServerConfig(path)
}

func backendLabel(dburi string) string {
	if strings.HasPrefix(dburi, "postgres://") || strings.HasPrefix(dburi, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}

func allowOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
