package main

import (
	"fmt"
	"net/http"
	"net/http/pprof"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"playdeck/src/handler/api"
	"playdeck/src/handler/web"
	"playdeck/src/session"
	"playdeck/src/storage"
	"playdeck/src/util"
)

var (
	build       = "%BUILD%"
	version     = "%VERSION%"
	versionDate = "%VERSION_DATE%"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}

func rootCommand() *cobra.Command {
	defaultLogLevel := "warn"
	if build == "debug" {
		defaultLogLevel = "debug"
	}

	var configFile, logLevel string
	root := &cobra.Command{
		Use:   "playdeck",
		Short: "Upload media and play it back from a playlist in the browser",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			ll, err := log.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("could not parse log level: %v", err)
			}
			log.SetLevel(ll)
			log.SetReportCaller(true)
			return nil
		},
		Run: func(_ *cobra.Command, _ []string) {
			serve(configFile)
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "conf", confFile, "Path to the configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log", defaultLogLevel, "Sets the log level. [debug, info, warn, error]")
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information and exit",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Version: %v (%v)\n", version, versionDate)
			fmt.Fprintf(cmd.OutOrStdout(), "Build: %v\n", build)
		},
	})
	return root
}

func serve(configFile string) {
	log.Infof("Version: %v (%v)", version, build)
	config, err := LoadConfig(configFile)
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}
	if errs := config.Validate(); len(errs) > 0 {
		log.Fatalf("Could not load config: %v", errs)
	}

	store, err := storage.Open(config.uploadDir())
	if err != nil {
		log.Fatalf("Unable to open upload dir: %v", err)
	}
	log.Infof("Using %q for uploads", config.uploadDir())

	fullURLRoot, err := util.DetermineFullURLRoot(config.URLRoot, config.Address)
	if err != nil {
		log.Fatal(err)
	}
	rootURL, err := url.Parse(fullURLRoot)
	if err != nil {
		log.Fatalf("Invalid URL root: %v", err)
	}

	sessions := session.NewStore(store, config.SessionTTL)
	service, err := web.New(build, version, rootURL.Path, sessions,
		api.New(sessions, store, config.maxUploadSize(), fullURLRoot))
	if err != nil {
		log.Fatal(err)
	}

	if config.Metrics {
		service.Handle("/metrics", promhttp.Handler())
	}
	if build == "debug" {
		service.Get("/debug/pprof/*", pprof.Index)
	}
	log.Infof("Now accepting HTTP connections on %v", config.Address)
	server := &http.Server{
		Addr:           config.Address,
		Handler:        service,
		ReadTimeout:    5 * time.Minute,
		WriteTimeout:   30 * time.Minute,
		MaxHeaderBytes: 1 << 20,
	}
	log.Fatalf("Error running webserver: %v", server.ListenAndServe())
}
