/*
 * Copyright (C) 2021 IBM, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "net/http/pprof"

	"github.com/heptiolabs/healthcheck"
	jsoniter "github.com/json-iterator/go"
	"github.com/labqc/spc-pipeline/pkg/api"
	"github.com/labqc/spc-pipeline/pkg/config"
	"github.com/labqc/spc-pipeline/pkg/operational"
	"github.com/labqc/spc-pipeline/pkg/pipeline"
	"github.com/labqc/spc-pipeline/pkg/pipeline/utils"
	"github.com/labqc/spc-pipeline/pkg/prometheus"
	"github.com/labqc/spc-pipeline/pkg/server"
	"github.com/labqc/spc-pipeline/pkg/spc/levels"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	buildVersion       = "unknown"
	buildDate          = "unknown"
	cfgFile            string
	logLevel           string
	logFile            string
	envPrefix          = "SPC-PIPELINE"
	defaultLogFileName = ".spc-pipeline"
	opts               config.Options
)

// rootCmd represents the root command
var rootCmd = &cobra.Command{
	Use:   "spc-pipeline",
	Short: "Evaluate Westgard quality control rules over laboratory control runs",
	Run: func(_ *cobra.Command, _ []string) {
		run()
	},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <request.json>",
	Short: "Evaluate one SPC request read from a file (use - for stdin) and print the response",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return evaluateFile(cmd.OutOrStdout(), args[0])
	},
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the rule catalogue and the operational metrics as markdown",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printRules(cmd.OutOrStdout())
	},
}

// initConfig use config file and ENV variables if set.
func initConfig() {
	v := viper.New()

	if cfgFile != "" {
		// Use config file from the flag.
		v.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal(err)
		}
		// Search config in home directory with name ".spc-pipeline" (without extension).
		v.AddConfigPath(home)
		v.SetConfigName(defaultLogFileName)
	}

	// Read environment variables that match prefix
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	// If a config file is found, read it in.
	cfgErr := v.ReadInConfig()

	bindFlags(rootCmd, v)

	// initialize logger
	initLogger()

	if cfgErr != nil {
		log.Errorf("Read config error: %v", cfgErr)
	}
}

func initLogger() {
	ll, err := log.ParseLevel(logLevel)
	if err != nil {
		ll = log.ErrorLevel
	}
	log.SetLevel(ll)
	log.SetFormatter(&log.TextFormatter{DisableColors: logFile != "", FullTimestamp: true, PadLevelText: true, DisableQuote: true})
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Errorf("can't open log file %s, logging to stderr: %v", logFile, err)
			return
		}
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}
}

func dumpConfig(opts *config.Options) {
	configAsJSON, err := json.MarshalIndent(opts, "", "    ")
	if err != nil {
		panic(fmt.Sprintf("error dumping config: %v", err))
	}
	fmt.Printf("Using configuration:\n%s\n", configAsJSON)
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if strings.Contains(f.Name, ".") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, ".", "_"))
			_ = v.BindEnv(f.Name, fmt.Sprintf("%s_%s", envPrefix, envVarSuffix))
		}

		// Apply the viper config value to the flag when the flag is not set and viper has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			switch val.(type) {
			case bool, uint, string, int32, int16, int8, int, uint32, uint64, int64, float64, float32, []string, []int:
				_ = cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val))
			default:
				var jsonNew = jsoniter.ConfigCompatibleWithStandardLibrary
				b, err := jsonNew.Marshal(&val)
				if err != nil {
					log.Fatalf("can't parse flag %s into json with value %v got error %s", f.Name, val, err)
					return
				}
				_ = cmd.Flags().Set(f.Name, string(b))
			}
		}
	})
}

func initFlags() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", fmt.Sprintf("config file (default is $HOME/%s)", defaultLogFileName))
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "error", "Log level: debug, info, warning, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also append logs to this file")
	rootCmd.PersistentFlags().StringVar(&opts.Mode, "mode", "", "Run mode: server (default) or stream")
	rootCmd.PersistentFlags().StringVar(&opts.Health.Address, "health.address", "0.0.0.0", "Health server address")
	rootCmd.PersistentFlags().StringVar(&opts.Health.Port, "health.port", "8080", "Health server port")
	rootCmd.PersistentFlags().IntVar(&opts.Profile.Port, "profile.port", 0, "Go pprof tool port (default: disabled)")
	rootCmd.PersistentFlags().StringVar(&opts.Server, "server", "", "json of config file server field")
	rootCmd.PersistentFlags().StringVar(&opts.Stream, "stream", "", "json of config file stream field")
	rootCmd.PersistentFlags().StringVar(&opts.Rules, "rules", "", "json of config file rules field")
	rootCmd.PersistentFlags().StringVar(&opts.MetricsSettings, "metricsSettings", "", "json for global metrics settings")
	rootCmd.AddCommand(evaluateCmd, rulesCmd)
}

func main() {
	// Initialize flags (command line parameters)
	initFlags()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// service is what run drives until exit: the HTTP server or the stream pipeline.
type service interface {
	IsAlive() healthcheck.Check
	IsReady() healthcheck.Check
	serve()
}

type httpService struct {
	*server.Server
}

func (h httpService) IsAlive() healthcheck.Check {
	return func() error { return nil }
}

func (h httpService) serve() {
	done := make(chan error, 1)
	go func() { done <- h.Start() }()
	select {
	case err := <-done:
		if err != nil {
			log.Errorf("SPC server stopped: %v", err)
		}
	case <-utils.ExitChannel():
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.Shutdown(ctx); err != nil {
			log.Errorf("SPC server shutdown: %v", err)
		}
		<-done
	}
}

type streamService struct {
	*pipeline.Pipeline
}

func (s streamService) serve() {
	s.Run()
}

func newService(cfg *config.ConfigFileStruct, opMetrics *operational.Metrics) (service, error) {
	evaluator, err := levels.NewEvaluator(cfg.Rules, opMetrics)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rules: %w", err)
	}
	if cfg.Mode == api.ModeStream {
		p, err := pipeline.NewPipeline(cfg, evaluator, opMetrics)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize pipeline: %w", err)
		}
		return streamService{p}, nil
	}
	s, err := server.NewServer(cfg.Server, evaluator, opMetrics)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}
	return httpService{s}, nil
}

func run() {
	// Initial log message
	fmt.Printf("Starting %s:\n=====\nBuild version: %s\nBuild date: %s\n\n", filepath.Base(os.Args[0]), buildVersion, buildDate)

	// Dump configuration
	dumpConfig(&opts)

	cfg, err := config.ParseConfig(&opts)
	if err != nil {
		log.Errorf("error in parsing config file: %v", err)
		os.Exit(1)
	}

	// Setup (threads) exit manager
	utils.SetupElegantExit()
	var promServer *http.Server
	if !cfg.MetricsSettings.DisableGlobalServer {
		promServer = prometheus.InitializePrometheus(&cfg.MetricsSettings)
	}
	opMetrics := operational.NewMetrics(&cfg.MetricsSettings)

	svc, err := newService(&cfg, opMetrics)
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}

	if opts.Profile.Port != 0 {
		go func() {
			log.WithField("port", opts.Profile.Port).Info("starting PProf HTTP listener")
			log.WithError(http.ListenAndServe(fmt.Sprintf(":%d", opts.Profile.Port), nil)).
				Error("PProf HTTP listener stopped working")
		}()
	}

	// Start health report server
	healthServer := operational.NewHealthServer(&opts, svc.IsAlive(), svc.IsReady())

	log.WithField("mode", cfg.Mode).Info("starting")
	svc.serve()

	if promServer != nil {
		_ = promServer.Shutdown(context.Background())
	}
	_ = healthServer.Shutdown(context.Background())

	// Give all threads a chance to exit and then exit the process
	time.Sleep(time.Second)
	log.Debugf("exiting main run")
	os.Exit(0)
}
