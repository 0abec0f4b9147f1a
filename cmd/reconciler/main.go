// Command reconciler runs the Scaling-Group Lifecycle Workflow for one
// triggering event, wiring the provider adapters selected by
// cloud_provider/db.provider/message_broker.provider against the
// provider-agnostic pipeline.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	awssession "github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/autoscaling"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/route53"
	"github.com/aws/aws-sdk-go/service/sqs"
	cf "github.com/cloudflare/cloudflare-go"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/asgdns/reconciler/internal/config"
	"github.com/asgdns/reconciler/internal/core/domain"
	"github.com/asgdns/reconciler/internal/core/processing"
	"github.com/asgdns/reconciler/internal/database/postgres"
	infraclock "github.com/asgdns/reconciler/internal/infrastructure/clock"
	infradns "github.com/asgdns/reconciler/internal/infrastructure/dns"
	"github.com/asgdns/reconciler/internal/infrastructure/discovery"
	infrakv "github.com/asgdns/reconciler/internal/infrastructure/kv"
	infralock "github.com/asgdns/reconciler/internal/infrastructure/lock"
	inframetrics "github.com/asgdns/reconciler/internal/infrastructure/metrics"
	"github.com/asgdns/reconciler/internal/infrastructure/probes"
	"github.com/asgdns/reconciler/internal/infrastructure/queue"
	"github.com/asgdns/reconciler/internal/ports"
	"github.com/asgdns/reconciler/internal/reconcile"
	"github.com/asgdns/reconciler/pkg/logger"
	"github.com/asgdns/reconciler/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	transition := flag.String("transition", "", "LAUNCHING|DRAINING|RECONCILING|UNRELATED")
	sgName := flag.String("scaling-group", "", "triggering scaling group name")
	instanceID := flag.String("instance", "", "triggering instance id")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("loading configuration failed", "error", err)
		os.Exit(1)
	}

	log := logger.NewLogger(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})

	workflow, cleanup, err := build(cfg, log)
	if err != nil {
		log.Error("building workflow failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	if cfg.Monitoring.MetricsEnabled {
		serveMetrics(cfg, log)
	}

	event := domain.LifecycleEvent{
		Transition:       domain.LifecycleTransition(*transition),
		ScalingGroupName: *sgName,
		InstanceID:       *instanceID,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sg, err := workflow.Run(ctx, event)
	if err != nil {
		log.Error("reconciliation failed", "error", err)
		os.Exit(1)
	}

	summary, _ := json.Marshal(sg.DNSChanges)
	log.Info("reconciliation complete", "sg_name", event.ScalingGroupName, "changes", string(summary))
}

// serveMetrics starts a background HTTP server exposing the process's
// Prometheus registry at monitoring.metrics_port, using the teacher's
// pkg/metrics HTTP exposition handler rather than hand-rolling one.
func serveMetrics(cfg *config.Config, log *slog.Logger) {
	mgr := metrics.NewMetricsManager(metrics.Config{
		Enabled:   true,
		Path:      "/metrics",
		Namespace: cfg.Monitoring.MetricsNamespace,
		Subsystem: "http",
	})

	router := mux.NewRouter()
	router.Handle(mgr.GetPath(), mgr.Handler()).Methods(http.MethodGet)

	addr := fmt.Sprintf(":%d", cfg.Monitoring.MetricsPort)
	go func() {
		if err := http.ListenAndServe(addr, router); err != nil {
			log.Error("metrics server stopped", "error", err)
		}
	}()
	log.Info("serving metrics", "addr", addr, "path", mgr.GetPath())
}

// build wires every ports.* adapter named by cfg and returns the composed
// Workflow plus a cleanup func for the underlying clients.
func build(cfg *config.Config, log *slog.Logger) (*reconcile.Workflow, func(), error) {
	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	closers = append(closers, func() { redisClient.Close() })

	kvStore, err := buildKVStore(cfg, log, redisClient, &closers)
	if err != nil {
		return nil, cleanup, err
	}

	lockStore := infralock.NewStore(redisClient, &infralock.LockConfig{
		TTL:         cfg.Lock.TTL,
		ValuePrefix: cfg.Lock.ValuePrefix,
	}, log)

	discoveryPort, err := buildDiscovery(cfg)
	if err != nil {
		return nil, cleanup, err
	}

	dnsProviders, err := buildDNSProviders(cfg, kvStore)
	if err != nil {
		return nil, cleanup, err
	}

	queuePort, err := buildQueue(cfg)
	if err != nil {
		return nil, cleanup, err
	}
	_ = queuePort // reserved for the async enqueue entrypoint; the CLI runs synchronously

	sink := inframetrics.NewPrometheusSink(cfg.Monitoring.MetricsNamespace, prometheus.DefaultRegisterer)
	_ = sink // available to the HTTP/metrics entrypoint; wired through pkg/metrics below for pipeline-internal counters

	metricsRegistry := metrics.NewMetricsRegistry(cfg.Monitoring.MetricsNamespace)
	reconcilerMetrics := metricsRegistry.Reconciler()

	clk := infraclock.New()
	readinessPort := probes.NewTagReadiness(discoveryPort, clk)
	healthPort := probes.NewDialHealthChecker(clk)

	scheduler := processing.NewTaskScheduler(processing.CapacityFromEnv(cfg.ThreadPool.Size), log)

	configLoader := reconcile.NewConfigLoader(kvStore, cfg.DB.ConfigIaCItemKeyID, cfg.DB.ConfigExternalItemKey, domain.MultivalueDowngrade)

	preLock := reconcile.NewPipeline().
		Use("init", reconcile.StageInit(configLoader)).
		Use("load_instance_configs", reconcile.StageLoadInstanceConfigs()).
		Use("readiness_checks", reconcile.StageReadinessChecks(readinessPort, scheduler)).
		Use("health_checks", reconcile.StageHealthChecks(discoveryPort, healthPort, reconcile.ResolveHealthEndpoint, scheduler))

	locked := reconcile.NewPipeline().
		Use("load_metadata", reconcile.StageLoadMetadata(discoveryPort)).
		Use("plan_dns", reconcile.StagePlanDNS(dnsProviders)).
		Use("apply_dns", reconcile.StageApplyDNS(dnsProviders, log, reconcilerMetrics))

	workflow := reconcile.NewWorkflow(lockStore, preLock, locked, log, reconcilerMetrics)
	return workflow, cleanup, nil
}

func buildKVStore(cfg *config.Config, log *slog.Logger, redisClient *redis.Client, closers *[]func()) (ports.KVStore, error) {
	switch cfg.DB.Provider {
	case "postgres":
		pool := postgres.NewPostgresPool(&postgres.PostgresConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Database,
			User:     cfg.Database.Username,
			Password: cfg.Database.Password,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: int32(cfg.Database.MaxConnections),
			MinConns: int32(cfg.Database.MinConnections),
		}, log)
		*closers = append(*closers, func() { pool.Close() })

		healthCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := postgres.NewHealthChecker(pool).CheckHealth(healthCtx); err != nil {
			return nil, fmt.Errorf("postgres not reachable at startup: %w", err)
		}

		return infrakv.NewPostgresStore(pool, cfg.DB.TableName), nil
	case "sqlite":
		store, err := infrakv.NewSQLiteStore(cfg.DB.SQLiteFile, cfg.DB.TableName)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		*closers = append(*closers, func() { store.Close() })
		return store, nil
	case "dynamodb":
		sess, err := awssession.NewSession()
		if err != nil {
			return nil, err
		}
		return infrakv.NewDynamoDBStore(dynamodb.New(sess), cfg.DB.TableName), nil
	case "redis", "":
		return infrakv.NewRedisStore(redisClient), nil
	default:
		return infrakv.NewMockStore(), nil
	}
}

func buildDiscovery(cfg *config.Config) (ports.InstanceDiscovery, error) {
	if cfg.CloudProvider != "aws" {
		return discovery.NewMockDiscovery(), nil
	}
	sess, err := awssession.NewSession()
	if err != nil {
		return nil, err
	}
	return discovery.NewEC2Discovery(ec2.New(sess), autoscaling.New(sess)), nil
}

func buildDNSProviders(cfg *config.Config, kv ports.KVStore) (map[domain.DNSProviderKind]ports.DNSProvider, error) {
	providers := map[domain.DNSProviderKind]ports.DNSProvider{
		domain.ProviderMock: infradns.NewMockProvider(kv),
	}

	if cfg.CloudProvider == "aws" {
		sess, err := awssession.NewSession()
		if err != nil {
			return nil, err
		}
		providers[domain.ProviderRoute53] = infradns.NewRoute53Provider(route53.New(sess), kv)
	}

	if token := os.Getenv("CLOUDFLARE_API_TOKEN"); token != "" {
		client, err := cf.NewWithAPIToken(token)
		if err != nil {
			return nil, err
		}
		providers[domain.ProviderCloudflare] = infradns.NewCloudflareProvider(client, kv)
	}

	return providers, nil
}

func buildQueue(cfg *config.Config) (ports.Queue, error) {
	switch cfg.MessageBroker.Provider {
	case "sqs":
		sess, err := awssession.NewSession()
		if err != nil {
			return nil, err
		}
		return queue.NewSQSQueue(sqs.New(sess), cfg.MessageBroker.URL), nil
	default:
		return queue.NewMockQueue(), nil
	}
}
