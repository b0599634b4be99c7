// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package main

// This is the scheduler's production entrypoint: command-line/env-var
// options via envflag, a TOML seed file for the longer-lived queue
// topology, a prometheus metrics server, and the C6 wire surface HTTP
// server, each started on its own goroutine and shut down on context
// cancellation.

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-stack/stack"
	"github.com/jjeffery/kv" // MIT License
	"github.com/karlmutch/envflag"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leaf-ai/batch-scheduler/internal/adapter"
	"github.com/leaf-ai/batch-scheduler/internal/config"
	"github.com/leaf-ai/batch-scheduler/internal/coordinator"
	"github.com/leaf-ai/batch-scheduler/internal/graph"
	"github.com/leaf-ai/batch-scheduler/internal/logger"
	"github.com/leaf-ai/batch-scheduler/internal/metrics"
	"github.com/leaf-ai/batch-scheduler/internal/queue"
	"github.com/leaf-ai/batch-scheduler/internal/wire"
)

var (
	seedFileOpt = flag.String("seed-file", "", "a TOML file describing seed queues, dependencies, and options")

	runtimeKindOpt = flag.String("runtime", "process", "the runtime adapter backing jobs: 'process' or 'amqp'")

	amqpURLOpt   = flag.String("amqp-url", "", "the amqp:// URL of the control exchange, required when -runtime=amqp")
	amqpMgmtOpt  = flag.String("amqp-mgmt-url", "", "the RabbitMQ management API URL, required when -runtime=amqp")
	amqpUserOpt  = flag.String("amqp-mgmt-user", "guest", "the RabbitMQ management API username")
	amqpPassOpt  = flag.String("amqp-mgmt-pass", "guest", "the RabbitMQ management API password")
	amqpExchgOpt = flag.String("amqp-exchange", "scheduler", "the control exchange jobs are dispatched on")

	wirePrefixOpt = flag.String("wire-prefix", "/v1/", "the URL prefix the C6 command surface is served under")

	shutdownGraceOpt = flag.Duration("shutdown-grace", 10*time.Second, "how long to wait for queues to drain on shutdown before exiting non-zero")

	log = logger.New("scheduler")
)

func main() {
	flag.Usage = usage
	envflag.Parse()

	clean, errs := run()
	for _, err := range errs {
		log.Error(err.Error())
	}
	if len(errs) != 0 || !clean {
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "batch-scheduler: a dependency-aware queue scheduler")
	flag.PrintDefaults()
}

func run() (clean bool, errs []kv.Error) {
	cfg, err := config.Load(*seedFileOpt)
	if err != nil {
		return false, []kv.Error{err}
	}
	if err := cfg.Validate(); err != nil {
		return false, []kv.Error{err}
	}

	g, err := buildGraph(cfg)
	if err != nil {
		return false, []kv.Error{err}
	}
	log.Trace(fmt.Sprintf("loaded config: %d queue dependencies, %d seed queues", len(cfg.QueueDependencies), len(cfg.Queues)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New(hostName())

	runtime, eventLoop, err := buildRuntime(ctx)
	if err != nil {
		return false, []kv.Error{err}
	}

	coord := coordinator.New(g, runtime, coordinator.Options{
		PurgeOnError:      cfg.PurgeOnError,
		SuspendDependants: cfg.SuspendDependants,
		StopWhenDone:      cfg.StopWhenDone,
	}, log, m)
	defer coord.Stop()

	if eventLoop != nil {
		go eventLoop(ctx, coord)
	}

	seedInit(coord, cfg)

	if !cfg.QueuesStatic {
		surface := wire.NewSurface(coord, log)
		startWireServer(ctx, cfg.WireAddress, *wirePrefixOpt, surface)
	}
	startMetricsServer(ctx, cfg.MetricsAddress)

	clean = waitForShutdown(ctx, cancel, coord)

	return clean, nil
}

// buildGraph constructs the Dependency Graph (C1) from the seed file's
// queue_dependencies option.
func buildGraph(cfg *config.Config) (*graph.Graph, kv.Error) {
	pairs := make([]graph.Pair, 0, len(cfg.QueueDependencies))
	for _, d := range cfg.QueueDependencies {
		pairs = append(pairs, graph.Pair{Name: d.Queue, Dependencies: d.DependsOn})
	}
	return graph.New(pairs)
}

// buildRuntime selects the Runtime Adapter (C3) implementation named by
// -runtime, and, for the amqp adapter, a driver goroutine that forwards
// its lifecycle events into the coordinator.
func buildRuntime(ctx context.Context) (adapter.Runtime, func(context.Context, *coordinator.Coordinator), kv.Error) {
	switch *runtimeKindOpt {
	case "process":
		return adapter.NewProcessRuntime(log), nil, nil
	case "amqp":
		if len(*amqpURLOpt) == 0 || len(*amqpMgmtOpt) == 0 {
			return nil, nil, kv.NewError("amqp runtime requires -amqp-url and -amqp-mgmt-url").With("stack", stack.Trace().TrimRuntime())
		}
		rt, err := adapter.NewAMQPRuntime(log, *amqpURLOpt, *amqpMgmtOpt, *amqpUserOpt, *amqpPassOpt, *amqpExchgOpt)
		if err != nil {
			return nil, nil, err
		}
		return rt, driveAMQPEvents(rt), nil
	default:
		return nil, nil, kv.NewError("unknown runtime kind").With("runtime", *runtimeKindOpt).With("stack", stack.Trace().TrimRuntime())
	}
}

// driveAMQPEvents forwards an AMQPRuntime's decoded lifecycle deliveries
// into the coordinator's init-after/terminate-before event methods.
func driveAMQPEvents(rt *adapter.AMQPRuntime) func(context.Context, *coordinator.Coordinator) {
	return func(ctx context.Context, coord *coordinator.Coordinator) {
		for {
			select {
			case <-ctx.Done():
				return
			case lm := <-rt.Events():
				switch lm.Kind {
				case "init_after":
					coord.InitAfter(lm.Queue, lm.TimeoutInit)
				case "terminate_before":
					coord.TerminateBefore(lm.Queue, lm.Reason, lm.TimeoutTerminate)
				default:
					log.Warn("unrecognized lifecycle event kind", "kind", lm.Kind, "queue", lm.Queue)
				}
			}
		}
	}
}

// seedInit replays the seed file's queues option as services_add calls,
// the init sequence a freshly started process runs before serving
// commands. Queue state from an earlier process is not recovered.
func seedInit(coord *coordinator.Coordinator, cfg *config.Config) {
	for _, seed := range cfg.Queues {
		cfgs := make([]queue.Config, 0, len(seed.Configs))
		for _, raw := range seed.Configs {
			cfgs = append(cfgs, rawToConfig(raw))
		}
		if _, err := coord.ServicesAdd(seed.Queue, cfgs); err != nil {
			log.Warn("seed-init failed to add queue", "queue", seed.Queue, "error", err.Error())
		}
	}
}

func rawToConfig(raw map[string]interface{}) queue.Config {
	cfg := queue.Config{Inline: raw}
	if kind, ok := raw["kind"].(string); ok {
		cfg.Kind = kind
	}
	return cfg
}

func startMetricsServer(ctx context.Context, addr string) {
	if len(addr) == 0 {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	startServer(ctx, "metrics", addr, mux)
}

func startWireServer(ctx context.Context, addr, prefix string, surface *wire.Surface) {
	if len(addr) == 0 {
		return
	}
	startServer(ctx, "wire", addr, wire.NewRouter(prefix, surface))
}

func startServer(ctx context.Context, name, addr string, handler http.Handler) {
	h := &http.Server{Addr: addr, Handler: handler}

	go func() {
		log.Info(fmt.Sprintf("%s server listening on %s", name, addr))
		if err := h.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(fmt.Sprintf("%s server stopped", name), "error", err.Error(), "stack", stack.Trace().TrimRuntime())
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.Shutdown(shutdownCtx); err != nil {
			log.Warn(fmt.Sprintf("%s server shutdown", name), "error", err.Error())
		}
	}()
}

// waitForShutdown blocks until either an OS termination signal arrives or
// the coordinator's own stop_when_done condition fires, then cancels ctx
// to drain the metrics/wire servers and polls the coordinator's queue
// count until it reaches zero or -shutdown-grace elapses. It reports
// whether the drain completed cleanly within the grace period.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, coord *coordinator.Coordinator) (clean bool) {
	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigC:
		log.Info(fmt.Sprintf("received signal %s, shutting down", sig))
	case <-coord.ShutdownC():
		log.Info("stop_when_done satisfied, shutting down")
	case <-ctx.Done():
	}

	cancel()

	deadline := time.Now().Add(*shutdownGraceOpt)
	for {
		if n := coord.QueueCount(); n == 0 {
			return true
		}
		if time.Now().After(deadline) {
			log.Warn("shutdown grace period elapsed with queues still non-empty")
			return false
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func hostName() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
