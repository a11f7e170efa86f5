package cmd

import (
	"context"
	"fmt"
	"time"

	"go.ntppool.org/common/health"
	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/metricsserver"
	"golang.org/x/sync/errgroup"

	"github.com/auraprotocol/diamond/client/httpclient"
	"github.com/auraprotocol/diamond/cutlog"
	"github.com/auraprotocol/diamond/diamond"
	"github.com/auraprotocol/diamond/invoke"
	"github.com/auraprotocol/diamond/manifest"
	"github.com/auraprotocol/diamond/mqttcm"
	"github.com/auraprotocol/diamond/regdb"
	"github.com/auraprotocol/diamond/server"
	"github.com/auraprotocol/diamond/version"
)

type serverCmd struct {
	API      server.Config `embed:""`
	Database regdb.Config  `embed:"" prefix:"db-"`
	MQTT     mqttcm.Config `embed:"" prefix:"mqtt-"`

	Owner     string `name:"owner" env:"DIAMOND_OWNER" help:"initial owner of an empty registry (default: the manifest owner)"`
	Manifest  string `name:"manifest" env:"DIAMOND_MANIFEST" type:"existingfile" help:"deployment manifest with the facet endpoints"`
	Bootstrap bool   `name:"bootstrap" help:"apply the manifest as the first cut when the registry is empty"`
	History   int    `name:"history" default:"256" help:"records kept by the file store"`

	InvokeTimeout time.Duration `name:"invoke-timeout" default:"30s" help:"timeout for calls to facet endpoints"`
	MetricsPort   int           `name:"metrics-port" default:"9000" help:"port for prometheus metrics"`
	HealthPort    int           `name:"health-port" default:"8080" help:"port for the health check listener"`
}

func (cmd *serverCmd) Run(ctx context.Context, root *ServerCmd) error {
	log := logger.FromContext(ctx)
	log.InfoContext(ctx, "diamondd starting", "version", version.Version(), "env", root.depEnv)

	tpShutdown, err := initTracing(ctx, root.depEnv)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		if err := tpShutdown(context.WithoutCancel(ctx)); err != nil {
			log.Warn("tracing shutdown", "err", err)
		}
	}()

	metricssrv := metricsserver.New()
	version.RegisterMetric("diamondd", metricssrv.Registry())

	opts := []diamond.Option{
		diamond.WithLogger(log),
		diamond.WithMetrics(diamond.NewMetrics(metricssrv.Registry())),
	}

	var m *manifest.Manifest
	if cmd.Manifest != "" {
		m, err = manifest.Load(cmd.Manifest)
		if err != nil {
			return err
		}
	}

	owner, err := cmd.genesisOwner(m)
	if err != nil {
		return err
	}
	if !owner.IsZero() {
		opts = append(opts, diamond.WithOwner(owner))
	}

	store, closeStore, err := cmd.openStore(ctx, root.StateDir)
	if err != nil {
		return err
	}
	defer closeStore()
	opts = append(opts, diamond.WithStore(store))

	endpoints := map[diamond.Address]string{}
	if m != nil {
		endpoints, err = m.Endpoints()
		if err != nil {
			return err
		}
	}
	opts = append(opts, diamond.WithInvoker(invoke.NewHTTP(httpclient.New(cmd.InvokeTimeout), endpoints)))

	var mq mqttConn
	if cmd.MQTT.Enabled() {
		cm, err := mqttcm.Setup(ctx, cmd.MQTT, mqttcm.NewTopics(root.depEnv))
		if err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
		mq = cm
		opts = append(opts, diamond.WithNotifier(mqttcm.NewPublisher(cm, mqttcm.NewTopics(root.depEnv))))
	}

	d, err := diamond.Open(ctx, opts...)
	if err != nil {
		return err
	}
	defer d.Close()

	if cmd.Bootstrap && m != nil && d.Seq() == 0 {
		if err := bootstrap(ctx, d, m); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return metricssrv.ListenAndServe(ctx, cmd.MetricsPort)
	})

	g.Go(func() error {
		health.HealthCheckListener(ctx, cmd.HealthPort, log.WithGroup("health"))
		return nil
	})

	g.Go(func() error {
		return server.New(ctx, d, cmd.API.JWTKey, server.WithMetrics(metricssrv.Registry())).Run(ctx, cmd.API.Listen)
	})

	if mq != nil {
		g.Go(func() error {
			select {
			case <-mq.Done():
				log.Info("mqtt connection done")
			case <-ctx.Done():
				disconnectCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				defer cancel()
				if err := mq.Disconnect(disconnectCtx); err != nil {
					log.Warn("mqtt disconnect", "err", err)
				}
			}
			return nil
		})
	}

	return g.Wait()
}

type mqttConn interface {
	Done() <-chan struct{}
	Disconnect(ctx context.Context) error
}

func (cmd *serverCmd) genesisOwner(m *manifest.Manifest) (diamond.Address, error) {
	if cmd.Owner != "" {
		return diamond.ParseAddress(cmd.Owner)
	}
	if m != nil && m.Owner != "" {
		return m.OwnerAddress()
	}
	return diamond.Address{}, nil
}

func (cmd *serverCmd) openStore(ctx context.Context, stateDir string) (diamond.Store, func(), error) {
	log := logger.FromContext(ctx)

	if cmd.Database.Enabled() {
		pool, err := regdb.OpenDB(ctx, cmd.Database)
		if err != nil {
			return nil, nil, err
		}
		log.InfoContext(ctx, "using database store")
		return regdb.NewStore(pool), pool.Close, nil
	}

	store, err := cutlog.Open(stateDir, cutlog.WithHistory(cmd.History))
	if err != nil {
		return nil, nil, err
	}
	log.InfoContext(ctx, "using file store", "path", store.Path())
	return store, func() {}, nil
}

// bootstrap applies the manifest cut as the owner of a fresh registry.
func bootstrap(ctx context.Context, d *diamond.Diamond, m *manifest.Manifest) error {
	batch, err := m.Batch()
	if err != nil {
		return err
	}
	rec, err := d.SubmitCut(ctx, d.Owner(), batch)
	if err != nil {
		return fmt.Errorf("bootstrap cut: %w", err)
	}
	logger.FromContext(ctx).InfoContext(ctx, "applied manifest", "seq", rec.Seq, "facets", len(rec.Facets))
	return nil
}
