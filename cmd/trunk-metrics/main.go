package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sweeney/trunk-metrics/internal/config"
	"github.com/sweeney/trunk-metrics/internal/genesys"
	"github.com/sweeney/trunk-metrics/internal/publisher"
	"github.com/sweeney/trunk-metrics/internal/report"
	"github.com/sweeney/trunk-metrics/internal/store"
	"github.com/sweeney/trunk-metrics/internal/supervisor"
)

func main() {
	configPath := flag.String("config", "/etc/trunk-metrics/trunk-metrics.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, shutting down", sig)
		cancel()
	}()

	pub, err := publisher.NewMQTTPublisher(publisher.MQTTOptions{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID,
		QoS:      1,
	})
	if err != nil {
		log.Fatalf("connecting to MQTT: %v", err)
	}
	defer pub.Close()

	log.Printf("connected to MQTT broker %s", cfg.MQTT.Broker)

	client := genesys.NewClient(genesys.Options{
		Region:       cfg.Genesys.Region,
		ClientID:     cfg.Genesys.ClientID,
		ClientSecret: cfg.Genesys.ClientSecret,
	})

	st := store.New()

	reporter := report.New(st, pub, cfg.MQTT.TopicPrefix, cfg.MQTT.ReportInterval())
	go reporter.Run(ctx)

	sup := supervisor.New(supervisor.Config{
		TrunkIDs: cfg.Trunks,
	}, client, client, supervisor.WebsocketDialer{}, st)

	log.Printf("tracking %d trunks in region %s", len(cfg.Trunks), cfg.Genesys.Region)

	if err := sup.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("error: %v", err)
	}

	log.Println("shutdown complete")
}
