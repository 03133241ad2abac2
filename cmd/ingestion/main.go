package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"logshelf/config"                                  // Unified configuration package
	core "logshelf/ingestion/service/core"             // Ingestion pass and query logic
	grpchandler "logshelf/ingestion/service/grpc"      // gRPC LogStore service
	httphandler "logshelf/ingestion/service/http"      // HTTP routes and CORS
	"logshelf/ingestion/source"                        // Log file source
	"logshelf/internal/messaging/producer"             // Kafka or in-memory producer
	"logshelf/storage/store"                           // Postgres or in-memory store
)

func main() {
	configDir := flag.String("config-dir", "./config", "directory containing "+config.IngestionConfigFile)
	flag.Parse()

	logger := log.New(os.Stdout, "[INGEST] ", log.LstdFlags|log.Lshortfile)
	logger.Println("Starting log ingestion service...")

	// 1. Load configuration
	appCfg, err := config.LoadConfig(*configDir)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := appCfg.Ingestion
	cfg.Database.LogConfiguration()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Initialize dependencies
	logger.Println("Initializing record store...")
	recordStore, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize record store: %v", err)
	}
	defer recordStore.Close()

	logger.Println("Initializing producer...")
	recordProducer, err := producer.New(cfg.KafkaProducer, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize producer: %v", err)
	}
	defer recordProducer.Close()

	// 3. Create core Service and handlers
	coreService := core.NewService(
		recordStore,
		source.NewFileSource(cfg.Source.Path, cfg.Source.MaxLineBytes),
		recordProducer,
		logger,
		cfg.Publisher.BatchSize,
		cfg.Publisher.BatchTimeout,
		cfg.Publisher.FlushChannelBuffer,
	)
	defer coreService.Close() // Drains the publisher before the producer closes
	logHttpHandler := httphandler.NewLogHandler(coreService, logger)
	logGrpcService := grpchandler.NewServer(coreService, logger)

	var wg sync.WaitGroup

	// 4. [Conditional startup] HTTP server
	var httpServer *http.Server
	if cfg.HttpListenAddr != "" {
		mux := http.NewServeMux()
		logHttpHandler.Register(mux)

		httpServer = &http.Server{
			Addr:           cfg.HttpListenAddr,
			Handler:        httphandler.CORS(cfg.CORS, mux),
			ReadTimeout:    cfg.HttpServer.ReadTimeout,
			WriteTimeout:   cfg.HttpServer.WriteTimeout,
			IdleTimeout:    cfg.HttpServer.IdleTimeout,
			MaxHeaderBytes: cfg.HttpServer.MaxHeaderBytes,
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Printf("HTTP server listening on %s", cfg.HttpListenAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatalf("HTTP server startup failed: %v", err)
			}
			logger.Println("HTTP server stopped listening.")
		}()
	} else {
		logger.Println("http_listen_addr not configured, skipping HTTP server startup.")
	}

	// 5. [Conditional startup] gRPC server
	var grpcServer *grpc.Server
	if cfg.GrpcListenAddr != "" {
		lis, err := net.Listen("tcp", cfg.GrpcListenAddr)
		if err != nil {
			logger.Fatalf("Unable to listen on gRPC port %s: %v", cfg.GrpcListenAddr, err)
		}
		grpcServer = grpc.NewServer()
		logGrpcService.Register(grpcServer)
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Printf("gRPC server listening on %s", cfg.GrpcListenAddr)
			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				logger.Fatalf("gRPC server startup failed: %v", err)
			}
			logger.Println("gRPC server stopped listening.")
		}()
	} else {
		logger.Println("grpc_listen_addr not configured, skipping gRPC server startup.")
	}

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Printf("Received shutdown signal: %s, starting graceful shutdown...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		logger.Println("Shutting down HTTP server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("HTTP server shutdown failed: %v", err)
		} else {
			logger.Println("HTTP server shutdown.")
		}
	}
	if grpcServer != nil {
		logger.Println("Shutting down gRPC server...")
		grpcServer.GracefulStop()
		logger.Println("gRPC server shutdown.")
	}

	// Wait for HTTP server and gRPC server to finish
	wg.Wait()
	logger.Println("All servers stopped. Ingestion service shutdown.")
}
