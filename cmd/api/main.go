package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	_ "github.com/joho/godotenv/autoload"

	"cloud-lab/handler"
	"cloud-lab/internal/integrations/metadata"
	"cloud-lab/internal/integrations/paramstore"
	"cloud-lab/internal/repository"
	"cloud-lab/internal/storage"
	"cloud-lab/internal/usecase"
)

func main() {
	ctx := context.Background()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// ---- Configuration (read only here) ----
	bucketName := mustEnv("S3_BUCKET_NAME")
	roleName := mustEnv("ROLE_NAME")
	tableName := envOr("MESSAGES_TABLE", "Messages")
	region := envOr("AWS_REGION", "us-east-1")
	addr := ":" + envOr("PORT", "8000")
	imdsEndpoint := os.Getenv("IMDS_ENDPOINT")

	// ---- Temporary credentials, fetched once ----
	metaClient, err := metadata.New(metadata.NewIMDS(imdsEndpoint), roleName)
	if err != nil {
		slog.Error("failed to create metadata client", "err", err)
		os.Exit(1)
	}
	creds, err := metaClient.Fetch(ctx)
	if err != nil {
		slog.Error("failed to fetch AWS credentials", "role", roleName, "err", err)
		os.Exit(1)
	}
	slog.Info("fetched temporary credentials", "role", roleName, "expires", creds.Expiration)

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken,
		)),
	)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	if paramstore.IsRef(bucketName) || paramstore.IsRef(tableName) {
		params, err := paramstore.New(awsssm.NewFromConfig(cfg))
		if err != nil {
			slog.Error("failed to create SSM client", "err", err)
			os.Exit(1)
		}
		bucketName = mustResolve(ctx, params, "S3_BUCKET_NAME", bucketName)
		tableName = mustResolve(ctx, params, "MESSAGES_TABLE", tableName)
	}

	// ---- Clients ----
	objects, err := storage.New(awss3.NewFromConfig(cfg), bucketName)
	if err != nil {
		slog.Error("failed to create storage client", "err", err)
		os.Exit(1)
	}
	messagesTable, err := repository.New(awsdynamodb.NewFromConfig(cfg), tableName)
	if err != nil {
		slog.Error("failed to create messages table client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	files, err := usecase.NewFileService(objects)
	if err != nil {
		slog.Error("failed to create file service", "err", err)
		os.Exit(1)
	}
	messages, err := usecase.NewMessageService(messagesTable)
	if err != nil {
		slog.Error("failed to create message service", "err", err)
		os.Exit(1)
	}
	h, err := handler.NewHandler(files, messages, slog.Default())
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("api listening", "addr", addr, "bucket", objects.Bucket(), "table", tableName, "region", region)
	if err := serve(srv); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

// serve runs srv until SIGINT or SIGTERM, then drains in-flight requests.
func serve(srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-sig:
		slog.Info("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func mustResolve(ctx context.Context, params *paramstore.Client, key, value string) string {
	v, err := params.Resolve(ctx, value)
	if err != nil {
		slog.Error("failed to resolve configuration value", "key", key, "err", err)
		os.Exit(1)
	}
	return v
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
