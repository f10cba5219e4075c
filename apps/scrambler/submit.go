package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/PhantomInTheWire/image-scrambler/pkg/kube"
	"github.com/PhantomInTheWire/image-scrambler/pkg/scramble"
)

var submitFlags struct {
	transform transformFlags

	keys              []string
	bucket            string
	namespace         string
	image             string
	kubeconfig        string
	credentialsSecret string
}

var submitCmd = &cobra.Command{
	Use:   "submit --key <key> [--key <key>...]",
	Short: "Scramble bucket objects with Kubernetes jobs",
	Long: `Create one Kubernetes Job per object key. Each job downloads the
object from the bucket, scrambles it with the given operations and uploads
the result under the configured prefix.

Examples:
  scrambler submit --key uploads/cat.png --gray
  scrambler submit --bucket images --key a.png --key b.png --puzzle --grid 3,3
  scrambler submit --key cat.png --flipv --credentials-secret minio-creds`,
	Args: cobra.NoArgs,
	RunE: runSubmit,
}

func init() {
	f := submitCmd.Flags()
	submitFlags.transform.register(f)
	f.StringArrayVar(&submitFlags.keys, "key", nil, "Object key to scramble (repeatable)")
	f.StringVar(&submitFlags.bucket, "bucket", "", "Source bucket (default from config)")
	f.StringVar(&submitFlags.namespace, "namespace", "", "Job namespace (default from config)")
	f.StringVar(&submitFlags.image, "image", "", "Scrambler container image (default from config)")
	f.StringVar(&submitFlags.kubeconfig, "kubeconfig", "", "Path to kubeconfig (default ~/.kube/config)")
	f.StringVar(&submitFlags.credentialsSecret, "credentials-secret", "", "Secret holding access-key and secret-key")
	_ = submitCmd.MarkFlagRequired("key")
}

// jobArgs renders opts as scramble flags for the job container.
func jobArgs(opts scramble.Options) []string {
	var args []string
	if opts.FlipVertical {
		args = append(args, "--flipv")
	}
	if opts.FlipHorizontal {
		args = append(args, "--fliph")
	}
	if opts.Gray {
		args = append(args, "--gray")
	}
	if opts.Puzzle {
		cols, rows := opts.Grid()
		args = append(args, "--puzzle", fmt.Sprintf("--grid=%d,%d", cols, rows))
	}
	return args
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	opts, err := submitFlags.transform.options(cfg, cmd.Flags())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	submitter, err := kube.NewSubmitter(firstNonEmpty(submitFlags.kubeconfig, cfg.Kube.Kubeconfig))
	if err != nil {
		return err
	}

	bucket := firstNonEmpty(submitFlags.bucket, cfg.Storage.Bucket)
	env := map[string]string{
		"S3_ENDPOINT": cfg.Storage.Endpoint,
		"S3_REGION":   cfg.Storage.Region,
		"S3_PREFIX":   cfg.Storage.Prefix,
	}
	if submitFlags.credentialsSecret == "" {
		env["S3_ACCESS_KEY"] = cfg.Storage.AccessKey
		env["S3_SECRET_KEY"] = cfg.Storage.SecretKey
	}

	failed := 0
	for _, key := range submitFlags.keys {
		job := kube.ScrambleJob{
			Name:              kube.JobName(key, time.Now()),
			Namespace:         firstNonEmpty(submitFlags.namespace, cfg.Kube.Namespace),
			Image:             firstNonEmpty(submitFlags.image, cfg.Kube.Image),
			Bucket:            bucket,
			Key:               key,
			Args:              jobArgs(opts),
			Env:               env,
			CredentialsSecret: submitFlags.credentialsSecret,
		}
		if _, err := submitter.Submit(ctx, job); err != nil {
			logger.Error("failed to create job", "key", key, "err", err)
			failed++
			continue
		}
		logger.Info("job created", "job", job.Name, "namespace", job.Namespace, "key", key)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(submitFlags.keys))
	}
	return nil
}
