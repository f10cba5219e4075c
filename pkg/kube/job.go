// Package kube runs scramble jobs inside a Kubernetes cluster. Each job
// pulls one image out of the bucket, scrambles it and uploads the result.
package kube

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	meta "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/retry"
)

// AppLabel is set on every job the scrambler creates.
const AppLabel = "image-scrambler"

// ScrambleJob describes a remote scramble of one bucket object.
type ScrambleJob struct {
	Name      string
	Namespace string
	Image     string

	Bucket string
	Key    string
	// Args are extra scramble flags such as --gray or --puzzle --grid=3,3.
	Args []string

	// Env is passed to the container as is, e.g. S3_ENDPOINT.
	Env map[string]string
	// CredentialsSecret names a secret with access-key and secret-key
	// entries. When set, the S3 credentials are read from it.
	CredentialsSecret string
}

var invalidName = regexp.MustCompile(`[^a-z0-9-]`)

// JobName derives a valid, unique job name from an object key.
func JobName(key string, now time.Time) string {
	base := strings.TrimSuffix(path.Base(key), path.Ext(key))
	sanitized := invalidName.ReplaceAllString(strings.ToLower(base), "-")
	sanitized = strings.Trim(sanitized, "-")

	suffix := fmt.Sprintf("-%d", now.UnixNano())
	if limit := 63 - len("scramble-") - len(suffix); len(sanitized) > limit {
		sanitized = strings.TrimRight(sanitized[:limit], "-")
	}
	if sanitized == "" {
		return "scramble" + suffix
	}
	return "scramble-" + sanitized + suffix
}

func int32Ptr(i int32) *int32 { return &i }

// BuildJob returns the batch/v1 Job for j.
func BuildJob(j ScrambleJob) *batchv1.Job {
	command := append([]string{
		"scrambler", "scramble",
		"--from-bucket", j.Bucket,
		"--key", j.Key,
		"--upload",
	}, j.Args...)

	var env []corev1.EnvVar
	for k, v := range j.Env {
		env = append(env, corev1.EnvVar{Name: k, Value: v})
	}
	env = append(env, corev1.EnvVar{Name: "S3_BUCKET", Value: j.Bucket})
	if j.CredentialsSecret != "" {
		env = append(env,
			secretEnv("S3_ACCESS_KEY", j.CredentialsSecret, "access-key"),
			secretEnv("S3_SECRET_KEY", j.CredentialsSecret, "secret-key"),
		)
	}
	sort.Slice(env, func(a, b int) bool { return env[a].Name < env[b].Name })

	return &batchv1.Job{
		ObjectMeta: meta.ObjectMeta{
			Name:      j.Name,
			Namespace: j.Namespace,
			Labels:    map[string]string{"app": AppLabel},
		},
		Spec: batchv1.JobSpec{
			BackoffLimit: int32Ptr(1),
			Template: corev1.PodTemplateSpec{
				ObjectMeta: meta.ObjectMeta{
					Labels: map[string]string{"job-name": j.Name, "app": AppLabel},
				},
				Spec: corev1.PodSpec{
					RestartPolicy: corev1.RestartPolicyOnFailure,
					Containers: []corev1.Container{{
						Name:    "scrambler",
						Image:   j.Image,
						Command: command,
						Env:     env,
					}},
				},
			},
		},
	}
}

func secretEnv(name, secret, key string) corev1.EnvVar {
	return corev1.EnvVar{
		Name: name,
		ValueFrom: &corev1.EnvVarSource{
			SecretKeyRef: &corev1.SecretKeySelector{
				LocalObjectReference: corev1.LocalObjectReference{Name: secret},
				Key:                  key,
			},
		},
	}
}

// Submitter creates scramble jobs.
type Submitter struct {
	client kubernetes.Interface
}

// NewSubmitter connects with the given kubeconfig, or the default
// ~/.kube/config when empty.
func NewSubmitter(kubeconfig string) (*Submitter, error) {
	if kubeconfig == "" {
		kubeconfig = clientcmd.RecommendedHomeFile
	}
	cfg, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("loading kubeconfig: %w", err)
	}
	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("building clientset: %w", err)
	}
	return NewSubmitterWithClient(clientset), nil
}

// NewSubmitterWithClient uses an existing clientset.
func NewSubmitterWithClient(client kubernetes.Interface) *Submitter {
	return &Submitter{client: client}
}

// Submit creates the job for j, retrying on conflicts.
func (s *Submitter) Submit(ctx context.Context, j ScrambleJob) (*batchv1.Job, error) {
	job := BuildJob(j)
	var created *batchv1.Job
	err := retry.RetryOnConflict(retry.DefaultRetry, func() error {
		var err error
		created, err = s.client.BatchV1().Jobs(j.Namespace).Create(ctx, job, meta.CreateOptions{})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating job %s: %w", j.Name, err)
	}
	return created, nil
}
