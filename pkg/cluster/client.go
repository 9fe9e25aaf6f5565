package cluster

import (
	"context"

	"github.com/pkg/errors"
	batchv1 "k8s.io/api/batch/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

var (
	ErrSecretNotFound = errors.New("credential secret not found")
	ErrJobExists      = errors.New("job already exists")
)

// JobClient is the subset of the cluster API the orchestrator consumes:
// reading a credential secret and creating batch jobs.
type JobClient struct {
	clientset kubernetes.Interface
}

func NewJobClient(clientset kubernetes.Interface) *JobClient {
	return &JobClient{
		clientset: clientset,
	}
}

func (c *JobClient) SecretExists(ctx context.Context, namespace, name string) error {
	_, err := c.clientset.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return errors.Wrapf(ErrSecretNotFound, "secret '%s' in namespace '%s'", name, namespace)
		}
		return errors.Wrapf(err, "Unable to read secret '%s' in namespace '%s'", name, namespace)
	}

	return nil
}

func (c *JobClient) CreateJob(ctx context.Context, namespace string, job *batchv1.Job) error {
	_, err := c.clientset.BatchV1().Jobs(namespace).Create(ctx, job, metav1.CreateOptions{})
	if err != nil {
		if apierrors.IsAlreadyExists(err) {
			return errors.Wrapf(ErrJobExists, "job '%s'", job.Name)
		}
		return errors.Wrapf(err, "Unable to create job '%s'", job.Name)
	}

	return nil
}
