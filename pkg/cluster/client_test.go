package cluster

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
)

func testSecret() *corev1.Secret {
	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "sql-connection-secret", Namespace: "default"},
		Data:       map[string][]byte{"CONN_STR": []byte("server=db")},
	}
}

func TestJobClient_SecretExists(t *testing.T) {
	client := NewJobClient(fake.NewSimpleClientset(testSecret()))

	err := client.SecretExists(context.Background(), "default", "sql-connection-secret")

	assert.Nil(t, err)
}

func TestJobClient_SecretExists_NotFound(t *testing.T) {
	client := NewJobClient(fake.NewSimpleClientset())

	err := client.SecretExists(context.Background(), "default", "sql-connection-secret")

	require.Error(t, err)
	assert.Equal(t, ErrSecretNotFound, errors.Cause(err))
}

func TestJobClient_SecretExists_OtherError(t *testing.T) {
	clientset := fake.NewSimpleClientset(testSecret())
	clientset.PrependReactor("get", "secrets", func(action k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("connection refused")
	})

	err := NewJobClient(clientset).SecretExists(context.Background(), "default", "sql-connection-secret")

	require.Error(t, err)
	assert.NotEqual(t, ErrSecretNotFound, errors.Cause(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestJobClient_CreateJob(t *testing.T) {
	clientset := fake.NewSimpleClientset()
	client := NewJobClient(clientset)

	job := &batchv1.Job{ObjectMeta: metav1.ObjectMeta{Name: "sql-runner-1"}}

	err := client.CreateJob(context.Background(), "jobs", job)
	require.Nil(t, err)

	created, err := clientset.BatchV1().Jobs("jobs").Get(context.Background(), "sql-runner-1", metav1.GetOptions{})
	require.Nil(t, err)
	assert.Equal(t, "sql-runner-1", created.Name)
}

func TestJobClient_CreateJob_AlreadyExists(t *testing.T) {
	existing := &batchv1.Job{ObjectMeta: metav1.ObjectMeta{Name: "sql-runner-1", Namespace: "jobs"}}
	client := NewJobClient(fake.NewSimpleClientset(existing))

	err := client.CreateJob(context.Background(), "jobs", &batchv1.Job{ObjectMeta: metav1.ObjectMeta{Name: "sql-runner-1"}})

	require.Error(t, err)
	assert.Equal(t, ErrJobExists, errors.Cause(err))
}
