package orchestrator

import (
	"fmt"
	"runtime"
	"sort"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
)

const (
	AppName = "sql-runner"

	LabelApp   = "app"
	LabelBatch = "batch"

	EnvMode             = "MODE"
	EnvConnectionString = "CONN_STR"

	batchIdLayout = "20060102150405"
)

// JobTemplate holds everything a runner job needs apart from its batch and
// sequence number.
type JobTemplate struct {
	Image      string
	SecretName string
	SecretKey  string
	TTLSeconds int32

	// NodeOS is the value of the kubernetes.io/os node selector.
	NodeOS string

	// Env is forwarded to the runner container as plain values.
	Env map[string]string
}

func BatchId(t time.Time) string {
	return t.UTC().Format(batchIdLayout)
}

func JobName(batchId string, seq int) string {
	return fmt.Sprintf("%s-%s-%d", AppName, batchId, seq)
}

// NodeOS reports the operating system of the orchestrator host. Runner jobs
// are pinned to nodes of the same OS.
func NodeOS() string {
	if runtime.GOOS == "windows" {
		return "windows"
	}
	return "linux"
}

func BuildJob(tpl JobTemplate, batchId string, seq int) *batchv1.Job {
	name := JobName(batchId, seq)
	labels := map[string]string{
		LabelApp:   AppName,
		LabelBatch: batchId,
	}

	return &batchv1.Job{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "batch/v1",
			Kind:       "Job",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:   name,
			Labels: labels,
		},
		Spec: batchv1.JobSpec{
			BackoffLimit:            ptr.To(int32(0)),
			TTLSecondsAfterFinished: ptr.To(tpl.TTLSeconds),
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: copyLabels(labels),
				},
				Spec: corev1.PodSpec{
					RestartPolicy: corev1.RestartPolicyNever,
					NodeSelector: map[string]string{
						corev1.LabelOSStable: tpl.NodeOS,
					},
					Containers: []corev1.Container{
						{
							Name:  AppName,
							Image: tpl.Image,
							Env:   containerEnv(tpl),
						},
					},
				},
			},
		},
	}
}

func containerEnv(tpl JobTemplate) []corev1.EnvVar {
	env := []corev1.EnvVar{
		{Name: EnvMode, Value: "runner"},
	}

	keys := make([]string, 0, len(tpl.Env))
	for k := range tpl.Env {
		if k == EnvMode || k == EnvConnectionString {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		env = append(env, corev1.EnvVar{Name: k, Value: tpl.Env[k]})
	}

	// connection string is never passed by value
	env = append(env, corev1.EnvVar{
		Name: EnvConnectionString,
		ValueFrom: &corev1.EnvVarSource{
			SecretKeyRef: &corev1.SecretKeySelector{
				LocalObjectReference: corev1.LocalObjectReference{Name: tpl.SecretName},
				Key:                  tpl.SecretKey,
			},
		},
	})

	return env
}

func copyLabels(labels map[string]string) map[string]string {
	result := make(map[string]string, len(labels))
	for k, v := range labels {
		result[k] = v
	}
	return result
}
