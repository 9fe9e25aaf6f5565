package kubefx

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"

	"github.com/yurykabanov/sqljobrunner/internal/configfx"
	"github.com/yurykabanov/sqljobrunner/pkg/cluster"
)

type KubernetesConfig struct {
	// Kubeconfig is used only outside of a cluster. Empty means ~/.kube/config.
	Kubeconfig string
}

func KubernetesConfigProvider(v *viper.Viper) *KubernetesConfig {
	return &KubernetesConfig{
		Kubeconfig: v.GetString(configfx.ConfigKubernetesKubeconfig),
	}
}

// RestConfig prefers the in-cluster service account and falls back to a
// kubeconfig file when running elsewhere.
func RestConfig(config *KubernetesConfig, logger *logrus.Logger) (*rest.Config, error) {
	restConfig, err := rest.InClusterConfig()
	if err == nil {
		logger.Debug("Using in-cluster kubernetes configuration")
		return restConfig, nil
	}
	if err != rest.ErrNotInCluster {
		return nil, errors.Wrap(err, "Unable to load in-cluster kubernetes configuration")
	}

	// KUBECONFIG may hold a list of files, only the first one is used
	kubeconfig := ""
	if paths := filepath.SplitList(config.Kubeconfig); len(paths) > 0 {
		kubeconfig = paths[0]
	}
	if kubeconfig == "" {
		if home := homedir.HomeDir(); home != "" {
			kubeconfig = filepath.Join(home, ".kube", "config")
		}
	}

	logger.WithField("kubeconfig", kubeconfig).Debug("Using kubeconfig file")

	restConfig, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to load kubeconfig")
	}

	return restConfig, nil
}

func Clientset(restConfig *rest.Config) (kubernetes.Interface, error) {
	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to create kubernetes client")
	}

	return clientset, nil
}

func JobClient(clientset kubernetes.Interface) *cluster.JobClient {
	return cluster.NewJobClient(clientset)
}
