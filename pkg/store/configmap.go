// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"context"
	"log/slog"

	"github.com/NVIDIA/energy-benchmark/pkg/defaults"
	eberrors "github.com/NVIDIA/energy-benchmark/pkg/errors"
	"github.com/NVIDIA/energy-benchmark/pkg/index"
	"github.com/NVIDIA/energy-benchmark/pkg/k8s/client"
	"github.com/NVIDIA/energy-benchmark/pkg/schema"
	"github.com/NVIDIA/energy-benchmark/pkg/serializer"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/utils/ptr"
)

// ConfigMap labels and keys.
const (
	LabelManagedBy  = "app.kubernetes.io/managed-by"
	LabelComponent  = "app.kubernetes.io/component"
	LabelCategory   = "ebench.nvidia.com/category"
	AnnotationID    = "ebench.nvidia.com/id"
	DataKeyEntry    = "entry.json"
	managerName     = "ebench"
	componentName   = "benchmark"
	configMapPrefix = "ebench-benchmark-"
)

// ConfigMapStore keeps one ConfigMap per entry.
type ConfigMapStore struct {
	client    client.Interface
	namespace string
	immutable bool
}

// ConfigMapOption configures a ConfigMapStore.
type ConfigMapOption func(*ConfigMapStore)

// WithImmutable marks written ConfigMaps immutable. Updates then replace the
// ConfigMap instead of modifying it.
func WithImmutable(immutable bool) ConfigMapOption {
	return func(s *ConfigMapStore) {
		s.immutable = immutable
	}
}

// NewConfigMapStore creates a store in namespace.
func NewConfigMapStore(c client.Interface, namespace string, opts ...ConfigMapOption) *ConfigMapStore {
	s := &ConfigMapStore{client: c, namespace: namespace}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ConfigMapName returns the ConfigMap name of an entry id.
func ConfigMapName(id string) string {
	return configMapPrefix + digest(id)
}

func managedSelector(category schema.Category) string {
	set := labels.Set{LabelManagedBy: managerName, LabelComponent: componentName}
	if category != "" {
		set[LabelCategory] = string(category)
	}
	return labels.SelectorFromSet(set).String()
}

// Get reads one entry.
func (s *ConfigMapStore) Get(ctx context.Context, id string) (*index.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.K8sStoreTimeout)
	defer cancel()

	cm, err := s.client.CoreV1().ConfigMaps(s.namespace).Get(ctx, ConfigMapName(id), metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeUnavailable, "failed to get benchmark ConfigMap", err)
	}
	return decodeConfigMap(cm)
}

// List returns the entries of category, or all entries when it is empty.
func (s *ConfigMapStore) List(ctx context.Context, category schema.Category) ([]*index.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.K8sStoreListTimeout)
	defer cancel()

	list, err := s.client.CoreV1().ConfigMaps(s.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: managedSelector(category),
	})
	if err != nil {
		return nil, eberrors.Wrap(eberrors.ErrCodeUnavailable, "failed to list benchmark ConfigMaps", err)
	}

	out := make([]*index.Entry, 0, len(list.Items))
	for i := range list.Items {
		e, err := decodeConfigMap(&list.Items[i])
		if err != nil {
			slog.Warn("skipping unreadable benchmark ConfigMap",
				"namespace", s.namespace, "name", list.Items[i].Name, "error", err)
			continue
		}
		out = append(out, e)
	}
	sortByID(out)
	return out, nil
}

// Put creates or replaces the ConfigMap of an entry.
func (s *ConfigMapStore) Put(ctx context.Context, e *index.Entry) error {
	if err := checkEntry(e); err != nil {
		return err
	}
	data, err := serializer.Marshal(serializer.FormatJSON, e)
	if err != nil {
		return eberrors.Wrap(eberrors.ErrCodeInternal, "failed to encode benchmark", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaults.K8sStoreTimeout)
	defer cancel()

	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      ConfigMapName(e.ID()),
			Namespace: s.namespace,
			Labels: map[string]string{
				LabelManagedBy: managerName,
				LabelComponent: componentName,
				LabelCategory:  string(e.Category()),
			},
			Annotations: map[string]string{AnnotationID: e.ID()},
		},
		Data:      map[string]string{DataKeyEntry: string(data)},
		Immutable: ptr.To(s.immutable),
	}

	cms := s.client.CoreV1().ConfigMaps(s.namespace)
	_, err = cms.Create(ctx, cm, metav1.CreateOptions{})
	if err == nil {
		slog.Debug("benchmark ConfigMap created", "namespace", s.namespace, "name", cm.Name, "id", e.ID())
		return nil
	}
	if !apierrors.IsAlreadyExists(err) {
		return eberrors.Wrap(eberrors.ErrCodeUnavailable, "failed to create benchmark ConfigMap", err)
	}

	existing, err := cms.Get(ctx, cm.Name, metav1.GetOptions{})
	if err != nil {
		return eberrors.Wrap(eberrors.ErrCodeUnavailable, "failed to get benchmark ConfigMap", err)
	}
	if ptr.Deref(existing.Immutable, false) {
		if err := cms.Delete(ctx, cm.Name, metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
			return eberrors.Wrap(eberrors.ErrCodeUnavailable, "failed to replace immutable benchmark ConfigMap", err)
		}
		if _, err := cms.Create(ctx, cm, metav1.CreateOptions{}); err != nil {
			return eberrors.Wrap(eberrors.ErrCodeUnavailable, "failed to replace immutable benchmark ConfigMap", err)
		}
		return nil
	}

	cm.ResourceVersion = existing.ResourceVersion
	if _, err := cms.Update(ctx, cm, metav1.UpdateOptions{}); err != nil {
		return eberrors.Wrap(eberrors.ErrCodeUnavailable, "failed to update benchmark ConfigMap", err)
	}
	slog.Debug("benchmark ConfigMap updated", "namespace", s.namespace, "name", cm.Name, "id", e.ID())
	return nil
}

// Delete removes the ConfigMap of an entry.
func (s *ConfigMapStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaults.K8sStoreTimeout)
	defer cancel()

	err := s.client.CoreV1().ConfigMaps(s.namespace).Delete(ctx, ConfigMapName(id), metav1.DeleteOptions{})
	if apierrors.IsNotFound(err) {
		return notFound(id)
	}
	if err != nil {
		return eberrors.Wrap(eberrors.ErrCodeUnavailable, "failed to delete benchmark ConfigMap", err)
	}
	return nil
}

func decodeConfigMap(cm *corev1.ConfigMap) (*index.Entry, error) {
	data, ok := cm.Data[DataKeyEntry]
	if !ok {
		return nil, eberrors.NewWithContext(eberrors.ErrCodeInternal, "benchmark ConfigMap has no entry data",
			map[string]any{"name": cm.Name})
	}
	return decodeEntry([]byte(data), cm.Namespace+"/"+cm.Name)
}
