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

// Package client provides the shared Kubernetes client used by the ConfigMap
// benchmark store.
//
// GetKubeClient builds the client once and caches it. Credentials come from
// KUBECONFIG, then ~/.kube/config, then the in-cluster service account:
//
//	cs, _, err := client.GetKubeClient()
//	s := store.NewConfigMapStore(cs, "energy")
//
// Tests pass a fake clientset from k8s.io/client-go/kubernetes/fake instead.
package client
