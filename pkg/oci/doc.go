// Package oci publishes the benchmark library as an OCI artifact and pulls it back.
//
// Every stored entry becomes one JSON layer of media type
// "application/vnd.nvidia.ebench.benchmark.v1+json", titled with its store
// file name. The manifest carries the artifact type
// "application/vnd.nvidia.ebench.benchmarks" so registries and consumers can
// tell a benchmark library apart from a runnable image.
//
// # Usage
//
//	ref, err := oci.ParseReference("oci://ghcr.io/nvidia/benchmarks:v1")
//	if err != nil {
//	    return err
//	}
//	res, err := oci.Publish(ctx, st, ref, oci.PublishOptions{Version: version})
//
// # Authentication
//
// Remote registries are reached with Docker credential helpers
// (~/.docker/config.json) through the ORAS credentials package.
package oci
