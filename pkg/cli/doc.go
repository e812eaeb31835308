// Package cli implements the ebench command-line interface.
//
// # Commands
//
// validate - Check a candidate record against the schema registry:
//
//	ebench validate --input record.yaml [--fail-on-error]
//
// compare - Compare one or more records against the benchmark library:
//
//	ebench compare --store ./benchmarks --input audit.yaml [--k 5] [--alternates]
//
// benchmark - Manage the literature benchmark library:
//
//	ebench benchmark add --store ./benchmarks --input li2019.json
//	ebench benchmark list --store ./benchmarks [--category milling]
//	ebench benchmark get --store ./benchmarks Li2019
//	ebench benchmark search --store ./benchmarks "face milling"
//	ebench benchmark deprecate --store ./benchmarks Li2019 --superseded-by Li2021
//	ebench benchmark remove --store ./benchmarks Li2019
//	ebench benchmark publish --store ./benchmarks oci://ghcr.io/nvidia/benchmarks:v1
//	ebench benchmark pull --store ./benchmarks oci://ghcr.io/nvidia/benchmarks:v1
//
// dataset - Reduce a measured CSV power trace:
//
//	ebench dataset summarize --input trace.csv --group spindle=Power1,Power2
//	ebench dataset record --input trace.csv --source-id line-7 --category milling [--compare]
//
// # Global Flags
//
//	--log-level     Log level: debug, info, warn, error (default: info)
//	--output, -o    Output file path (default: stdout)
//	--format, -t    Output format: yaml, json, table (default: yaml)
//
// Engine flags (--store, --config, --registry, --advisory-url, --advisory-model)
// fall back to the EBENCH_* environment variables. A store is "mem://",
// "cm://<namespace>" or a directory.
package cli
