// Package resampler implements a telemetry resampling service.
//
// # Architecture
//
// The service is structured into several key packages:
//   - config: YAML configuration with defaults and environment expansion
//   - database: Postgres row source and append-only row sink
//   - models: Shared frame types
//   - resample: Bucketing, column classification and moving averages
//   - pipeline: One synchronous fetch, resample and append run
//   - server: HTTP handlers, health checks and middleware
//   - scheduler: Optional nightly runs for a fixed equipment list
//
// Key Features
//
//   - Resampling:
//     Raw readings of one equipment unit for one UTC day are averaged into
//     fixed width buckets aligned to midnight. Every bucket between the first
//     and last reading is emitted, empty ones as NULL.
//
//   - Moving Average:
//     Each numeric channel gets a trailing mean over the requested number of
//     minutes. A window that is not fully covered yields NULL.
//
//   - Storage:
//     Results are appended to the destination table, which is created and
//     widened on first write. Repeated runs append again.
//
// Example Usage
//
//	curl -X POST localhost:8080/resample \
//	    -d '{"equipment_number":"EQ-1","date":"2024-01-01","mavg_period":5}'
//
// For more information about specific packages, see their respective
// documentation.
package resampler
