// Package metrics records build observability data for spritegen.
//
// Components receive a Recorder through their options. NoopRecorder is the
// default and does nothing, so callers never check for nil. When
// metrics.addr is configured the CLI swaps in a PrometheusRecorder and
// serves its registry on /metrics:
//
//	reg := metrics.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	srv := metrics.NewServer(addr, reg, nil)
//	go srv.ListenAndServe()
//
// Tests inject their own Recorder to assert on recorded values.
package metrics
