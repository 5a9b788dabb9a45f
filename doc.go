// Package logpipe is a configuration-driven structured logging runtime.
//
// A declarative configuration tree is assembled into a validated routing
// topology of named formatters, filters, and sinks. Events produced at call
// sites are dispatched through that topology, optionally decoupled from slow
// sinks by a bounded queue, with size- or time-based rotation, compression,
// and retention management for file-based sinks.
//
// Basic usage:
//
//	cfg, err := logpipe.ParseConfig(data, logpipe.FormatYAML)
//	if err != nil {
//		// handle configuration error
//	}
//	if err := logpipe.Configure(cfg); err != nil {
//		// handle configuration error
//	}
//	defer logpipe.Shutdown()
//
//	log := logpipe.GetLogger("app.db")
//	log.Info("connected")
//	log.With(map[string]any{"shard": 3}).Warn("replica lag")
//
// Configuration is applied in whole generations: a failed validation leaves
// the previously active configuration untouched, and a successful Configure
// fully tears down the previous generation (queues drained, sinks flushed and
// closed) before the new one becomes active.
package logpipe
