// Package alerter provides the alert decision core of temblor. It defines
// the Engine (the per-tick dedup and dispatch pipeline), the watermark
// markers and Store interface (persistence), message rendering, and metrics.
package alerter
