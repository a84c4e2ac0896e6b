// Package events decouples plan mutations from background recomputation.
//
// Services emit a TaskRequestEvent after changing a plan; handlers registered
// with the emitter (in practice the task package's factory handler) turn the
// event into a queued job. The emitting service never learns which handlers
// exist, which keeps the service and task packages free of import cycles.
package events
