// Package service contains the application use cases of the degree planner.
// It orchestrates the stores (defined in internal/store), the validation
// cache and the background job pipeline to fulfill API operations.
//
// Key components:
//
// 1. PlanService:
//   - Plan and entry CRUD with the input rules of the planner
//   - Synchronous cache invalidation on every mutation that affects validation
//   - Emission of plan_validation task requests after each such mutation
//
// 2. ValidationService:
//   - ComputeValidation loads a plan's entries and courses and runs the pure
//     validator; the queued job and the synchronous read share it
//   - GetValidation is the read-through path: cache hit or compute and write
//   - EnqueueRecompute schedules a deduplicated background recomputation
//
// 3. Error Handling:
//   - Store sentinels are translated to service sentinels
//   - Storage, cache and queue failures are wrapped in InfrastructureError so
//     the API layer can tell them apart from domain errors
//
// The service layer depends on domain entities and repository interfaces,
// never on specific infrastructure implementations.
package service
