// Package domain contains the core business entities, value objects, and
// domain logic of the degree planner. It represents the heart of the system,
// independent of any specific infrastructure or delivery mechanism.
//
// Pure algorithms live in subpackages: prereq evaluates prerequisite rule
// trees and validation folds a plan's timeline into a ValidationResult.
package domain
