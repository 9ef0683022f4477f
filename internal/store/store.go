// Package store persists roadmaps, modules, tracking and generated content
// as whole-record JSON documents keyed per user and namespace.
//
// Reads of absent or malformed records return nil with no error: both mean
// "not yet initialized". Errors are reserved for backend failures.
package store

import (
	"context"
	"fmt"

	"minutri/internal/model"
)

// RoadmapStore is the persistence boundary of the roadmap engine.
type RoadmapStore interface {
	GetRoadmap(ctx context.Context, userID int) (*model.Roadmap, error)
	SaveRoadmap(ctx context.Context, userID int, rm model.Roadmap) error

	GetProfile(ctx context.Context, userID int) (*model.UserProfile, error)
	SaveProfile(ctx context.Context, userID int, profile model.UserProfile) error

	GetModules(ctx context.Context, userID int) ([]model.Module, error)
	SaveModules(ctx context.Context, userID int, modules []model.Module) error

	GetTracking(ctx context.Context, userID, moduleID int) ([]model.DayTracking, error)
	SaveTracking(ctx context.Context, userID, moduleID int, days []model.DayTracking) error

	GetContent(ctx context.Context, userID, moduleID int) ([]model.DailyContent, error)
	SaveContent(ctx context.Context, userID, moduleID int, days []model.DailyContent) error

	// ReplacePlan atomically swaps in a new roadmap, dropping every module,
	// tracking and content record of the previous one.
	ReplacePlan(ctx context.Context, userID int, plan Plan) error
	// CommitTransition atomically writes the module list together with the
	// freshly initialized tracking of the newly active module.
	CommitTransition(ctx context.Context, userID int, t Transition) error
}

// Plan is everything written at onboarding.
type Plan struct {
	Roadmap  model.Roadmap
	Profile  model.UserProfile
	Modules  []model.Module
	Tracking []model.DayTracking // for module 1
}

// Transition is the result of completing a module.
type Transition struct {
	Modules []model.Module
	// UnlockedID is 0 when the completed module was the last one.
	UnlockedID int
	Tracking   []model.DayTracking
}

const (
	nsRoadmap  = "roadmap"
	nsProfile  = "profile"
	nsModules  = "modules"
	nsTracking = "tracking"
	nsContent  = "content"
)

func trackingNS(moduleID int) string { return fmt.Sprintf("%s:%d", nsTracking, moduleID) }

func contentNS(moduleID int) string { return fmt.Sprintf("%s:%d", nsContent, moduleID) }
