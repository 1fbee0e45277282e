package store

import (
	"context"

	"github.com/fundnetwork/memberportal/internal/events"
	"github.com/fundnetwork/memberportal/internal/survey"
	"github.com/fundnetwork/memberportal/internal/types"
)

// Store is the row source and visibility source behind the portal.
type Store interface {
	// ListResponses returns the cohort of a survey year, oldest first.
	// A zero filter limit falls back to the store's cohort limit.
	ListResponses(ctx context.Context, year int, filter types.ResponseFilter) ([]types.SurveyResponse, error)
	GetResponse(ctx context.Context, year int, id string) (*types.SurveyResponse, error)
	SubmitResponse(ctx context.Context, resp types.NewSurveyResponse) (*types.SurveyResponse, error)
	SubmitResponses(ctx context.Context, resps []types.NewSurveyResponse) ([]types.SurveyResponse, error)
	ListVisibility(ctx context.Context) ([]survey.FieldVisibility, error)
	UpsertVisibility(ctx context.Context, entries []survey.FieldVisibility) (int, error)
	GetStats(ctx context.Context) (*types.StoreStats, error)
	Close() error
}

// ChangePublisher receives a change after every committed write.
type ChangePublisher interface {
	Publish(events.Change)
}

type nopPublisher struct{}

func (nopPublisher) Publish(events.Change) {}
