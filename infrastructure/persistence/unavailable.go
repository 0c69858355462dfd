package persistence

import (
	"context"

	"collocation-backend/application/ports"
	"collocation-backend/domain/core/entities"
	"collocation-backend/domain/core/valueobjects"
	pkgerrors "collocation-backend/pkg/errors"
)

// Unavailable stands in for a store that could not be opened at startup.
// The server keeps running and every call reports the original failure.
type Unavailable struct {
	cause error
}

var _ ports.CollocationRepository = (*Unavailable)(nil)

// NewUnavailable returns a repository failing every call with cause
func NewUnavailable(cause error) *Unavailable {
	return &Unavailable{cause: cause}
}

func (u *Unavailable) fail(operation string) error {
	return pkgerrors.NewDatabaseError(operation, u.cause)
}

func (u *Unavailable) InsertMany(context.Context, []*entities.Collocation) (ports.BulkInsertResult, error) {
	return ports.BulkInsertResult{}, u.fail("insert collocations")
}

func (u *Unavailable) InsertOne(context.Context, *entities.Collocation) (*entities.Collocation, error) {
	return nil, u.fail("insert collocation")
}

func (u *Unavailable) FindAll(context.Context, ports.ListOptions) ([]*entities.Collocation, int, error) {
	return nil, 0, u.fail("find collocations")
}

func (u *Unavailable) CountMatching(context.Context, string) (int, error) {
	return 0, u.fail("count collocations")
}

func (u *Unavailable) FindExists(context.Context, string) (bool, error) {
	return false, u.fail("check collocation")
}

func (u *Unavailable) UpdateByID(context.Context, valueobjects.CollocationID, entities.Fields) (*entities.Collocation, error) {
	return nil, u.fail("update collocation")
}

func (u *Unavailable) DeleteByID(context.Context, valueobjects.CollocationID) (*entities.Collocation, error) {
	return nil, u.fail("delete collocation")
}

func (u *Unavailable) DeleteAll(context.Context) (int, error) {
	return 0, u.fail("delete all collocations")
}

func (u *Unavailable) Ping(context.Context) error {
	return u.fail("connect")
}
