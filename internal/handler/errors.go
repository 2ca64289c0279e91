package handler

import (
	"errors"

	"github.com/zechsoft/global-backfinal-sub000/internal/app/store"
	"github.com/zechsoft/global-backfinal-sub000/internal/pkg/errs"
	"github.com/zechsoft/global-backfinal-sub000/internal/pkg/logx"
)

// mapStoreError converts a store error into the application error taxonomy.
// notFoundCode selects which NotFound variant applies to the handler's entity.
func mapStoreError(err error, notFoundCode int) *errs.CustomError {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errs.NewError(notFoundCode)
	case errors.Is(err, store.ErrInvalidID):
		return errs.NewError(errs.ErrInvalidParams)
	case errors.Is(err, store.ErrDuplicateName):
		return errs.NewError(errs.ErrRoomNameExists)
	case errors.Is(err, store.ErrAlreadyMember):
		return errs.NewError(errs.ErrAlreadyMember)
	case errors.Is(err, store.ErrNotMember):
		return errs.NewError(errs.ErrNotMember)
	default:
		logx.Error(err, "Unexpected store error")
		return errs.NewError(errs.ErrPersistence)
	}
}
