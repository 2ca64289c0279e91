/*
Package handler provides HTTP handler functions for the REST chat fallback.

This file covers chat rooms: listing, creation, join/leave membership mutation,
and room messages. Membership checks read persisted state, matching the
gateway's authorization rule exactly.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zechsoft/global-backfinal-sub000/internal/app/chat"
	"github.com/zechsoft/global-backfinal-sub000/internal/app/identity"
	"github.com/zechsoft/global-backfinal-sub000/internal/pkg/errs"
	"github.com/zechsoft/global-backfinal-sub000/internal/pkg/req"
	"github.com/zechsoft/global-backfinal-sub000/internal/pkg/resp"
)

// MaxRoomNameLength bounds room names; the uniqueness constraint lives in the store.
const MaxRoomNameLength = 100

// HandleListRooms returns all rooms with participant counts, newest first.
func HandleListRooms(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, err := deps.Store.ListRooms(r.Context())
		if err != nil {
			resp.RespondError(w, r, mapStoreError(err, errs.ErrRoomNotFound))
			return
		}

		resp.RespondData(w, r, rooms)
	}
}

type CreateRoomInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// HandleCreateRoom creates a named room with the caller as its first participant.
func HandleCreateRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := identity.FromContext(r.Context())

		var input CreateRoomInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Name == "" || len(input.Name) > MaxRoomNameLength {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		room, err := deps.Store.CreateRoom(r.Context(), input.Name, input.Description, caller.ID)
		if err != nil {
			resp.RespondError(w, r, mapStoreError(err, errs.ErrRoomNotFound))
			return
		}

		resp.RespondCreated(w, r, room)
	}
}

// HandleGetRoom fetches one room with its participant roster.
func HandleGetRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, err := deps.Store.GetRoom(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			resp.RespondError(w, r, mapStoreError(err, errs.ErrRoomNotFound))
			return
		}

		resp.RespondData(w, r, room)
	}
}

// HandleJoinRoom adds the caller to the room's participant set.
func HandleJoinRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := identity.FromContext(r.Context())
		roomID := chi.URLParam(r, "id")

		if err := deps.Store.JoinRoom(r.Context(), roomID, caller.ID); err != nil {
			resp.RespondError(w, r, mapStoreError(err, errs.ErrRoomNotFound))
			return
		}

		room, err := deps.Store.GetRoom(r.Context(), roomID)
		if err != nil {
			resp.RespondError(w, r, mapStoreError(err, errs.ErrRoomNotFound))
			return
		}

		resp.RespondData(w, r, room)
	}
}

// HandleLeaveRoom removes the caller from the room's participant set.
func HandleLeaveRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := identity.FromContext(r.Context())
		roomID := chi.URLParam(r, "id")

		if err := deps.Store.LeaveRoom(r.Context(), roomID, caller.ID); err != nil {
			resp.RespondError(w, r, mapStoreError(err, errs.ErrRoomNotFound))
			return
		}

		room, err := deps.Store.GetRoom(r.Context(), roomID)
		if err != nil {
			resp.RespondError(w, r, mapStoreError(err, errs.ErrRoomNotFound))
			return
		}

		resp.RespondData(w, r, room)
	}
}

// HandleListRoomMessages returns a room's messages in append order.
// Reading a room requires membership, same as sending into it.
func HandleListRoomMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := identity.FromContext(r.Context())
		roomID := chi.URLParam(r, "id")

		room, err := deps.Store.GetRoom(r.Context(), roomID)
		if err != nil {
			resp.RespondError(w, r, mapStoreError(err, errs.ErrRoomNotFound))
			return
		}

		if !room.HasParticipant(caller.ID) {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotParticipant))
			return
		}

		messages, err := deps.Store.ListRoomMessages(r.Context(), roomID)
		if err != nil {
			resp.RespondError(w, r, mapStoreError(err, errs.ErrRoomNotFound))
			return
		}

		resp.RespondData(w, r, messages)
	}
}

// HandleSendRoomMessage appends a room message through the REST fallback.
func HandleSendRoomMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := identity.FromContext(r.Context())
		roomID := chi.URLParam(r, "id")

		var input SendMessageInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Content == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrEmptyContent))
			return
		}

		if len(input.Content) > chat.MaxContentBytes {
			resp.RespondError(w, r, errs.NewError(errs.ErrMessageContentTooLong))
			return
		}

		room, err := deps.Store.GetRoom(r.Context(), roomID)
		if err != nil {
			resp.RespondError(w, r, mapStoreError(err, errs.ErrRoomNotFound))
			return
		}

		if !room.HasParticipant(caller.ID) {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotParticipant))
			return
		}

		message, err := deps.Store.AppendRoomMessage(r.Context(), roomID, caller.ID, input.Content)
		if err != nil {
			resp.RespondError(w, r, mapStoreError(err, errs.ErrRoomNotFound))
			return
		}

		resp.RespondCreated(w, r, message)
	}
}
