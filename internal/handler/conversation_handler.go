/*
Package handler provides HTTP handler functions for the REST chat fallback.

This file covers private conversations: listing, fetching, find-or-create, and
sending messages without an active realtime connection. Every mutating endpoint
re-validates participant membership against the store with the same rule the
gateway applies, so neither path can be used to escalate access.
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

// HandleListConversations returns the caller's conversations, most recently
// active first.
func HandleListConversations(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := identity.FromContext(r.Context())

		conversations, err := deps.Store.ListConversations(r.Context(), caller.ID)
		if err != nil {
			resp.RespondError(w, r, mapStoreError(err, errs.ErrConversationNotFound))
			return
		}

		resp.RespondData(w, r, conversations)
	}
}

type CreateConversationInput struct {
	// ParticipantID is the other party of the conversation.
	ParticipantID string `json:"participantId"`
}

// HandleCreateConversation finds or creates the unique conversation between the
// caller and the given participant.
func HandleCreateConversation(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := identity.FromContext(r.Context())

		var input CreateConversationInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.ParticipantID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if input.ParticipantID == caller.ID {
			resp.RespondError(w, r, errs.NewError(errs.ErrSelfConversation))
			return
		}

		if _, err := deps.Store.GetUserByID(r.Context(), input.ParticipantID); err != nil {
			resp.RespondError(w, r, mapStoreError(err, errs.ErrConversationNotFound))
			return
		}

		conversation, err := deps.Store.FindOrCreateConversation(r.Context(), caller.ID, input.ParticipantID)
		if err != nil {
			resp.RespondError(w, r, mapStoreError(err, errs.ErrConversationNotFound))
			return
		}

		resp.RespondData(w, r, conversation)
	}
}

// HandleGetConversation fetches one conversation the caller participates in.
func HandleGetConversation(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := identity.FromContext(r.Context())

		conversation, err := deps.Store.GetConversation(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			resp.RespondError(w, r, mapStoreError(err, errs.ErrConversationNotFound))
			return
		}

		if !conversation.HasParticipant(caller.ID) {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotParticipant))
			return
		}

		resp.RespondData(w, r, conversation)
	}
}

// HandleListConversationMessages returns a conversation's messages in append order.
func HandleListConversationMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := identity.FromContext(r.Context())
		conversationID := chi.URLParam(r, "id")

		conversation, err := deps.Store.GetConversation(r.Context(), conversationID)
		if err != nil {
			resp.RespondError(w, r, mapStoreError(err, errs.ErrConversationNotFound))
			return
		}

		if !conversation.HasParticipant(caller.ID) {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotParticipant))
			return
		}

		messages, err := deps.Store.ListConversationMessages(r.Context(), conversationID)
		if err != nil {
			resp.RespondError(w, r, mapStoreError(err, errs.ErrConversationNotFound))
			return
		}

		resp.RespondData(w, r, messages)
	}
}

type SendMessageInput struct {
	Content string `json:"content"`
}

// HandleSendConversationMessage appends a message through the REST fallback.
// No realtime fan-out happens here; clients without a connection poll for
// updates, and connected participants catch up the same way.
func HandleSendConversationMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := identity.FromContext(r.Context())
		conversationID := chi.URLParam(r, "id")

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

		conversation, err := deps.Store.GetConversation(r.Context(), conversationID)
		if err != nil {
			resp.RespondError(w, r, mapStoreError(err, errs.ErrConversationNotFound))
			return
		}

		if !conversation.HasParticipant(caller.ID) {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotParticipant))
			return
		}

		message, err := deps.Store.AppendConversationMessage(r.Context(), conversationID, caller.ID, input.Content)
		if err != nil {
			resp.RespondError(w, r, mapStoreError(err, errs.ErrConversationNotFound))
			return
		}

		resp.RespondCreated(w, r, message)
	}
}
