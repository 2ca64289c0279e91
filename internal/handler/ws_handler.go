/*
Package handler provides the HTTP handler function for WebSocket connection upgrading
and initialization.

This file contains the HandleWebSocket function, which is responsible for rate
limiting, resolving the handshake credential to a user identity, upgrading the HTTP
connection to WebSocket, and initiating the client lifecycle. Connections with a
missing or invalid credential are refused before any event handler is registered.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/zechsoft/global-backfinal-sub000/internal/app/chat"
	"github.com/zechsoft/global-backfinal-sub000/internal/app/identity"
	"github.com/zechsoft/global-backfinal-sub000/internal/pkg/errs"
	"github.com/zechsoft/global-backfinal-sub000/internal/pkg/limiter"
	"github.com/zechsoft/global-backfinal-sub000/internal/pkg/logx"
	"github.com/zechsoft/global-backfinal-sub000/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		token := identity.TokenFromRequest(r)

		currentUser, customErr := deps.Verifier.Verify(r.Context(), token)
		if customErr != nil {
			logx.Warn("WebSocket connection rejected: Credential verification failed.")
			resp.RespondError(w, r, customErr)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(deps.Gateway, conn, currentUser)

		go client.WritePump()

		logx.Info("WebSocket connection established", "user_id", currentUser.ID)

		deps.Gateway.HandleConnect(client)

		client.ReadPump()
	}
}
